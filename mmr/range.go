package mmr

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/merkle"
	"github.com/forestrie/go-peakmerkle/peaks"
)

// Range is an append only merkle mountain range over a fixed number of peak
// slots. Each slot holds a peak from the range's family. The summit is a
// small tree whose leaf i is the root of slot i, and its root is the root of
// the whole range.
//
// A Range is not safe for concurrent use. See SyncRange.
type Range struct {
	log    logger.Logger
	cfg    Config
	family *peaks.Family

	slots  []peaks.Peak
	summit *merkle.Tree
	// current is the highest slot that has received data. Merges move it left.
	current int
	count   uint64
}

// New creates a range with every slot holding an empty peak of the minimum
// height.
func New(cfg Config, log logger.Logger, opts ...Option) (*Range, error) {
	family, err := newFamily(cfg, opts...)
	if err != nil {
		return nil, err
	}

	r := &Range{
		log:    log,
		cfg:    cfg,
		family: family,
		slots:  make([]peaks.Peak, cfg.PeakCount),
	}
	for i := range r.slots {
		r.slots[i] = family.Empty()
	}
	if r.summit, err = r.buildSummit(r.slots); err != nil {
		return nil, err
	}
	return r, nil
}

// FromPeak creates a range whose first slot holds a copy of peak. The leaf
// count is taken from the peak.
func FromPeak(cfg Config, log logger.Logger, peak peaks.Peak, opts ...Option) (*Range, error) {
	r, err := New(cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	if !r.family.Contains(peak) {
		return nil, fmt.Errorf("%w: height %d", ErrPeakNotInRange, peak.Height())
	}
	first, err := r.family.Clone(peak)
	if err != nil {
		return nil, err
	}
	r.slots[0] = first
	if r.summit, err = r.buildSummit(r.slots); err != nil {
		return nil, err
	}
	r.count = first.Len()
	return r, nil
}

func newFamily(cfg Config, opts ...Option) (*peaks.Family, error) {
	options := RangeOptions{}
	for _, o := range opts {
		o(&options)
	}

	if err := cfg.Peaks().Validate(); err != nil {
		return nil, err
	}
	newHasher := options.NewHasher
	if newHasher == nil {
		var err error
		if newHasher, err = cfg.Factory(); err != nil {
			return nil, err
		}
	}
	return peaks.NewFamily(cfg.Peaks(), newHasher)
}

func (r *Range) buildSummit(slots []peaks.Peak) (*merkle.Tree, error) {
	roots := make([]digest.Digest, len(slots))
	for i, p := range slots {
		roots[i] = p.Root()
	}
	return merkle.NewFromLeaves(r.family.SummitShape(), r.family.Factory(), roots)
}

// carryPlan is the outcome of an append worked out on peak heights and leaf
// counts alone, before any peak is touched.
type carryPlan struct {
	slot     int
	advanced bool
	// merges lists the right hand slot of each merge, in the order performed
	merges []int
	// current is the slot the append cursor rests on afterwards
	current int
}

func (r *Range) plan() (carryPlan, error) {
	p := carryPlan{slot: r.current}
	if r.slots[p.slot].Full() {
		if p.slot == len(r.slots)-1 {
			return carryPlan{}, fmt.Errorf("%w: %d leaves", ErrMMRFull, r.count)
		}
		p.slot++
		p.advanced = true
	}

	heights := make([]uint64, len(r.slots))
	lens := make([]uint64, len(r.slots))
	for i, s := range r.slots {
		heights[i] = s.Height()
		lens[i] = s.Len()
	}
	lens[p.slot]++

	full := func(i int) bool {
		return lens[i] == merkle.BaseLayerSize(r.cfg.BranchFactor, heights[i])
	}

	i := p.slot
	for i > 0 && heights[i] == heights[i-1] && full(i) && full(i-1) {
		if heights[i-1] == r.family.MaxHeight() {
			return carryPlan{}, fmt.Errorf(
				"%w: slots %d and %d are already the tallest height %d", ErrMergeFailed, i-1, i, heights[i])
		}
		p.merges = append(p.merges, i)
		heights[i-1]++
		lens[i-1] += lens[i]
		heights[i] = peaks.MinHeight
		lens[i] = 0
		i--
	}
	p.current = i
	return p, nil
}

// TryAppend adds HashLeaf(input) as the next leaf of the range.
//
// The peak at the current slot takes the leaf. If that peak is already full
// the next slot takes it instead, and if there is no next slot the range is
// full and ErrMMRFull is returned. Afterwards, equal height neighbours that
// are both full are carried into the left slot, one height taller, until no
// such pair remains. Either the whole append happens or none of it does.
func (r *Range) TryAppend(input []byte) error {
	p, err := r.plan()
	if err != nil {
		r.log.Infof("TryAppend: %v", err)
		return err
	}

	if p.advanced {
		r.log.Debugf("TryAppend: slot %d full, advancing to %d", r.current, p.slot)
	}

	if len(p.merges) == 0 {
		// Nothing can fail past this point so the peak and summit are
		// updated in place.
		if err := r.slots[p.slot].Append(input); err != nil {
			return err
		}
		if p.advanced {
			summit, err := r.buildSummit(r.slots)
			if err != nil {
				return err
			}
			r.summit = summit
		} else if err := r.summit.SetLeaf(uint64(p.slot), r.slots[p.slot].Root()); err != nil {
			return err
		}
		r.current = p.slot
		r.count++
		return nil
	}

	slots := make([]peaks.Peak, len(r.slots))
	copy(slots, r.slots)

	target, err := r.family.Clone(slots[p.slot])
	if err != nil {
		return err
	}
	if err := target.Append(input); err != nil {
		return err
	}
	slots[p.slot] = target

	for _, i := range p.merges {
		merged, err := r.family.Merge(slots[i-1], slots[i])
		if err != nil {
			return err
		}
		r.log.Debugf("TryAppend: merged slots %d and %d into height %d", i-1, i, merged.Height())
		slots[i-1] = merged
		slots[i] = r.family.Empty()
	}

	summit, err := r.buildSummit(slots)
	if err != nil {
		return err
	}

	r.slots = slots
	r.summit = summit
	r.current = p.current
	r.count++
	return nil
}

// GenerateProof proves the leaf at index against the range root. The proof
// is the peak proof for the leaf followed by the summit proof for the peak's
// slot.
func (r *Range) GenerateProof(index uint64) (merkle.Proof, error) {
	if index >= r.count {
		return merkle.Proof{}, fmt.Errorf(
			"%w: %d, range has %d leaves", ErrIndexOutOfRange, index, r.count)
	}

	var first uint64
	slot := 0
	for ; slot < len(r.slots); slot++ {
		n := r.slots[slot].Len()
		if index < first+n {
			break
		}
		first += n
	}
	peak := r.slots[slot]

	leaf, err := r.summit.Leaf(uint64(slot))
	if err != nil {
		return merkle.Proof{}, err
	}
	if leaf != peak.Root() {
		return merkle.Proof{}, fmt.Errorf(
			"%w: slot %d summit %s peak %s", ErrSummitMismatch, slot, leaf, peak.Root())
	}

	lower, err := peak.GenerateProof(index - first)
	if err != nil {
		return merkle.Proof{}, err
	}
	upper, err := r.summit.GenerateProof(uint64(slot))
	if err != nil {
		return merkle.Proof{}, err
	}
	return merkle.Chain(r.family.Factory()(), lower, upper)
}

// Peaks returns the peak in every slot, empty slots included. The peaks are
// owned by the range and must not be modified.
func (r *Range) Peaks() []peaks.Peak {
	out := make([]peaks.Peak, len(r.slots))
	copy(out, r.slots)
	return out
}

// PeakLens returns the number of leaves in each slot.
func (r *Range) PeakLens() []uint64 {
	lens := make([]uint64, len(r.slots))
	for i, p := range r.slots {
		lens[i] = p.Len()
	}
	return lens
}

// PeakHeights returns the height of the peak in each slot.
func (r *Range) PeakHeights() []uint64 {
	heights := make([]uint64, len(r.slots))
	for i, p := range r.slots {
		heights[i] = p.Height()
	}
	return heights
}

// Summit returns a copy of the tree over the peak roots.
func (r *Range) Summit() *merkle.Tree { return r.summit.Clone() }

func (r *Range) Root() digest.Digest     { return r.summit.Root() }
func (r *Range) Len() uint64             { return r.count }
func (r *Range) Capacity() uint64        { return r.family.Capacity() }
func (r *Range) CurrentPeakIndex() int   { return r.current }
func (r *Range) Config() Config          { return r.cfg }
func (r *Range) Family() *peaks.Family   { return r.family }
func (r *Range) Factory() digest.Factory { return r.family.Factory() }
