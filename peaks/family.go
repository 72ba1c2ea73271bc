package peaks

import (
	"fmt"

	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/merkle"
)

// MinHeight is the height of the empty peak every slot starts with.
const MinHeight = 2

// Peak is any one member of a family. *merkle.Tree is the only
// implementation; the interface is what a range dispatches through.
type Peak interface {
	Height() uint64
	Len() uint64
	Capacity() uint64
	Full() bool
	Empty() bool
	Root() digest.Digest
	OccupiedLeaves() []digest.Digest
	Append(input []byte) error
	GenerateProof(index uint64) (merkle.Proof, error)
}

type Config struct {
	BranchFactor uint64
	PeakCount    uint64
}

// maxIndexBits bounds log2(b) * height so that every layer offset of the
// tallest peak fits a uint64.
const maxIndexBits = 62

// Validate rejects a branch factor that is not a power of two, and a peak
// count of zero or one whose tallest peak, MinHeight+PeakCount-1, is too tall
// to index.
func (c Config) Validate() error {
	if c.BranchFactor < 2 || !merkle.IsPow2(c.BranchFactor) {
		return merkle.ErrBadBranchFactor
	}
	if c.PeakCount == 0 {
		return ErrBadPeakCount
	}
	maxHeight := maxIndexBits / merkle.Log2Uint64(c.BranchFactor)
	if maxHeight < MinHeight || c.PeakCount > maxHeight-MinHeight+1 {
		return fmt.Errorf("%w: %d peaks of branch factor %d exceed height %d",
			ErrBadPeakCount, c.PeakCount, c.BranchFactor, maxHeight)
	}
	return nil
}

// Family is the fixed set of peak heights for one range configuration.
type Family struct {
	cfg       Config
	newHasher digest.Factory

	// shapes[i] is the shape for height MinHeight + i
	shapes []merkle.Shape
	// summit is the shape of the tree over the peak roots
	summit merkle.Shape
}

// NewFamily validates cfg and precomputes a shape for each permitted height.
func NewFamily(cfg Config, newHasher digest.Factory) (*Family, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := newHasher.Check(); err != nil {
		return nil, err
	}

	f := &Family{
		cfg:       cfg,
		newHasher: newHasher,
		shapes:    make([]merkle.Shape, cfg.PeakCount),
	}
	for i := range f.shapes {
		s, err := merkle.NewShape(cfg.BranchFactor, MinHeight+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("%w: peak count %d", err, cfg.PeakCount)
		}
		f.shapes[i] = s
	}

	var err error
	f.summit, err = merkle.NewShape(
		cfg.BranchFactor, merkle.MinHeightFor(cfg.BranchFactor, cfg.PeakCount))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Family) Config() Config            { return f.cfg }
func (f *Family) Factory() digest.Factory   { return f.newHasher }
func (f *Family) MaxHeight() uint64         { return MinHeight + f.cfg.PeakCount - 1 }
func (f *Family) SummitShape() merkle.Shape { return f.summit }

// Heights lists the permitted heights, tallest first.
func (f *Family) Heights() []uint64 {
	heights := make([]uint64, 0, len(f.shapes))
	for i := len(f.shapes) - 1; i >= 0; i-- {
		heights = append(heights, f.shapes[i].Height())
	}
	return heights
}

// Shape returns the shape for a permitted height.
func (f *Family) Shape(height uint64) (merkle.Shape, error) {
	if height < MinHeight || height > f.MaxHeight() {
		return merkle.Shape{}, fmt.Errorf(
			"%w: %d not in [%d, %d]", ErrHeightNotInFamily, height, MinHeight, f.MaxHeight())
	}
	return f.shapes[height-MinHeight], nil
}

// Capacity is the total number of leaves a range over this family can hold.
// Every slot is full and the heights are all distinct.
func (f *Family) Capacity() uint64 {
	var n uint64
	for _, s := range f.shapes {
		n += s.BaseLayerSize()
	}
	return n
}

// Empty returns a new peak of the minimum height with no leaves.
func (f *Family) Empty() Peak {
	t, err := merkle.NewFromLeaves(f.shapes[0], f.newHasher, nil)
	if err != nil {
		// the shape and hasher were both validated by NewFamily
		panic(err)
	}
	return t
}

// New builds a peak of the given height from leaf digests.
func (f *Family) New(height uint64, leaves []digest.Digest) (Peak, error) {
	s, err := f.Shape(height)
	if err != nil {
		return nil, err
	}
	return merkle.NewFromLeaves(s, f.newHasher, leaves)
}

// Contains reports whether p is a tree of this family: a permitted height,
// the family branch factor, and a zero prefix.
func (f *Family) Contains(p Peak) bool {
	t, ok := p.(*merkle.Tree)
	if !ok {
		return false
	}
	s, err := f.Shape(t.Height())
	if err != nil {
		return false
	}
	return t.Shape().Equal(s) && t.Prefix().IsZero()
}

// Mergeable reports whether left and right would carry into one taller peak.
func (f *Family) Mergeable(left, right Peak) bool {
	return left.Height() == right.Height() && left.Full() && right.Full()
}

// Merge returns a new peak one taller than left and right, holding the leaves
// of left followed by the leaves of right. Neither input is modified.
func (f *Family) Merge(left, right Peak) (Peak, error) {
	if left.Height() != right.Height() {
		return nil, fmt.Errorf(
			"%w: heights %d and %d differ", ErrMergeFailed, left.Height(), right.Height())
	}
	s, err := f.Shape(left.Height() + 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}
	if left.Len()+right.Len() > s.BaseLayerSize() {
		return nil, fmt.Errorf(
			"%w: %d leaves do not fit height %d", ErrMergeFailed, left.Len()+right.Len(), s.Height())
	}

	leaves := make([]digest.Digest, 0, left.Len()+right.Len())
	leaves = append(leaves, left.OccupiedLeaves()...)
	leaves = append(leaves, right.OccupiedLeaves()...)
	return merkle.NewFromLeaves(s, f.newHasher, leaves)
}

// Clone returns an independent copy of p.
func (f *Family) Clone(p Peak) (Peak, error) {
	t, ok := p.(*merkle.Tree)
	if !ok {
		return nil, ErrNotAPeak
	}
	return t.Clone(), nil
}
