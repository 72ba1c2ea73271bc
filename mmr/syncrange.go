package mmr

import (
	"sync"

	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/merkle"
	"github.com/forestrie/go-peakmerkle/peaks"
)

// SyncRange serialises appends to a Range while letting readers proceed
// concurrently. A merge touches several slots and the summit, and readers
// never observe it half done.
type SyncRange struct {
	mu sync.RWMutex
	r  *Range
}

func NewSyncRange(r *Range) *SyncRange {
	return &SyncRange{r: r}
}

func (s *SyncRange) TryAppend(input []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.TryAppend(input)
}

// AppendAll appends each input in turn, stopping at the first failure. It
// returns the number appended. Readers see none of the batch until it
// returns.
func (s *SyncRange) AppendAll(inputs [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, input := range inputs {
		if err := s.r.TryAppend(input); err != nil {
			return i, err
		}
	}
	return len(inputs), nil
}

func (s *SyncRange) GenerateProof(index uint64) (merkle.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.GenerateProof(index)
}

func (s *SyncRange) Root() digest.Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.Root()
}

func (s *SyncRange) Len() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.Len()
}

func (s *SyncRange) PeakLens() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.PeakLens()
}

// Peaks returns copies of the peaks, the originals keep changing under
// later appends.
func (s *SyncRange) Peaks() ([]peaks.Peak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]peaks.Peak, len(s.r.slots))
	for i, p := range s.r.slots {
		c, err := s.r.family.Clone(p)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// RangeReader is the read only surface of a Range. Nothing reachable from it
// aliases the range's peaks or summit.
type RangeReader interface {
	Root() digest.Digest
	Len() uint64
	Capacity() uint64
	CurrentPeakIndex() int
	PeakLens() []uint64
	PeakHeights() []uint64
	Config() Config
	GenerateProof(index uint64) (merkle.Proof, error)
}

// rangeView hides the *Range so fn cannot assert its way to TryAppend.
type rangeView struct {
	r *Range
}

func (v rangeView) Root() digest.Digest   { return v.r.Root() }
func (v rangeView) Len() uint64           { return v.r.Len() }
func (v rangeView) Capacity() uint64      { return v.r.Capacity() }
func (v rangeView) CurrentPeakIndex() int { return v.r.CurrentPeakIndex() }
func (v rangeView) PeakLens() []uint64    { return v.r.PeakLens() }
func (v rangeView) PeakHeights() []uint64 { return v.r.PeakHeights() }
func (v rangeView) Config() Config        { return v.r.Config() }

func (v rangeView) GenerateProof(index uint64) (merkle.Proof, error) {
	return v.r.GenerateProof(index)
}

// View runs fn with the read lock held, so every read fn makes sees the same
// range. The reader is only valid until fn returns.
func (s *SyncRange) View(fn func(r RangeReader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(rangeView{r: s.r})
}
