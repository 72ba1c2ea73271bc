package checkpoint

import (
	"fmt"
	"time"

	"github.com/forestrie/go-peakmerkle/mmr"
	"github.com/google/uuid"
)

// RangeState is what a checkpoint commits to: the shape and size of a range
// and its root.
type RangeState struct {
	// LogID is the 16 byte uuid of the log the range belongs to
	LogID     []byte `cbor:"1,keyasint"`
	LeafCount uint64 `cbor:"2,keyasint"`
	// PeakLens is the number of leaves in each peak slot. Together with the
	// branch factor it fixes the height of every peak, and so the path from
	// any leaf to the root.
	PeakLens []uint64 `cbor:"3,keyasint"`
	// Root is detached from published checkpoints. Verifiers recompute it
	// from their own copy of the range.
	Root []byte `cbor:"4,keyasint"`
	// Timestamp is the unix time (milliseconds) read at the time the root was
	// signed. Including it allows for the same root to be re-signed.
	Timestamp int64 `cbor:"5,keyasint"`

	BranchFactor uint64 `cbor:"6,keyasint"`
	PeakCount    uint64 `cbor:"7,keyasint"`
	DigestName   string `cbor:"8,keyasint"`
}

// StateFromRange captures the current state of r, root included.
func StateFromRange(r *mmr.Range, logID uuid.UUID) RangeState {
	root := r.Root()
	cfg := r.Config()
	return RangeState{
		LogID:        logID[:],
		LeafCount:    r.Len(),
		PeakLens:     r.PeakLens(),
		Root:         root[:],
		Timestamp:    time.Now().UnixMilli(),
		BranchFactor: cfg.BranchFactor,
		PeakCount:    cfg.PeakCount,
		DigestName:   cfg.DigestName,
	}
}

func (s RangeState) LogUUID() (uuid.UUID, error) {
	return uuid.FromBytes(s.LogID)
}

// Describes returns ErrStateMismatch unless the state has the same
// configuration, length and peak layout as r. The root is not compared.
func (s RangeState) Describes(r *mmr.Range) error {
	cfg := r.Config()
	if s.BranchFactor != cfg.BranchFactor || s.PeakCount != cfg.PeakCount {
		return fmt.Errorf("%w: configuration b=%d p=%d, range b=%d p=%d",
			ErrStateMismatch, s.BranchFactor, s.PeakCount, cfg.BranchFactor, cfg.PeakCount)
	}
	if s.LeafCount != r.Len() {
		return fmt.Errorf("%w: leaf count %d, range has %d", ErrStateMismatch, s.LeafCount, r.Len())
	}
	lens := r.PeakLens()
	if len(lens) != len(s.PeakLens) {
		return fmt.Errorf("%w: %d peak lens, range has %d", ErrStateMismatch, len(s.PeakLens), len(lens))
	}
	for i := range lens {
		if lens[i] != s.PeakLens[i] {
			return fmt.Errorf("%w: slot %d has %d leaves, range has %d",
				ErrStateMismatch, i, s.PeakLens[i], lens[i])
		}
	}
	return nil
}

// Subject is the CWT subject checkpoints and receipts for a log are issued
// under.
func Subject(logID uuid.UUID) string {
	return fmt.Sprintf("v1/ranges/%s", logID)
}
