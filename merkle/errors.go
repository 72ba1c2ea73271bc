package merkle

import (
	"errors"

	"github.com/forestrie/go-peakmerkle/digest"
)

var (
	ErrBadBranchFactor  = errors.New("branch factor must be a power of two and at least 2")
	ErrBadHeight        = errors.New("tree height must be at least 1 and fit 64 bit index arithmetic")
	ErrCapacityExceeded = errors.New("input count exceeds the tree leaf capacity")
	ErrIndexOutOfRange  = errors.New("leaf index out of range")
	ErrTreeFull         = errors.New("every leaf of the tree is occupied")
	ErrProofChain       = errors.New("lower proof root is not the leaf proven by the upper proof")

	// ErrBadHashSize is re-exported so callers of this package need not import digest
	ErrBadHashSize = digest.ErrBadHashSize
)
