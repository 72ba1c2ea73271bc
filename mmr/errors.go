package mmr

import (
	"errors"

	"github.com/forestrie/go-peakmerkle/merkle"
	"github.com/forestrie/go-peakmerkle/peaks"
)

var (
	ErrMMRFull        = errors.New("every peak slot is full")
	ErrSummitMismatch = errors.New("summit leaf does not match the peak root")
	ErrPeakNotInRange = errors.New("peak is not a member of the range's peak family")

	ErrMergeFailed     = peaks.ErrMergeFailed
	ErrIndexOutOfRange = merkle.ErrIndexOutOfRange
	ErrBadPeakCount    = peaks.ErrBadPeakCount
	ErrBadBranchFactor = merkle.ErrBadBranchFactor
)
