package peaks

import "errors"

var (
	ErrBadPeakCount      = errors.New("peak count must be at least 1")
	ErrHeightNotInFamily = errors.New("peak height is not a member of the family")
	ErrMergeFailed       = errors.New("peaks can not be merged")
	ErrNotAPeak          = errors.New("value is not a peak created by a family")
)
