package checkpoint

import "errors"

var (
	ErrStateRootMissing    = errors.New("the root field of a state struct was nil when it should have been provided")
	ErrStateMismatch       = errors.New("the signed state does not describe the range it is being verified against")
	ErrReceiptMalformed    = errors.New("receipt proofs malformed")
	ErrNoCandidates        = errors.New("no candidates provided")
	ErrTooManyCandidates   = errors.New("more candidates than proofs")
	ErrReceiptVerifyFailed = errors.New("receipt verification failed")
	ErrRootChanged         = errors.New("range root changed while the receipt was being built")
)
