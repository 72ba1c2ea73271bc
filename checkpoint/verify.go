package checkpoint

import (
	"github.com/forestrie/go-peakmerkle/mmr"
	"github.com/veraison/go-cose"
)

// VerifyAgainstRange completes steps 2 and 3 of checkpoint verification
// using r, which must be the range at the size the checkpoint was signed.
func VerifyAgainstRange(
	codec Codec, verifier cose.Verifier, signed *cose.Sign1Message, unverifiedState RangeState, r *mmr.Range) error {

	if err := unverifiedState.Describes(r); err != nil {
		return err
	}
	root := r.Root()
	unverifiedState.Root = root[:]
	return VerifySignedState(codec, verifier, signed, unverifiedState, nil)
}
