package checkpoint

import (
	"crypto/rand"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/veraison/go-cose"
)

const (
	HeaderLabelCWTClaims int64 = 15

	CWTClaimIssuer  int64 = 1
	CWTClaimSubject int64 = 2
)

// Signer produces a signature over a range state. The signature commits to
// the root, but the root is removed from the published message.
type Signer struct {
	log    logger.Logger
	issuer string
	codec  Codec
}

func NewSigner(log logger.Logger, issuer string, codec Codec) Signer {
	return Signer{
		log:    log,
		issuer: issuer,
		codec:  codec,
	}
}

func (s Signer) Codec() Codec { return s.codec }

func (s Signer) protectedHeader(coseSigner cose.Signer, keyID string, subject string) cose.ProtectedHeader {
	return cose.ProtectedHeader{
		cose.HeaderLabelAlgorithm: coseSigner.Algorithm(),
		cose.HeaderLabelKeyID:     []byte(keyID),
		HeaderLabelCWTClaims: map[int64]any{
			CWTClaimIssuer:  s.issuer,
			CWTClaimSubject: subject,
		},
	}
}

// Sign1 signs state, which must carry its root, and returns the encoded
// COSE_Sign1 message with the root detached.
func (s Signer) Sign1(coseSigner cose.Signer, keyID string, subject string, state RangeState, external []byte) ([]byte, error) {
	if len(state.Root) == 0 {
		return nil, ErrStateRootMissing
	}
	payload, err := s.codec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: s.protectedHeader(coseSigner, keyID, subject),
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, external, coseSigner); err != nil {
		return nil, err
	}

	// We purposefully detach the root so that verifiers are forced to obtain it
	// from the range.
	state.Root = nil
	if msg.Payload, err = s.codec.MarshalCBOR(state); err != nil {
		return nil, err
	}
	s.log.Debugf("Sign1: %s leaves %d peaks %v", subject, state.LeafCount, state.PeakLens)

	return msg.MarshalCBOR()
}

// DecodeSignedState decodes the RangeState from a signed checkpoint. The
// state has no root and will not verify until one is supplied.
func DecodeSignedState(codec Codec, data []byte) (*cose.Sign1Message, RangeState, error) {
	var signed cose.Sign1Message
	if err := signed.UnmarshalCBOR(data); err != nil {
		return nil, RangeState{}, err
	}

	var unverifiedState RangeState
	if err := codec.UnmarshalInto(signed.Payload, &unverifiedState); err != nil {
		return nil, RangeState{}, err
	}
	return &signed, unverifiedState, nil
}

// VerifySignedState puts unverifiedState, with its root restored, back as
// the payload of signed and checks the signature.
//
// Verifying a checkpoint is a 3 step process:
//  1. Use DecodeSignedState to obtain the RangeState. It has no root.
//  2. Use LeafCount and PeakLens to find the range the checkpoint describes
//     and take the root from it.
//  3. Set RangeState.Root and call this function.
func VerifySignedState(
	codec Codec, verifier cose.Verifier, signed *cose.Sign1Message, unverifiedState RangeState, external []byte) error {

	if len(unverifiedState.Root) == 0 {
		return ErrStateRootMissing
	}
	var err error
	signed.Payload, err = codec.MarshalCBOR(unverifiedState)
	if err != nil {
		return err
	}
	return signed.Verify(external, verifier)
}
