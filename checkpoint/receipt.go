package checkpoint

import (
	"crypto/rand"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/merkle"
	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// Receipts are COSE_Sign1 messages whose detached payload is the range root.
// The inclusion proofs travel in the unprotected header, so a verifier
// recomputes the root from its candidate and the proof, and the signature
// only verifies if that root is the one that was signed.

const VDSCoseReceiptProofsTag int64 = 396

type InclusionProof struct {
	Index uint64       `cbor:"1,keyasint"`
	Proof merkle.Proof `cbor:"2,keyasint"`
}

type VerifiableProofs struct {
	InclusionProofs []InclusionProof `cbor:"-1,keyasint,omitempty"`
}

// VerifiableProofsHeader provides for encoding, and deferred decoding, of
// the receipt proofs in the unprotected header.
type VerifiableProofsHeader struct {
	VerifiableProofs VerifiableProofs `cbor:"396,keyasint"`
}

type proofGenerator interface {
	GenerateProof(index uint64) (merkle.Proof, error)
}

type ReceiptBuilder struct {
	log    logger.Logger
	signer Signer
}

func NewReceiptBuilder(log logger.Logger, signer Signer) ReceiptBuilder {
	return ReceiptBuilder{log: log, signer: signer}
}

// BuildReceipt signs the root of r and attaches an inclusion proof for each
// of indices. All the proofs must reach the same root, so r must not be
// appended to while the receipt is built.
func (b ReceiptBuilder) BuildReceipt(
	coseSigner cose.Signer, keyID string, subject string, r proofGenerator, indices ...uint64,
) ([]byte, error) {

	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no indices", ErrReceiptMalformed)
	}

	proofs := make([]InclusionProof, 0, len(indices))
	for _, index := range indices {
		proof, err := r.GenerateProof(index)
		if err != nil {
			b.log.Infof("BuildReceipt: %d: %v", index, err)
			return nil, err
		}
		if len(proofs) > 0 && proof.Root != proofs[0].Proof.Root {
			return nil, fmt.Errorf("%w: leaf %d", ErrRootChanged, index)
		}
		proofs = append(proofs, InclusionProof{Index: index, Proof: proof})
	}
	root := proofs[0].Proof.Root

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: b.signer.protectedHeader(coseSigner, keyID, subject),
		},
		Payload: root[:],
	}
	if err := msg.Sign(rand.Reader, nil, coseSigner); err != nil {
		return nil, err
	}

	msg.Payload = nil
	msg.Headers.Unprotected = cose.UnprotectedHeader{
		VDSCoseReceiptProofsTag: VerifiableProofs{InclusionProofs: proofs},
	}
	b.log.Debugf("BuildReceipt: %s root %s proofs %d", subject, root, len(proofs))
	return msg.MarshalCBOR()
}

// DecodeReceipt decodes a receipt and its proofs without verifying either.
func DecodeReceipt(data []byte) (*cose.Sign1Message, VerifiableProofs, error) {
	var receipt cose.Sign1Message
	if err := receipt.UnmarshalCBOR(data); err != nil {
		return nil, VerifiableProofs{}, err
	}
	var header VerifiableProofsHeader
	if err := cbor.Unmarshal(receipt.Headers.RawUnprotected, &header); err != nil {
		return nil, VerifiableProofs{}, fmt.Errorf("%w: %v", ErrReceiptMalformed, err)
	}
	if len(header.VerifiableProofs.InclusionProofs) == 0 {
		return nil, VerifiableProofs{}, fmt.Errorf("%w: inclusion proofs not present", ErrReceiptMalformed)
	}
	return &receipt, header.VerifiableProofs, nil
}

// VerifyReceipt checks that each candidate input is included under the root
// the receipt was signed over, and returns that root. candidates[i] is
// checked against the i'th proof; fewer candidates than proofs is permitted.
func VerifyReceipt(
	verifier cose.Verifier, newHasher digest.Factory, data []byte, candidates ...[]byte,
) (digest.Digest, error) {

	if len(candidates) == 0 {
		return digest.Digest{}, ErrNoCandidates
	}
	if err := newHasher.Check(); err != nil {
		return digest.Digest{}, err
	}
	receipt, proofs, err := DecodeReceipt(data)
	if err != nil {
		return digest.Digest{}, err
	}
	if len(candidates) > len(proofs.InclusionProofs) {
		return digest.Digest{}, fmt.Errorf(
			"%w: %d candidates, %d proofs", ErrTooManyCandidates, len(candidates), len(proofs.InclusionProofs))
	}

	hasher := newHasher()
	var root digest.Digest
	for i, candidate := range candidates {
		proof := proofs.InclusionProofs[i]
		proven, ok := proof.Proof.IncludedRoot(hasher, digest.HashLeaf(hasher, candidate))
		if !ok {
			return digest.Digest{}, fmt.Errorf(
				"%w: leaf %d, candidate %d: malformed proof", ErrReceiptVerifyFailed, proof.Index, i)
		}
		if i == 0 {
			root = proven
			continue
		}
		if proven != root {
			return digest.Digest{}, fmt.Errorf(
				"%w: leaf %d, candidate %d: root differs", ErrReceiptVerifyFailed, proof.Index, i)
		}
	}

	receipt.Payload = root[:]
	if err := receipt.Verify(nil, verifier); err != nil {
		return digest.Digest{}, fmt.Errorf("%w: %v", ErrReceiptVerifyFailed, err)
	}
	return root, nil
}
