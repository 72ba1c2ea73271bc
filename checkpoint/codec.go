package checkpoint

import (
	"github.com/forestrie/go-peakmerkle/merkle"
	"github.com/fxamacker/cbor/v2"
)

// Codec encodes checkpoint payloads and proofs with deterministic CBOR, so a
// decoded and re-encoded state is byte identical to the one that was signed.
type Codec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func NewCodec() (Codec, error) {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return Codec{}, err
	}
	// Reject anything the encoder could not have produced. Unsigned ints
	// decode to uint64.
	decMode, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		return Codec{}, err
	}
	return Codec{encMode: encMode, decMode: decMode}, nil
}

func (c Codec) MarshalCBOR(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c Codec) UnmarshalInto(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}

// EncodeProof returns the CBOR encoding of a proof.
func (c Codec) EncodeProof(proof merkle.Proof) ([]byte, error) {
	return c.MarshalCBOR(proof)
}

// DecodeProof decodes a proof, requiring the root and every sibling and
// prefix to be exactly digest.HashBytes long.
func (c Codec) DecodeProof(data []byte) (merkle.Proof, error) {
	var proof merkle.Proof
	if err := c.UnmarshalInto(data, &proof); err != nil {
		return merkle.Proof{}, err
	}
	return proof, nil
}
