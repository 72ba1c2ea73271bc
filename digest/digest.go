package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/fxamacker/cbor/v2"
)

// HashBytes is the fixed width of every digest handled by the trees.
const HashBytes = 32

const (
	// LeafMarker is written ahead of every raw input before it is hashed.
	LeafMarker byte = 0x00
	// GroupMarker is written ahead of every interior sibling group.
	GroupMarker byte = 0x01
)

var (
	ErrBadHashSize   = errors.New("hasher output must be 32 bytes")
	ErrUnknownDigest = errors.New("unknown digest provider")
)

// Digest is a fixed width hash value. Digests compare by value.
type Digest [HashBytes]byte

// Zero is the all zero digest. It is the default group prefix.
var Zero Digest

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether every byte of d is zero.
func (d Digest) IsZero() bool { return d == Zero }

// FromBytes copies b into a Digest. b must be exactly HashBytes long.
func FromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != HashBytes {
		return d, ErrBadHashSize
	}
	copy(d[:], b)
	return d, nil
}

// UnmarshalCBOR decodes a CBOR byte string of exactly HashBytes. Without it
// a short string would be zero padded and a long one truncated.
func (d *Digest) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	got, err := FromBytes(b)
	if err != nil {
		return fmt.Errorf("%w: got %d bytes", err, len(b))
	}
	*d = got
	return nil
}

// CheckHasher rejects hashers whose output is not HashBytes wide.
func CheckHasher(hasher hash.Hash) error {
	if hasher == nil || hasher.Size() != HashBytes {
		return ErrBadHashSize
	}
	return nil
}

// HashLeaf computes:
//
//	H( 0x00 || input )
//
// ** the hasher is reset **
func HashLeaf(hasher hash.Hash, input []byte) Digest {
	hasher.Reset()
	_, _ = hasher.Write([]byte{LeafMarker})
	_, _ = hasher.Write(input)
	return sum(hasher)
}

// Padding is the leaf digest of the empty input. Unused leaf slots hold it.
func Padding(hasher hash.Hash) Digest {
	return HashLeaf(hasher, nil)
}

// HashGroup computes:
//
//	H( 0x01 || prefix[32] || group[0] || ... || group[b-1] )
//
// ** the hasher is reset **
func HashGroup(hasher hash.Hash, prefix Digest, group []Digest) Digest {
	hasher.Reset()
	_, _ = hasher.Write([]byte{GroupMarker})
	_, _ = hasher.Write(prefix[:])
	for i := range group {
		_, _ = hasher.Write(group[i][:])
	}
	return sum(hasher)
}

// HashGroupAt is HashGroup with group[offset] substituted by value. group is
// not modified.
func HashGroupAt(hasher hash.Hash, prefix Digest, group []Digest, offset int, value Digest) Digest {
	hasher.Reset()
	_, _ = hasher.Write([]byte{GroupMarker})
	_, _ = hasher.Write(prefix[:])
	for i := range group {
		if i == offset {
			_, _ = hasher.Write(value[:])
			continue
		}
		_, _ = hasher.Write(group[i][:])
	}
	return sum(hasher)
}

func sum(hasher hash.Hash) Digest {
	var out Digest
	hasher.Sum(out[:0])
	return out
}
