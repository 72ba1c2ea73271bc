package merkle

import (
	"fmt"
	"hash"

	"github.com/forestrie/go-peakmerkle/digest"
)

// ProofItem is one layer of an inclusion proof: the whole sibling group and
// the position of the proven path within it. The group member at Offset is
// replaced by the running hash during verification.
type ProofItem struct {
	Offset   uint64          `cbor:"1,keyasint"`
	Siblings []digest.Digest `cbor:"2,keyasint"`
	// Prefix is the value the group was hashed under. It is zero except for
	// trees bound to a previous root.
	Prefix digest.Digest `cbor:"3,keyasint"`
}

// Proof is an inclusion proof. Items are ordered leaf -> root. A chained
// proof simply has the items of each level one after the other.
type Proof struct {
	Items []ProofItem   `cbor:"1,keyasint"`
	Root  digest.Digest `cbor:"2,keyasint"`
}

// Len is the number of items the proof records.
func (p Proof) Len() int { return len(p.Items) }

// IncludedRoot calculates the root reached by applying the proof items to
// leaf. It returns false if an item is malformed: an empty or non power of two
// group, or an offset outside the group.
func (p Proof) IncludedRoot(hasher hash.Hash, leaf digest.Digest) (digest.Digest, bool) {
	root := leaf
	for _, it := range p.Items {
		n := uint64(len(it.Siblings))
		if n < 2 || !IsPow2(n) || it.Offset >= n {
			return digest.Digest{}, false
		}
		root = digest.HashGroupAt(hasher, it.Prefix, it.Siblings, int(it.Offset), root)
	}
	return root, true
}

// Validate returns true if input, hashed as a leaf, reproduces the recorded
// root. Validation has no side effects on the proof and never errors: a
// malformed proof is simply false.
func (p Proof) Validate(hasher hash.Hash, input []byte) bool {
	if digest.CheckHasher(hasher) != nil {
		return false
	}
	return p.ValidateLeaf(hasher, digest.HashLeaf(hasher, input))
}

// ValidateLeaf is Validate for a value that is already a leaf digest.
func (p Proof) ValidateLeaf(hasher hash.Hash, leaf digest.Digest) bool {
	if digest.CheckHasher(hasher) != nil {
		return false
	}
	root, ok := p.IncludedRoot(hasher, leaf)
	return ok && root == p.Root
}

// Chain splices lower, a proof in some tree, onto upper, a proof in a tree
// that holds lower's root as a leaf. The result proves the lower leaf against
// upper's root.
//
// lower.Root must be exactly the leaf upper proves, otherwise ErrProofChain is
// returned.
func Chain(hasher hash.Hash, lower, upper Proof) (Proof, error) {
	if !upper.ValidateLeaf(hasher, lower.Root) {
		return Proof{}, fmt.Errorf("%w: %s", ErrProofChain, lower.Root)
	}
	chained := Proof{
		Items: make([]ProofItem, 0, len(lower.Items)+len(upper.Items)),
		Root:  upper.Root,
	}
	chained.Items = append(chained.Items, lower.Items...)
	chained.Items = append(chained.Items, upper.Items...)
	return chained, nil
}
