package merkle

import (
	"fmt"
	"hash"

	"github.com/forestrie/go-peakmerkle/digest"
)

// Config selects the geometry of a tree.
type Config struct {
	BranchFactor uint64
	Height       uint64
}

func (c Config) Shape() (Shape, error) { return NewShape(c.BranchFactor, c.Height) }

// Tree is a complete, fixed capacity k-ary merkle tree held in one flat array
// of digests. See Shape for the layout.
//
// The storage is allocated once, when the tree is created, and is never
// resized. Leaf slots that have not been supplied hold the padding digest, so
// the tree is always complete and always has a root.
//
// A Tree is not safe for concurrent mutation. The read methods (Root, Leaf,
// Leaves, GenerateProof) do not touch the hasher and may run concurrently
// with each other.
type Tree struct {
	shape     Shape
	prefix    digest.Digest
	newHasher digest.Factory
	hasher    hash.Hash

	nodes []digest.Digest
	// count is the append cursor, the number of leaves occupied from the left
	count uint64
}

// New creates a tree from raw inputs. Each input becomes the leaf
// digest.HashLeaf(input), in order from leaf 0.
func New(shape Shape, newHasher digest.Factory, inputs [][]byte) (*Tree, error) {
	t, err := newEmpty(shape, newHasher, uint64(len(inputs)))
	if err != nil {
		return nil, err
	}
	for i, input := range inputs {
		t.nodes[i] = digest.HashLeaf(t.hasher, input)
	}
	t.count = uint64(len(inputs))
	t.fill()
	return t, nil
}

// NewFromLeaves creates a tree from digests that are already leaf hashes.
func NewFromLeaves(shape Shape, newHasher digest.Factory, leaves []digest.Digest) (*Tree, error) {
	t, err := newEmpty(shape, newHasher, uint64(len(leaves)))
	if err != nil {
		return nil, err
	}
	copy(t.nodes, leaves)
	t.count = uint64(len(leaves))
	t.fill()
	return t, nil
}

// NewWithPrefix is NewFromLeaves for a tree whose interior groups are hashed
// under a non zero prefix. This is used to bind a tree to a previously
// committed root.
//
// Ranges in this module always hash under the zero prefix and never call
// it. It is provided for callers that chain trees outside of a range, one
// tree's root becoming the next tree's prefix. Proofs from such a tree carry
// the prefix in each ProofItem and verify with Proof.Validate as usual.
func NewWithPrefix(shape Shape, newHasher digest.Factory, prefix digest.Digest, leaves []digest.Digest) (*Tree, error) {
	t, err := newEmpty(shape, newHasher, uint64(len(leaves)))
	if err != nil {
		return nil, err
	}
	t.prefix = prefix
	copy(t.nodes, leaves)
	t.count = uint64(len(leaves))
	t.fill()
	return t, nil
}

func newEmpty(shape Shape, newHasher digest.Factory, n uint64) (*Tree, error) {
	if shape.height == 0 {
		return nil, ErrBadHeight
	}
	if err := newHasher.Check(); err != nil {
		return nil, err
	}
	if n > shape.BaseLayerSize() {
		return nil, fmt.Errorf(
			"%w: %d inputs for %d leaves", ErrCapacityExceeded, n, shape.BaseLayerSize())
	}
	t := &Tree{
		shape:     shape,
		newHasher: newHasher,
		hasher:    newHasher(),
		nodes:     make([]digest.Digest, shape.TotalSize()),
	}
	pad := digest.Padding(t.hasher)
	for i := n; i < shape.BaseLayerSize(); i++ {
		t.nodes[i] = pad
	}
	return t, nil
}

// fill computes every interior layer, bottom up, from the leaves.
func (t *Tree) fill() {
	b := t.shape.branchFactor
	for layer := uint64(0); layer+1 < t.shape.height; layer++ {
		start := t.shape.LayerStart(layer)
		next := t.shape.LayerStart(layer + 1)
		size := t.shape.LayerSize(layer)
		for g := uint64(0); g < size; g += b {
			t.nodes[next+(g>>t.shape.log2b)] = digest.HashGroup(
				t.hasher, t.prefix, t.nodes[start+g:start+g+b])
		}
	}
}

// propagate rewrites the path from leaf index to the root.
func (t *Tree) propagate(index uint64) {
	b := t.shape.branchFactor
	p := index
	for layer := uint64(0); layer+1 < t.shape.height; layer++ {
		start := t.shape.LayerStart(layer) + t.shape.GroupStart(p)
		p = t.shape.Parent(p)
		t.nodes[t.shape.LayerStart(layer+1)+p] = digest.HashGroup(
			t.hasher, t.prefix, t.nodes[start:start+b])
	}
}

func (t *Tree) checkIndex(index uint64) error {
	if index >= t.shape.BaseLayerSize() {
		return fmt.Errorf(
			"%w: %d, capacity %d", ErrIndexOutOfRange, index, t.shape.BaseLayerSize())
	}
	return nil
}

// Replace sets leaf index to HashLeaf(input) and rewrites its path to the root.
// The append cursor is not moved.
func (t *Tree) Replace(index uint64, input []byte) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.nodes[index] = digest.HashLeaf(t.hasher, input)
	t.propagate(index)
	return nil
}

// Remove resets leaf index to the padding digest.
func (t *Tree) Remove(index uint64) error {
	return t.Replace(index, nil)
}

// SetLeaf is Replace for a digest that is already a leaf hash.
func (t *Tree) SetLeaf(index uint64, leaf digest.Digest) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.nodes[index] = leaf
	t.propagate(index)
	return nil
}

// Append writes HashLeaf(input) at the append cursor.
func (t *Tree) Append(input []byte) error {
	if t.count == t.shape.BaseLayerSize() {
		return ErrTreeFull
	}
	t.nodes[t.count] = digest.HashLeaf(t.hasher, input)
	t.propagate(t.count)
	t.count++
	return nil
}

// Root returns the digest in the final storage slot.
func (t *Tree) Root() digest.Digest { return t.nodes[t.shape.RootIndex()] }

// Leaf returns the digest at leaf index.
func (t *Tree) Leaf(index uint64) (digest.Digest, error) {
	if err := t.checkIndex(index); err != nil {
		return digest.Digest{}, err
	}
	return t.nodes[index], nil
}

// Leaves returns a copy of the whole base layer, padding included.
func (t *Tree) Leaves() []digest.Digest {
	leaves := make([]digest.Digest, t.shape.BaseLayerSize())
	copy(leaves, t.nodes)
	return leaves
}

// OccupiedLeaves returns a copy of the leaves before the append cursor.
func (t *Tree) OccupiedLeaves() []digest.Digest {
	leaves := make([]digest.Digest, t.count)
	copy(leaves, t.nodes)
	return leaves
}

func (t *Tree) Shape() Shape            { return t.shape }
func (t *Tree) Height() uint64          { return t.shape.height }
func (t *Tree) BranchFactor() uint64    { return t.shape.branchFactor }
func (t *Tree) Capacity() uint64        { return t.shape.BaseLayerSize() }
func (t *Tree) Len() uint64             { return t.count }
func (t *Tree) Full() bool              { return t.count == t.shape.BaseLayerSize() }
func (t *Tree) Empty() bool             { return t.count == 0 }
func (t *Tree) Prefix() digest.Digest   { return t.prefix }
func (t *Tree) Factory() digest.Factory { return t.newHasher }

// Clone duplicates the digest array. The clone gets its own hasher.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		shape:     t.shape,
		prefix:    t.prefix,
		newHasher: t.newHasher,
		hasher:    t.newHasher(),
		nodes:     make([]digest.Digest, len(t.nodes)),
		count:     t.count,
	}
	copy(c.nodes, t.nodes)
	return c
}

// GenerateProof collects, for each layer below the root, the sibling group
// on the path from leaf index and the offset of the path within it.
func (t *Tree) GenerateProof(index uint64) (Proof, error) {
	if err := t.checkIndex(index); err != nil {
		return Proof{}, err
	}

	b := t.shape.branchFactor
	proof := Proof{
		Items: make([]ProofItem, 0, t.shape.ProofLen()),
		Root:  t.Root(),
	}

	p := index
	for layer := uint64(0); layer+1 < t.shape.height; layer++ {
		start := t.shape.LayerStart(layer) + t.shape.GroupStart(p)
		item := ProofItem{
			Offset:   t.shape.Offset(p),
			Siblings: make([]digest.Digest, b),
			Prefix:   t.prefix,
		}
		copy(item.Siblings, t.nodes[start:start+b])
		proof.Items = append(proof.Items, item)
		p = t.shape.Parent(p)
	}
	return proof, nil
}
