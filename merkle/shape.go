package merkle

import "math/bits"

// Shape is the closed form index arithmetic for a complete k-ary tree stored
// as a flat array. Layer 0 holds the leaves at [0, BaseLayerSize), each later
// layer follows immediately, and the final slot is the root.
//
// For b=2, h=3 the storage indices are:
//
//	2            6
//	           /   \
//	1         4     5
//	         / \   / \
//	0       0   1 2   3
//
// And for b=4, h=3 layer 0 is [0,16), layer 1 is [16,20) and the root is 20.
//
// A Shape is immutable and safe to share between trees.
type Shape struct {
	branchFactor uint64
	height       uint64
	log2b        uint64

	// layerStart[i] is the storage index of the first slot in layer i. The
	// extra trailing entry is the total size.
	layerStart []uint64
}

// IsPow2 determines if size is a perfect power of 2.
func IsPow2(size uint64) bool {
	return size != 0 && size&(size-1) == 0
}

// Log2Uint64 efficiently computes log base 2 of num
func Log2Uint64(num uint64) uint64 {
	return uint64(bits.Len64(num) - 1)
}

// NewShape validates the branch factor and height and precomputes the layer
// offsets.
func NewShape(branchFactor, height uint64) (Shape, error) {
	if branchFactor < 2 || !IsPow2(branchFactor) {
		return Shape{}, ErrBadBranchFactor
	}
	log2b := Log2Uint64(branchFactor)
	// b^h must be representable, and leave room for the sum of the layers.
	if height == 0 || log2b*height > 62 {
		return Shape{}, ErrBadHeight
	}

	s := Shape{
		branchFactor: branchFactor,
		height:       height,
		log2b:        log2b,
		layerStart:   make([]uint64, height+1),
	}
	for i := uint64(0); i <= height; i++ {
		s.layerStart[i] = LayerStart(branchFactor, height, i)
	}
	return s, nil
}

// BaseLayerSize returns b^(h-1), the leaf capacity of a tree.
func BaseLayerSize(branchFactor, height uint64) uint64 {
	return 1 << (Log2Uint64(branchFactor) * (height - 1))
}

// TotalSize returns (b^h - 1) / (b - 1), the number of digest slots across
// every layer.
func TotalSize(branchFactor, height uint64) uint64 {
	return ((1 << (Log2Uint64(branchFactor) * height)) - 1) / (branchFactor - 1)
}

// LayerSize returns b^(h-1-i), the slot count of layer i.
func LayerSize(branchFactor, height, i uint64) uint64 {
	return 1 << (Log2Uint64(branchFactor) * (height - 1 - i))
}

// LayerStart returns (b^h - b^(h-i)) / (b - 1), the storage index of the
// first slot in layer i. LayerStart(b, h, h) is TotalSize(b, h).
func LayerStart(branchFactor, height, i uint64) uint64 {
	log2b := Log2Uint64(branchFactor)
	return ((1 << (log2b * height)) - (1 << (log2b * (height - i)))) / (branchFactor - 1)
}

// MinHeightFor returns the smallest height whose leaf capacity is >= leaves.
func MinHeightFor(branchFactor, leaves uint64) uint64 {
	h := uint64(1)
	for BaseLayerSize(branchFactor, h) < leaves {
		h++
	}
	return h
}

func (s Shape) BranchFactor() uint64  { return s.branchFactor }
func (s Shape) Height() uint64        { return s.height }
func (s Shape) BaseLayerSize() uint64 { return s.layerStart[1] }
func (s Shape) TotalSize() uint64     { return s.layerStart[s.height] }
func (s Shape) RootIndex() uint64     { return s.layerStart[s.height] - 1 }

// LayerStart returns the storage index of the first slot in layer i.
func (s Shape) LayerStart(i uint64) uint64 { return s.layerStart[i] }

// LayerSize returns the slot count of layer i.
func (s Shape) LayerSize(i uint64) uint64 { return s.layerStart[i+1] - s.layerStart[i] }

// GroupStart returns the position, within its layer, of the first member of
// the sibling group containing position p.
func (s Shape) GroupStart(p uint64) uint64 { return p &^ (s.branchFactor - 1) }

// Offset returns the position of p within its sibling group, p mod b.
func (s Shape) Offset(p uint64) uint64 { return p & (s.branchFactor - 1) }

// Parent returns the position, in the next layer up, of the parent of p.
func (s Shape) Parent(p uint64) uint64 { return p >> s.log2b }

// ProofLen is the number of proof items for any leaf, one per layer below the root.
func (s Shape) ProofLen() uint64 { return s.height - 1 }

// Equal reports whether two shapes describe the same tree geometry.
func (s Shape) Equal(o Shape) bool {
	return s.branchFactor == o.branchFactor && s.height == o.height
}
