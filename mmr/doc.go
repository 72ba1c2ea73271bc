package mmr

/*

# Peak slot mountain ranges

A Range is an append only log whose leaves are spread across a fixed number
of peak slots. Each slot holds one complete k-ary tree from a peaks.Family,
and the roots of the slots are themselves the leaves of a small summit tree.
The summit root commits to every leaf in the range.

Appends behave like incrementing a counter whose digits are the peaks. A leaf
goes into the current slot. When that peak is full the next slot is used.
When two neighbouring peaks have the same height and are both full they carry
into one peak a height taller, in the left slot, and the right slot goes back
to empty.

For branch factor 2 and five slots, the leaf counts per slot after each of
seven appends are:

	apple  [1 0 0 0 0]
	banana [2 0 0 0 0]
	cherry [2 1 0 0 0]
	kiwi   [4 0 0 0 0]
	lemon  [4 1 0 0 0]
	lime   [4 2 0 0 0]
	mango  [4 2 1 0 0]

Storage is fixed when the range is created. The total number of leaves a
range can hold is the sum of the leaf capacities of the family's heights, and
an append beyond that fails with ErrMMRFull.

# Proofs

An inclusion proof for a leaf is two proofs spliced together with
merkle.Chain: the leaf's proof within its peak, then the proof of that peak's
root within the summit. Verifying it needs nothing but the leaf input, the
proof and a hasher of the same kind.

	proof, err := r.GenerateProof(3)
	ok := proof.Validate(sha256.New(), []byte("kiwi"))

The range root, r.Root(), is proof.Root.

*/
