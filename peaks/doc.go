package peaks

/*

# Peak families

A merkle mountain range keeps a fixed number of peak slots, and the peaks in
those slots are trees of different heights. Package peaks describes the set of
heights a range may ever need, and gives every peak a common interface
regardless of its height.

A Family is built once from the branch factor, the peak count and the digest
provider. It precomputes one merkle.Shape per permitted height, so every peak
of a given height shares the same index arithmetic and nothing about a peak's
geometry is decided after construction.

## Permitted heights

For peak count P the family holds exactly P heights:

	P+1, P, ..., 2

The smallest, height 2, is the empty peak every slot starts with. Its
capacity is b leaves. Height 1 trees (a single leaf with no siblings) are
never peaks: a range with a single slot must still accept b leaves before it
is full.

For b=2 and P=5 appending seven values yields the leaf counts

	[1 0 0 0 0]
	[2 0 0 0 0]
	[2 1 0 0 0]
	[4 0 0 0 0]   <- the two height 2 peaks carried into one height 3 peak
	[4 1 0 0 0]
	[4 2 0 0 0]
	[4 2 1 0 0]

## Merging

Two peaks merge when they have the same height and are both full. The merged
peak is one height taller and holds the left peak's leaves followed by the
right peak's leaves. With b > 2 the merged peak is not full, it has 2 of its b
leaf groups occupied and keeps accepting appends.

*/
