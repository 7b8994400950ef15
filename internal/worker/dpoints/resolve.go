package dpoints

import "github.com/collisionlabs/cminer/internal/block"

// Aggregator collects ChainTriples by their distinguished endpoint,
// mirroring the shared reducer the spec describes: "shards triples by
// end mod N to a single reducer thread per shard." A single in-process
// Aggregator plays the role of every shard's reducer, since a solo
// miner's workers all run in one process.
type Aggregator struct {
	byEnd map[uint64][]ChainTriple
}

// NewAggregator creates an empty aggregator for one round.
func NewAggregator() *Aggregator {
	return &Aggregator{byEnd: make(map[uint64][]ChainTriple)}
}

// Add records a chain's result.
func (a *Aggregator) Add(t ChainTriple) {
	a.byEnd[t.End] = append(a.byEnd[t.End], t)
}

// Groups returns every endpoint bucket holding at least 3 chains, the
// minimum needed to witness a 3-way collision.
func (a *Aggregator) Groups() [][]ChainTriple {
	var groups [][]ChainTriple
	for _, triples := range a.byEnd {
		if len(triples) >= 3 {
			groups = append(groups, triples)
		}
	}
	return groups
}

// ResolveGroup walks a group of chains sharing a distinguished endpoint
// backward from their respective starts, looking for the round at which
// at least three chains sit exactly one hash step from the shared
// endpoint while still holding pairwise distinct values — the witness
// of a genuine 3-way collision, since all three then hash to the same
// image by construction of the group. Ranges are treated inclusively,
// per the fix to the chain-walk's off-by-one behavior: k runs from
// maxLength down through 0, and a chain qualifies to advance in round k
// whenever its recorded length is >= k.
func ResolveGroup(b *block.Block, triples []ChainTriple, maxLength int) (block.Nonces, bool) {
	if len(triples) < 3 {
		return block.Nonces{}, false
	}
	groupEnd := triples[0].End

	cur := make([]uint64, len(triples))
	for i, t := range triples {
		cur[i] = t.Start
	}

	for k := maxLength; k >= 0; k-- {
		for i, t := range triples {
			if t.Length >= k {
				img, err := b.TruncatedImage(cur[i])
				if err != nil {
					return block.Nonces{}, false
				}
				cur[i] = img
			}
		}

		if nonces, ok := findTripleCollision(b, groupEnd, cur); ok {
			return nonces, true
		}
	}
	return block.Nonces{}, false
}

// findTripleCollision looks for three pairwise-distinct values in cur
// whose next hash step lands on groupEnd — the shared distinguished
// point the group was aggregated on. Those three values are the
// "distinct end predecessors" the chain-walk is searching for: genuine
// preimages of a common image, not just three chains that have already
// merged onto an identical path.
func findTripleCollision(b *block.Block, groupEnd uint64, cur []uint64) (block.Nonces, bool) {
	seen := make(map[uint64]struct{})
	var distinct []uint64
	for _, v := range cur {
		if _, dup := seen[v]; dup {
			continue
		}
		img, err := b.TruncatedImage(v)
		if err != nil || img != groupEnd {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
		if len(distinct) == 3 {
			return block.Nonces{distinct[0], distinct[1], distinct[2]}, true
		}
	}
	return block.Nonces{}, false
}
