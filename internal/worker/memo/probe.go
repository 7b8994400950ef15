package memo

import (
	"math/rand"
	"sort"

	"github.com/collisionlabs/cminer/internal/block"
)

// Probe draws up to nBeta fresh nonces and binary-searches the
// image-sorted table for a match, completing a 3-way collision if a
// table row already holds two distinct preimages and the draw supplies
// a third. preempted is checked before every single draw, since the
// probe phase is the one place the spec requires a preemption check at
// every iteration rather than only at round boundaries.
func Probe(b *block.Block, table []Triple, d uint64, nBeta uint64, rng *rand.Rand, preempted func() bool) (block.Nonces, bool) {
	for i := uint64(0); i < nBeta; i++ {
		if preempted() {
			return block.Nonces{}, false
		}

		a := randomNonce(rng, d)
		img, err := b.TruncatedImage(a)
		if err != nil {
			continue
		}

		j := sort.Search(len(table), func(k int) bool { return table[k].Image >= img })
		if j == len(table) || table[j].Image != img {
			continue
		}
		if table[j].Pre1 == a {
			continue
		}

		switch {
		case table[j].Pre2 == nil:
			v := a
			table[j].Pre2 = &v
		case *table[j].Pre2 != a:
			return block.Nonces{table[j].Pre1, *table[j].Pre2, a}, true
		}
	}
	return block.Nonces{}, false
}
