package memo

import (
	"math/rand"
	"sort"

	"github.com/collisionlabs/cminer/internal/block"
)

// FillTable draws nAlpha uniform samples from [0, 2^d) and records each
// one's truncated image, then sorts the result by image so the fusion
// and probe phases can find matching rows with a linear scan and a
// binary search respectively.
func FillTable(b *block.Block, d uint64, nAlpha uint64, rng *rand.Rand) []Triple {
	table := make([]Triple, nAlpha)
	for i := range table {
		a := randomNonce(rng, d)
		img, err := b.TruncatedImage(a)
		if err != nil {
			img = 0
		}
		table[i] = Triple{Image: img, Pre1: a}
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Image < table[j].Image })
	return table
}

// randomNonce draws uniformly from [0, 2^d), matching the
// distinguished-points worker's draw so both algorithms sample the
// same space.
func randomNonce(rng *rand.Rand, d uint64) uint64 {
	if d >= 64 {
		return rng.Uint64()
	}
	return rng.Uint64() % (uint64(1) << d)
}
