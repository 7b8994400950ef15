// Package dpoints implements the low-memory distinguished-points worker:
// Pollard-rho style chains of hash iterations that join at a shared
// "distinguished" endpoint, resolved by a backward chain-walk rather than
// by storing every step. It trades the memoization worker's large table
// for O(max_length) work per chain at the cost of needing several chains
// to land on the same endpoint before a collision can be recovered.
package dpoints

import (
	"math"

	"github.com/collisionlabs/cminer/internal/block"
)

// ChainTriple is the record a worker emits once a chain distinguishes:
// the nonce it started from, the distinguished point it ended at, and
// how many hash steps the walk took.
type ChainTriple struct {
	Start  uint64
	End    uint64
	Length int
}

// Params derives the distinguished-point threshold and chain-length cap
// for difficulty d, per the generation rule: a point is distinguished
// with probability ~2^(-d/3), and chains are capped well above their
// expected length to bound worst-case work.
func Params(d uint64) (maxDistinguished uint64, maxLength int) {
	maxDistinguished = uint64(math.Ceil(math.Pow(2, 2*float64(d)/3)))
	base := uint64(math.Ceil(math.Pow(2, float64(d)/3)))
	maxLength = int(20 * base)
	return maxDistinguished, maxLength
}

// GenerateChain walks nonces forward from start, truncating each step's
// hash to d bits, until it lands below maxDistinguished or exhausts
// maxLength steps. It reports ok=false when the walk ran out of length
// without distinguishing, per spec step 3 ("otherwise yield empty").
func GenerateChain(b *block.Block, start uint64, maxDistinguished uint64, maxLength int) (ChainTriple, bool) {
	point := start
	length := 0
	for {
		img, err := b.TruncatedImage(point)
		if err != nil {
			return ChainTriple{}, false
		}
		point = img
		length++
		if point < maxDistinguished {
			return ChainTriple{Start: start, End: point, Length: length}, true
		}
		if length >= maxLength {
			return ChainTriple{}, false
		}
	}
}
