// Package memo implements the memory-intensive α/β collision worker: a
// large table of sampled images is filled once per round, fused
// internally for same-table collisions, then probed against fresh
// draws until a 3-way collision surfaces or the template changes.
package memo

import "math"

// Triple is one row of the fill table: an image and up to two known
// preimages that hash to it. A third matching preimage, found either
// during fusion or during probing, completes a solution.
type Triple struct {
	Image uint64
	Pre1  uint64
	Pre2  *uint64
}

// Params derives the table size N_α and probe budget N_β for
// difficulty d given the tuning constants alpha and beta.
func Params(d uint64, alpha, beta float64) (nAlpha, nBeta uint64) {
	nAlpha = uint64(math.Floor(math.Pow(2, alpha*float64(d))))
	nBeta = uint64(math.Floor(math.Pow(2, beta*float64(d))))
	if nAlpha == 0 {
		nAlpha = 1
	}
	if nBeta == 0 {
		nBeta = 1
	}
	return nAlpha, nBeta
}

// Feasible reports whether alpha and beta satisfy the constraint
// beta >= 1 - alpha/2 required for the probe phase to have a
// meaningful chance of completing a collision.
func Feasible(alpha, beta float64) bool {
	return beta >= 1-alpha/2
}
