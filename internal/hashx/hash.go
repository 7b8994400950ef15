// Package hashx implements the SHA-256 image reduction at the core of
// the collision search: canonical digests and their truncation to the
// low d bits that the proof-of-work condition compares across nonces.
package hashx

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// MaxDifficulty is the largest difficulty truncate_low accepts.
const MaxDifficulty = 64

// Hash is a 32-byte big-endian SHA-256 digest.
type Hash [Size]byte

// Sum256 hashes b and returns the resulting digest.
func Sum256(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// String renders the digest as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the digest bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// FromHex parses a 64-character hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hashx: invalid hex: %w", err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("hashx: expected %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// TruncateLow returns the low d bits of h, read from its final 8 bytes as
// a big-endian uint64 and masked to d bits. d must be in [0, 64]; for
// d == 64 the full 64 bits are returned unmasked, for d == 0 the result
// is always 0.
func (h Hash) TruncateLow(d uint) (uint64, error) {
	if d > MaxDifficulty {
		return 0, fmt.Errorf("hashx: difficulty %d exceeds max %d", d, MaxDifficulty)
	}
	tail := binary.BigEndian.Uint64(h[Size-8:])
	if d == 64 {
		return tail, nil
	}
	if d == 0 {
		return 0, nil
	}
	mask := (uint64(1) << d) - 1
	return tail & mask, nil
}

// MustTruncateLow is TruncateLow for callers that have already validated
// d (e.g. against a block's difficulty field parsed from a trusted
// template). It panics on out-of-range d, which indicates a
// configuration error rather than a runtime condition.
func (h Hash) MustTruncateLow(d uint) uint64 {
	v, err := h.TruncateLow(d)
	if err != nil {
		panic(err)
	}
	return v
}

// TruncateLowBytewise is a byte-oriented equivalent of TruncateLow,
// kept to mirror the original miner's full-byte-then-partial-byte-mask
// comparison (see original_source's has_valid_proof_of_work). It is
// used only to cross-check TruncateLow in tests; TruncateLow is the
// authoritative definition.
func (h Hash) TruncateLowBytewise(d uint) (uint64, error) {
	if d > MaxDifficulty {
		return 0, fmt.Errorf("hashx: difficulty %d exceeds max %d", d, MaxDifficulty)
	}
	fullBytes := d / 8
	remBits := d % 8
	var out uint64
	// Walk from the least-significant byte (index Size-1) upward,
	// assembling the same bits TruncateLow reads off the big-endian tail.
	for i := uint(0); i < fullBytes; i++ {
		b := h[Size-1-i]
		out |= uint64(b) << (8 * i)
	}
	if remBits > 0 {
		mask := byte((1 << remBits) - 1)
		b := h[Size-1-fullBytes] & mask
		out |= uint64(b) << (8 * fullBytes)
	}
	return out, nil
}
