// Package block implements the miner's block header model: canonical
// byte serialization for hashing, the three-way proof-of-work check, and
// JSON encoding that matches the node's /next and /add wire format.
package block

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/collisionlabs/cminer/internal/hashx"
)

// MaxDifficulty is the largest difficulty the miner will accept, either
// from a template or from a CLI override.
const MaxDifficulty = hashx.MaxDifficulty

// Nonces is the fixed-size triple of 64-bit nonces a solved block carries.
type Nonces [3]uint64

// Block is a block header. Every field is immutable after construction
// except Nonces, which workers and the coordinator fill in as candidate
// solutions are tried and verified.
type Block struct {
	Version    uint8
	Root       hashx.Hash
	ParentID   hashx.Hash
	Difficulty uint64
	Timestamp  uint64 // nanoseconds since epoch
	Nonces     Nonces
}

// canonicalPrefix writes the part of the canonical encoding shared by
// both the single-nonce and explorer forms: parent_id || root ||
// be64(difficulty) || be64(timestamp).
func (b *Block) canonicalPrefix() []byte {
	buf := make([]byte, 0, hashx.Size*2+8+8)
	buf = append(buf, b.ParentID[:]...)
	buf = append(buf, b.Root[:]...)
	buf = binary.BigEndian.AppendUint64(buf, b.Difficulty)
	buf = binary.BigEndian.AppendUint64(buf, b.Timestamp)
	return buf
}

// HashWithNonce computes the canonical single-nonce digest used for
// mining: parent_id || root || be64(difficulty) || be64(timestamp) ||
// be64(nonce) || [version].
func (b *Block) HashWithNonce(nonce uint64) hashx.Hash {
	buf := b.canonicalPrefix()
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	buf = append(buf, b.Version)
	return hashx.Sum256(buf)
}

// ExplorerHash computes the canonical triple-nonce digest used to
// identify the block (and as the parent_id of the next block).
func (b *Block) ExplorerHash() hashx.Hash {
	buf := b.canonicalPrefix()
	for _, n := range b.Nonces {
		buf = binary.BigEndian.AppendUint64(buf, n)
	}
	buf = append(buf, b.Version)
	return hashx.Sum256(buf)
}

// TruncatedImage returns truncate_low(HashWithNonce(nonce), d) for this
// block's configured difficulty.
func (b *Block) TruncatedImage(nonce uint64) (uint64, error) {
	h := b.HashWithNonce(nonce)
	return h.TruncateLow(uint(b.Difficulty))
}

// HasValidPoW reports whether the block's three nonces are pairwise
// distinct and produce identical truncated images at the block's
// difficulty. Returns false (never errors) for a malformed difficulty,
// since that can only originate from a worker bug and must never be
// mistaken for a found solution.
func (b *Block) HasValidPoW() bool {
	if b.Nonces[0] == b.Nonces[1] || b.Nonces[0] == b.Nonces[2] || b.Nonces[1] == b.Nonces[2] {
		return false
	}
	if b.Difficulty > MaxDifficulty {
		return false
	}
	h0, err := b.TruncatedImage(b.Nonces[0])
	if err != nil {
		return false
	}
	h1, err := b.TruncatedImage(b.Nonces[1])
	if err != nil {
		return false
	}
	h2, err := b.TruncatedImage(b.Nonces[2])
	if err != nil {
		return false
	}
	return h0 == h1 && h1 == h2
}

// NewFromTemplate builds the working block the coordinator mines on top
// of a fetched template: root is the SHA-256 of payload, timestamp is
// now (plus grace to tolerate clock skew against the node), parent_id is
// the template's own parent_id, nonces start at zero.
func NewFromTemplate(tmpl Template, payload string, grace time.Duration) (*Block, error) {
	parentID, err := hashx.FromHex(tmpl.ParentID)
	if err != nil {
		return nil, fmt.Errorf("block: invalid parentid in template: %w", err)
	}
	return &Block{
		Version:    tmpl.Version,
		Root:       hashx.Sum256([]byte(payload)),
		ParentID:   parentID,
		Difficulty: tmpl.Difficulty,
		Timestamp:  uint64(time.Now().Add(grace).UnixNano()),
	}, nil
}
