package dpoints

import (
	"testing"

	"github.com/collisionlabs/cminer/internal/block"
	"github.com/collisionlabs/cminer/internal/hashx"
)

func testBlock(d uint64) *block.Block {
	return &block.Block{
		Version:    1,
		Root:       hashx.Sum256([]byte("payload")),
		ParentID:   hashx.Sum256([]byte("parent")),
		Difficulty: d,
		Timestamp:  1,
	}
}

func TestParamsGrowWithDifficulty(t *testing.T) {
	md8, ml8 := Params(8)
	md16, ml16 := Params(16)
	if md16 <= md8 {
		t.Fatalf("expected max_distinguished to grow with difficulty, got %d then %d", md8, md16)
	}
	if ml16 <= ml8 {
		t.Fatalf("expected max_length to grow with difficulty, got %d then %d", ml8, ml16)
	}
}

func TestParamsMatchSpecFormula(t *testing.T) {
	// d = 12: max_distinguished = ceil(2^8) = 256, max_length = 20*ceil(2^4) = 320.
	md, ml := Params(12)
	if md != 256 {
		t.Fatalf("expected max_distinguished=256 at d=12, got %d", md)
	}
	if ml != 320 {
		t.Fatalf("expected max_length=320 at d=12, got %d", ml)
	}
}

func TestGenerateChainEventuallyDistinguishes(t *testing.T) {
	b := testBlock(10)
	maxDistinguished, maxLength := Params(10)

	found := false
	for start := uint64(0); start < 200 && !found; start++ {
		if triple, ok := GenerateChain(b, start, maxDistinguished, maxLength); ok {
			if triple.Start != start {
				t.Fatalf("expected triple.Start to equal the seed nonce")
			}
			if triple.End >= maxDistinguished {
				t.Fatalf("distinguished endpoint %d should be below threshold %d", triple.End, maxDistinguished)
			}
			if triple.Length < 1 || triple.Length > maxLength {
				t.Fatalf("chain length %d out of bounds [1,%d]", triple.Length, maxLength)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one of the first 200 starting nonces to distinguish at d=10")
	}
}

func TestGenerateChainRespectsMaxLengthCap(t *testing.T) {
	b := testBlock(10)
	// An unreachable threshold forces every walk to exhaust max_length.
	_, ok := GenerateChain(b, 0, 0, 5)
	if ok {
		t.Fatal("expected no chain to distinguish against a zero threshold")
	}
}
