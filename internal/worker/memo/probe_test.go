package memo

import (
	"math/rand"
	"testing"
)

func TestProbeStopsImmediatelyWhenPreempted(t *testing.T) {
	b := testBlock(10)
	rng := rand.New(rand.NewSource(3))
	table := FillTable(b, 10, 50, rng)

	calls := 0
	preempted := func() bool { calls++; return true }

	_, ok := Probe(b, table, 10, 100, rng, preempted)
	if ok {
		t.Fatal("expected no solution when preempted before the first draw")
	}
	if calls != 1 {
		t.Fatalf("expected preempted to be checked exactly once before bailing, got %d calls", calls)
	}
}

func TestProbeFindsRealCollisionEventually(t *testing.T) {
	const d = 10
	b := testBlock(d)
	rng := rand.New(rand.NewSource(4))

	never := func() bool { return false }
	found := false
	for attempt := 0; attempt < 50 && !found; attempt++ {
		table := FillTable(b, d, 80, rng)
		if nonces, ok := Probe(b, table, d, 200, rng, never); ok {
			candidate := *b
			candidate.Nonces = nonces
			if !candidate.HasValidPoW() {
				t.Fatalf("probe-found solution failed local verification: %v", nonces)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one of 50 fill+probe attempts at d=10 to find a 3-way collision")
	}
}
