package memo

import "testing"

func TestFuseFindsThirdMatchingPreimage(t *testing.T) {
	table := []Triple{
		{Image: 5, Pre1: 100},
		{Image: 5, Pre1: 200},
		{Image: 5, Pre1: 300},
		{Image: 9, Pre1: 1},
	}
	nonces, ok := Fuse(table)
	if !ok {
		t.Fatal("expected a run of 3 distinct preimages sharing an image to fuse into a solution")
	}
	seen := map[uint64]bool{nonces[0]: true, nonces[1]: true, nonces[2]: true}
	for _, want := range []uint64{100, 200, 300} {
		if !seen[want] {
			t.Fatalf("expected solution to include preimage %d, got %v", want, nonces)
		}
	}
}

func TestFuseLeavesSinglePairUnresolved(t *testing.T) {
	table := []Triple{
		{Image: 5, Pre1: 100},
		{Image: 5, Pre1: 200},
		{Image: 9, Pre1: 1},
	}
	_, ok := Fuse(table)
	if ok {
		t.Fatal("two preimages sharing an image is not yet a 3-way collision")
	}
	if table[0].Pre2 == nil || *table[0].Pre2 != 200 {
		t.Fatal("expected the pairing to be recorded in Pre2 for the probe phase")
	}
}

func TestFuseSkipsIdenticalPreimageDuplicates(t *testing.T) {
	table := []Triple{
		{Image: 5, Pre1: 100},
		{Image: 5, Pre1: 100},
	}
	if _, ok := Fuse(table); ok {
		t.Fatal("two rows with the identical preimage must never be treated as a collision")
	}
}

func TestFuseHandlesTrailingRunWithoutIndexingPastEnd(t *testing.T) {
	table := []Triple{
		{Image: 1, Pre1: 1},
		{Image: 2, Pre1: 2},
		{Image: 2, Pre1: 3},
	}
	// Must not panic even though the last run touches len(table)-1.
	_, _ = Fuse(table)
}
