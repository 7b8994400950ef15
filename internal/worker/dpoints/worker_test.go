package dpoints

import (
	"context"
	"testing"
	"time"

	"github.com/collisionlabs/cminer/internal/queue"
)

func TestPoolFindsSolutionWithinRounds(t *testing.T) {
	// Scenario from the design notes: d=12, expect a solution within a
	// bounded number of rounds across several workers.
	q := queue.New(4)
	q.Install(testBlock(12))

	pool := NewPool(8, q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doneCh := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(doneCh)
	}()

	select {
	case solved := <-q.Solutions():
		if !solved.HasValidPoW() {
			t.Fatalf("pool reported an invalid solution: %+v", solved)
		}
	case <-ctx.Done():
		t.Fatal("expected a solution before the context timeout at d=12")
	}

	cancel()
	<-doneCh
}

func TestPoolStopsWhenContextCanceled(t *testing.T) {
	q := queue.New(4)
	// No template installed; workers should sit in AwaitTemplate and
	// return promptly once ctx is canceled.
	pool := NewPool(2, q)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected pool to stop promptly after context cancellation")
	}
}
