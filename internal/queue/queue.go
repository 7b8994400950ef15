// Package queue implements the shared state workers and the coordinator
// communicate through: a lock-free, atomically-swappable template
// snapshot and an MPSC channel of locally-mined solutions. This
// replaces the single reader-writer-locked Queue described narratively
// in spec.md's data model with the split spec.md's own design notes
// recommend — workers never block a coordinator install, and the
// coordinator never blocks on worker output.
package queue

import (
	"sync/atomic"
	"time"

	"github.com/collisionlabs/cminer/internal/block"
)

// Snapshot is a read-only view of the currently installed template plus
// the instant it was installed. Workers compare their own start time
// against InstalledAt to detect preemption.
type Snapshot struct {
	Block       *block.Block
	InstalledAt time.Time
}

// Queue holds exactly one live template at a time and an append-only
// sink of solved blocks.
type Queue struct {
	snapshot  atomic.Pointer[Snapshot]
	solutions chan *block.Block
}

// New creates a Queue whose solution sink can hold solutionBuf pending
// entries before PushSolution starts dropping (the coordinator is
// expected to drain faster than workers can possibly find solutions, so
// this is a generous safety margin, not a steady-state limit).
func New(solutionBuf int) *Queue {
	return &Queue{
		solutions: make(chan *block.Block, solutionBuf),
	}
}

// Install publishes a new template as the current one, stamping
// most_recent with the install time. Readers that already captured an
// older Snapshot keep working against their own copy; the next time
// they call Current() (or compare their start time to InstalledAt) they
// observe the change.
func (q *Queue) Install(b *block.Block) {
	q.snapshot.Store(&Snapshot{Block: b, InstalledAt: time.Now()})
}

// Current returns the currently installed snapshot, or nil if no
// template has been installed yet.
func (q *Queue) Current() *Snapshot {
	return q.snapshot.Load()
}

// Preempted reports whether the queue's template has been replaced
// since the given start time was captured.
func (q *Queue) Preempted(start time.Time) bool {
	snap := q.snapshot.Load()
	return snap == nil || snap.InstalledAt.After(start)
}

// PushSolution enqueues a locally-found candidate solution. It never
// blocks: if the sink is full (which only happens if the coordinator has
// stalled) the solution is dropped and false is returned so the caller
// can log it.
func (q *Queue) PushSolution(b *block.Block) bool {
	select {
	case q.solutions <- b:
		return true
	default:
		return false
	}
}

// Solutions returns the receive side of the solution sink for the
// coordinator's drain loop.
func (q *Queue) Solutions() <-chan *block.Block {
	return q.solutions
}
