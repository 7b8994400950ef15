package dpoints

import (
	"sync"
	"time"
)

// sharedAggregator is the cross-worker reducer the spec calls for:
// "shards triples by end mod N to a single reducer thread per shard."
// Each shard owns its own lock so workers whose chains land in
// different shards never contend with one another; only a collision
// landing in the same shard as another worker's pays for the lock.
type sharedAggregator struct {
	shards []aggregatorShard

	genMu sync.Mutex
	gen   time.Time
}

type aggregatorShard struct {
	mu    sync.Mutex
	byEnd map[uint64][]ChainTriple
}

func newSharedAggregator(numShards int) *sharedAggregator {
	if numShards < 1 {
		numShards = 1
	}
	s := &sharedAggregator{shards: make([]aggregatorShard, numShards)}
	for i := range s.shards {
		s.shards[i].byEnd = make(map[uint64][]ChainTriple)
	}
	return s
}

// ensureGeneration clears every shard the first time a worker observes
// a new template installation timestamp, so one round's chains never
// leak into the next round's grouping.
func (s *sharedAggregator) ensureGeneration(installedAt time.Time) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen.Equal(installedAt) {
		return
	}
	for i := range s.shards {
		s.shards[i].mu.Lock()
		s.shards[i].byEnd = make(map[uint64][]ChainTriple)
		s.shards[i].mu.Unlock()
	}
	s.gen = installedAt
}

// addAndGroup records a chain's result in its shard and, if that shard
// now holds 3 or more chains sharing the same endpoint, returns a copy
// of that group for resolution.
func (s *sharedAggregator) addAndGroup(t ChainTriple) []ChainTriple {
	shard := &s.shards[t.End%uint64(len(s.shards))]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.byEnd[t.End] = append(shard.byEnd[t.End], t)
	group := shard.byEnd[t.End]
	if len(group) < 3 {
		return nil
	}
	out := make([]ChainTriple, len(group))
	copy(out, group)
	return out
}
