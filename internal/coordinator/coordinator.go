// Package coordinator wires the node client, the solution queue, and a
// pool of workers into the miner's three long-lived loops: template
// refresh, solution draining, and stats reporting. It is the miner's
// analogue of the pool's Master: the loop structure (refresh on a
// ticker, drain a channel, report stats on a separate ticker) is kept
// from there; everything it moves through is rewritten for mining
// instead of share accounting.
package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/collisionlabs/cminer/internal/block"
	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/metrics"
	"github.com/collisionlabs/cminer/internal/notify"
	"github.com/collisionlabs/cminer/internal/queue"
	"github.com/collisionlabs/cminer/internal/rpcnode"
	"github.com/collisionlabs/cminer/internal/util"
	"github.com/collisionlabs/cminer/internal/worker/dpoints"
	"github.com/collisionlabs/cminer/internal/worker/memo"
)

// Pool is implemented by both worker families so the coordinator can
// stay agnostic to which algorithm is configured.
type Pool interface {
	Run(ctx context.Context)
}

// Stats is a snapshot of the coordinator's running state, for the
// admin API and APM.
type Stats struct {
	TemplatesFetched  uint64
	SolutionsFound    uint64
	SolutionsPosted   uint64
	RoundsStarted     uint64
	CurrentDifficulty uint64
	Algorithm         config.Algorithm
	ActiveUpstream    string
	StartedAt         time.Time
}

// Coordinator owns the shared queue and runs the refresh/drain/stats
// loops around it.
type Coordinator struct {
	cfg     *config.Config
	node    *rpcnode.Manager
	queue   *queue.Queue
	notify  *notify.Notifier
	metrics *metrics.Recorder
	payload string

	difficultyOverride *uint64

	templatesFetched  uint64
	solutionsFound    uint64
	solutionsPosted   uint64
	roundsStarted     uint64
	startedAt         time.Time

	mu                sync.RWMutex
	currentDifficulty uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Coordinator. difficultyOverride is nil unless the CLI
// surface (spec.md §6) supplied one.
func New(cfg *config.Config, node *rpcnode.Manager, n *notify.Notifier, m *metrics.Recorder, payload string, difficultyOverride *uint64) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:                cfg,
		node:               node,
		queue:              queue.New(cfg.Mining.SolutionBufferSize),
		notify:             n,
		metrics:            m,
		payload:            payload,
		difficultyOverride: difficultyOverride,
		ctx:                ctx,
		cancel:             cancel,
	}
}

// Start launches the refresh loop, the solution-drain loop, the stats
// loop, and the worker pool matching the configured algorithm.
func (c *Coordinator) Start() error {
	c.startedAt = time.Now()
	util.Infof("coordinator starting with algorithm=%s workers=%d", c.cfg.Mining.Algorithm, c.cfg.Mining.NumWorkers)

	if err := c.refreshTemplate(); err != nil {
		return err
	}

	pool, err := c.buildPool()
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		pool.Run(c.ctx)
	}()

	c.wg.Add(1)
	go c.refreshLoop()

	c.wg.Add(1)
	go c.drainLoop()

	c.wg.Add(1)
	go c.statsLoop()

	if c.cfg.Node.WatchNext {
		watcher := rpcnode.NewWatcher(c.node.Client().URL(), func() {
			if err := c.refreshTemplate(); err != nil {
				util.Warnf("push-triggered refresh failed: %v", err)
			}
		})
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			watcher.Watch(c.ctx)
		}()
	}

	util.Info("coordinator started")
	return nil
}

// Stop cancels every loop and the worker pool, then waits for them to
// exit.
func (c *Coordinator) Stop() {
	util.Info("coordinator stopping")
	c.cancel()
	c.wg.Wait()
	util.Info("coordinator stopped")
}

func (c *Coordinator) buildPool() (Pool, error) {
	switch c.cfg.Mining.Algorithm {
	case config.AlgorithmMemoization:
		snap := c.queue.Current()
		if snap != nil {
			if err := memo.CheckBudget(snap.Block.Difficulty, c.cfg.Mining.Alpha, c.cfg.Mining.MemoryBudgetBytes); err != nil {
				return nil, err
			}
		}
		return memo.NewPool(c.cfg.Mining.NumWorkers, c.queue, c.cfg.Mining.Alpha, c.cfg.Mining.Beta, c.cfg.Mining.MemoryBudgetBytes), nil
	default:
		return dpoints.NewPool(c.cfg.Mining.NumWorkers, c.queue), nil
	}
}

// refreshLoop periodically re-fetches the template, mirroring the
// pool's job-refresh loop.
func (c *Coordinator) refreshLoop() {
	defer c.wg.Done()

	interval := c.cfg.Node.HealthCheckInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.NewTimer(c.cfg.Mining.MaxTimeToAttempt)
	defer deadline.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-deadline.C:
			util.Warnf("max_time_to_attempt (%s) elapsed, forcing a template refresh", c.cfg.Mining.MaxTimeToAttempt)
			if err := c.refreshTemplate(); err != nil {
				util.Warnf("template refresh failed: %v", err)
			}
			deadline.Reset(c.cfg.Mining.MaxTimeToAttempt)
		case <-ticker.C:
			if err := c.refreshTemplate(); err != nil {
				util.Warnf("template refresh failed: %v", err)
			}
		}
	}
}

func (c *Coordinator) refreshTemplate() error {
	tmpl, changed, err := c.node.FetchNextWithFailover(c.ctx)
	if err != nil {
		if c.notify != nil {
			c.notify.NotifyUpstreamDown(c.node.ActiveName(), err)
		}
		return err
	}
	atomic.AddUint64(&c.templatesFetched, 1)
	if !changed {
		return nil
	}

	if c.difficultyOverride != nil {
		if err := c.cfg.ValidateDifficultyOverride(*c.difficultyOverride, tmpl.Difficulty); err != nil {
			return err
		}
		tmpl.Difficulty = *c.difficultyOverride
	}

	working, err := block.NewFromTemplate(tmpl, c.payload, c.cfg.Mining.TimestampGrace)
	if err != nil {
		return err
	}

	c.queue.Install(working)
	atomic.AddUint64(&c.roundsStarted, 1)

	c.mu.Lock()
	c.currentDifficulty = working.Difficulty
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTemplateRefresh(working.Difficulty)
	}
	return nil
}

// drainLoop pulls solved blocks off the queue and submits them,
// mirroring the pool's share-process loop but with no concurrent
// callers to fan results back out to: the queue is the only interface
// workers have to the coordinator.
func (c *Coordinator) drainLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case solved := <-c.queue.Solutions():
			atomic.AddUint64(&c.solutionsFound, 1)
			c.submit(solved)
		}
	}
}

func (c *Coordinator) submit(b *block.Block) {
	if !b.HasValidPoW() {
		util.Warnf("refusing to submit a block that fails local verification (nonces=%v)", b.Nonces)
		return
	}

	if err := c.node.Client().SubmitBlock(c.ctx, b, c.payload); err != nil {
		util.Warnf("submission failed, will not retry this solution: %v", err)
		return
	}

	atomic.AddUint64(&c.solutionsPosted, 1)
	util.Infof("submitted solved block difficulty=%d nonces=%v", b.Difficulty, b.Nonces)

	if c.notify != nil {
		c.notify.NotifyBlockFound(b)
	}
	if c.metrics != nil {
		c.metrics.RecordCollisionFound(b.Difficulty)
	}
}

func (c *Coordinator) statsLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.metrics != nil {
				c.metrics.RecordUpstreamHealth(c.node.HasHealthyClient())
			}
		}
	}
}

// Stats returns a snapshot for the admin API.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		TemplatesFetched:  atomic.LoadUint64(&c.templatesFetched),
		SolutionsFound:    atomic.LoadUint64(&c.solutionsFound),
		SolutionsPosted:   atomic.LoadUint64(&c.solutionsPosted),
		RoundsStarted:     atomic.LoadUint64(&c.roundsStarted),
		CurrentDifficulty: c.currentDifficulty,
		Algorithm:         c.cfg.Mining.Algorithm,
		ActiveUpstream:    c.node.ActiveName(),
		StartedAt:         c.startedAt,
	}
}

// UpstreamStates exposes the node manager's health snapshot for the
// admin API's /upstreams endpoint.
func (c *Coordinator) UpstreamStates() []rpcnode.ClientState {
	return c.node.States()
}
