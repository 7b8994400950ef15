package rpcnode

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/collisionlabs/cminer/internal/block"
	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/util"
)

// Manager wraps one or more Clients with health tracking and automatic
// failover, so a single flaky backup node can never stall mining. With
// zero backups configured it behaves exactly like a single Client.
type Manager struct {
	clients []*Client
	cfg     *config.NodeConfig

	activeIdx int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a Manager from cfg.URL plus any cfg.Backups.
func NewManager(ctx context.Context, cfg *config.NodeConfig) *Manager {
	mgrCtx, cancel := context.WithCancel(ctx)
	m := &Manager{cfg: cfg, ctx: mgrCtx, cancel: cancel}

	m.clients = append(m.clients, NewClient("primary", cfg.URL, cfg.Timeout, cfg.MaxFailures))
	for i, backup := range cfg.Backups {
		m.clients = append(m.clients, NewClient(fmt.Sprintf("backup-%d", i), backup, cfg.Timeout, cfg.MaxFailures))
	}
	return m
}

// Start begins the background health-check loop.
func (m *Manager) Start() {
	interval := m.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.selectBestClient()
			}
		}
	}()
}

// Stop halts the health-check loop.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Client returns the currently active client.
func (m *Manager) Client() *Client {
	idx := atomic.LoadInt32(&m.activeIdx)
	if idx >= 0 && int(idx) < len(m.clients) {
		return m.clients[idx]
	}
	return m.clients[0]
}

// ActiveName returns the name of the currently active client.
func (m *Manager) ActiveName() string {
	return m.Client().Name()
}

// HasHealthyClient reports whether any configured client is currently
// healthy.
func (m *Manager) HasHealthyClient() bool {
	for _, c := range m.clients {
		if c.IsHealthy() {
			return true
		}
	}
	return false
}

// States returns a snapshot of every configured client's health, for
// the admin API's /upstreams endpoint.
func (m *Manager) States() []ClientState {
	out := make([]ClientState, len(m.clients))
	active := atomic.LoadInt32(&m.activeIdx)
	for i, c := range m.clients {
		out[i] = ClientState{
			Name:    c.Name(),
			URL:     c.URL(),
			Healthy: c.IsHealthy(),
			Active:  int32(i) == active,
		}
	}
	return out
}

// ClientState is the public health snapshot of one configured node.
type ClientState struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
	Active  bool   `json:"active"`
}

func (m *Manager) selectBestClient() {
	active := atomic.LoadInt32(&m.activeIdx)
	if m.clients[active].IsHealthy() {
		return
	}
	for i, c := range m.clients {
		if c.IsHealthy() {
			if int32(i) != active {
				atomic.StoreInt32(&m.activeIdx, int32(i))
				util.Infof("failover: switched to node %s", c.Name())
			}
			return
		}
	}
	util.Warn("no healthy upstream node available")
}

// FetchNextWithFailover tries the active client, then every other
// configured client in order, returning the first success.
func (m *Manager) FetchNextWithFailover(ctx context.Context) (tmpl block.Template, changed bool, err error) {
	active := atomic.LoadInt32(&m.activeIdx)
	tmpl, changed, err = m.clients[active].FetchNext(ctx)
	if err == nil {
		return tmpl, changed, nil
	}

	for i, c := range m.clients {
		if int32(i) == active {
			continue
		}
		tmpl, changed, err = c.FetchNext(ctx)
		if err == nil {
			atomic.StoreInt32(&m.activeIdx, int32(i))
			util.Infof("failover: switched to node %s after fetch error", c.Name())
			return tmpl, changed, nil
		}
	}
	return block.Template{}, false, fmt.Errorf("rpcnode: all upstreams failed: %w", err)
}
