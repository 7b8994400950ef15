// Package metrics wraps New Relic APM the same way the pool's newrelic
// package does — a thin Recorder around *newrelic.Application with
// nil-safe recording calls — repointed at the mining events this
// miner actually produces: template refreshes, collisions found, and
// upstream health transitions.
package metrics

import (
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/util"
)

// Recorder wraps New Relic APM functionality. Every recording method is
// nil-safe so the coordinator can call them unconditionally whether or
// not New Relic is configured.
type Recorder struct {
	cfg config.NewRelicConfig
	mu  sync.RWMutex
	app *newrelic.Application
}

// NewRecorder creates a metrics recorder from the miner's New Relic
// configuration.
func NewRecorder(cfg config.NewRelicConfig) *Recorder {
	return &Recorder{cfg: cfg}
}

// Start connects to New Relic if enabled. A missing license key or a
// disabled config leaves the recorder inert, with a log line, rather
// than failing startup, per spec.md §7's rule that observability never
// blocks mining.
func (r *Recorder) Start() error {
	if !r.cfg.Enabled {
		util.Info("New Relic APM disabled")
		return nil
	}
	if r.cfg.LicenseKey == "" {
		util.Warn("New Relic license key not configured, APM disabled")
		return nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(r.cfg.AppName),
		newrelic.ConfigLicense(r.cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return err
	}
	if err := app.WaitForConnection(5 * time.Second); err != nil {
		util.Warnf("New Relic connection timeout: %v (will retry in background)", err)
	}

	r.mu.Lock()
	r.app = app
	r.mu.Unlock()

	util.Infof("New Relic APM enabled for app: %s", r.cfg.AppName)
	return nil
}

// Stop flushes and shuts down the New Relic agent.
func (r *Recorder) Stop() {
	r.mu.RLock()
	app := r.app
	r.mu.RUnlock()
	if app != nil {
		app.Shutdown(10 * time.Second)
	}
}

func (r *Recorder) event(eventType string, params map[string]interface{}) {
	r.mu.RLock()
	app := r.app
	r.mu.RUnlock()
	if app != nil {
		app.RecordCustomEvent(eventType, params)
	}
}

func (r *Recorder) metric(name string, value float64) {
	r.mu.RLock()
	app := r.app
	r.mu.RUnlock()
	if app != nil {
		app.RecordCustomMetric(name, value)
	}
}

// RecordCollisionFound records a solved 3-way collision.
func (r *Recorder) RecordCollisionFound(difficulty uint64) {
	r.event("CollisionFound", map[string]interface{}{"difficulty": difficulty})
	r.metric("Custom/Miner/SolutionsFound", 1)
}

// RecordTemplateRefresh records a new template being installed.
func (r *Recorder) RecordTemplateRefresh(difficulty uint64) {
	r.event("TemplateRefresh", map[string]interface{}{"difficulty": difficulty})
	r.metric("Custom/Miner/Difficulty", float64(difficulty))
}

// RecordUpstreamFailover records a switch to a backup node.
func (r *Recorder) RecordUpstreamFailover(from, to string) {
	r.event("UpstreamFailover", map[string]interface{}{"from": from, "to": to})
}

// RecordUpstreamHealth records whether any upstream is currently
// reachable, sampled on the coordinator's stats loop.
func (r *Recorder) RecordUpstreamHealth(healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	r.metric("Custom/Miner/UpstreamHealthy", v)
}
