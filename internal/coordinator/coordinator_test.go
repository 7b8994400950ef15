package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/notify"
	"github.com/collisionlabs/cminer/internal/rpcnode"
)

func templateServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/next" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"version":1,"root":"0000000000000000000000000000000000000000000000000000000000000000","parentid":"0000000000000000000000000000000000000000000000000000000000000000","difficulty":8,"timestamp":1,"nonces":[0,0,0]}`))
	}))
}

func testCoordinator(t *testing.T, maxTimeToAttempt time.Duration) (*Coordinator, *httptest.Server) {
	t.Helper()
	srv := templateServer(t)

	cfg := &config.Config{
		Node: config.NodeConfig{
			URL:                 srv.URL,
			Timeout:             time.Second,
			HealthCheckInterval: time.Hour, // keep the ticker branch quiet in this test
		},
		Mining: config.MiningConfig{
			Algorithm:          config.AlgorithmDistinguishedPoints,
			NumWorkers:         1,
			MaxTimeToAttempt:   maxTimeToAttempt,
			SolutionBufferSize: 1,
		},
	}
	node := rpcnode.NewManager(context.Background(), &cfg.Node)
	n := notify.NewNotifier(config.NotifyConfig{Enabled: false})
	c := New(cfg, node, n, nil, "payload", nil)
	return c, srv
}

// TestRefreshLoopKeepsRunningAfterDeadline is the regression test for the
// bug where the MaxTimeToAttempt branch returned from refreshLoop instead
// of resetting the deadline, permanently ending the coordinator's only
// template-refresh goroutine.
func TestRefreshLoopKeepsRunningAfterDeadline(t *testing.T) {
	c, srv := testCoordinator(t, 30*time.Millisecond)
	defer srv.Close()

	if err := c.refreshTemplate(); err != nil {
		t.Fatalf("seed refreshTemplate failed: %v", err)
	}
	seeded := atomic.LoadUint64(&c.templatesFetched)

	c.wg.Add(1)
	go c.refreshLoop()

	// Let the deadline fire several times over.
	time.Sleep(150 * time.Millisecond)

	c.cancel()
	c.wg.Wait()

	fetched := atomic.LoadUint64(&c.templatesFetched)
	if fetched <= seeded {
		t.Fatalf("expected refreshTemplate to be invoked again after max_time_to_attempt elapsed, seeded=%d fetched=%d", seeded, fetched)
	}
	if fetched < seeded+2 {
		t.Fatalf("expected the deadline to recur more than once in 150ms with a 30ms deadline, seeded=%d fetched=%d", seeded, fetched)
	}
}

func TestRefreshLoopStopsOnContextCancel(t *testing.T) {
	c, srv := testCoordinator(t, time.Hour)
	defer srv.Close()

	c.wg.Add(1)
	go c.refreshLoop()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refreshLoop did not exit after context cancellation")
	}
}
