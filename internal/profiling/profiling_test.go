package profiling

import (
	"net/http"
	"testing"
	"time"

	"github.com/collisionlabs/cminer/internal/config"
)

func TestNewServer(t *testing.T) {
	cfg := &config.ProfilingConfig{Enabled: true, Bind: "127.0.0.1:6060"}
	server := NewServer(cfg)

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.cfg != cfg {
		t.Error("Server.cfg not set correctly")
	}
	if server.server != nil {
		t.Error("Server.server should be nil before Start()")
	}
}

func TestServerStartDisabled(t *testing.T) {
	cfg := &config.ProfilingConfig{Enabled: false, Bind: "127.0.0.1:6060"}
	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		t.Errorf("Start() returned error when disabled: %v", err)
	}
	if server.server != nil {
		t.Error("Server.server should be nil when disabled")
	}
}

func TestServerStartStop(t *testing.T) {
	cfg := &config.ProfilingConfig{Enabled: true, Bind: "127.0.0.1:0"}
	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if server.server == nil {
		t.Error("Server.server should not be nil after Start()")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
}

func TestServerStopNotStarted(t *testing.T) {
	cfg := &config.ProfilingConfig{Enabled: true, Bind: "127.0.0.1:6060"}
	server := NewServer(cfg)

	if err := server.Stop(); err != nil {
		t.Errorf("Stop() on unstarted server returned error: %v", err)
	}
}

func TestProfilingEndpoints(t *testing.T) {
	cfg := &config.ProfilingConfig{Enabled: true, Bind: "127.0.0.1:16061"}
	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	defer server.Stop()

	time.Sleep(200 * time.Millisecond)

	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{
		"/debug/pprof/",
		"/debug/pprof/goroutine",
		"/debug/pprof/heap",
		"/debug/pprof/allocs",
		"/debug/pprof/threadcreate",
		"/debug/pprof/block",
		"/debug/pprof/mutex",
		"/debug/pprof/cmdline",
	} {
		resp, err := client.Get("http://127.0.0.1:16061" + path)
		if err != nil {
			t.Errorf("request to %s failed: %v", path, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("endpoint %s returned status %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}
