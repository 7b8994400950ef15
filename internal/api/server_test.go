package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/coordinator"
	"github.com/collisionlabs/cminer/internal/notify"
	"github.com/collisionlabs/cminer/internal/rpcnode"
)

func testCoordinator() *coordinator.Coordinator {
	cfg := &config.Config{
		Node: config.NodeConfig{URL: "http://127.0.0.1:1"},
		Mining: config.MiningConfig{
			Algorithm:          config.AlgorithmDistinguishedPoints,
			NumWorkers:         1,
			SolutionBufferSize: 1,
		},
	}
	node := rpcnode.NewManager(context.Background(), &cfg.Node)
	n := notify.NewNotifier(config.NotifyConfig{Enabled: false})
	return coordinator.New(cfg, node, n, nil, "payload", nil)
}

func testServer() (*Server, *httptest.Server) {
	cfg := &config.Config{API: config.APIConfig{Bind: "127.0.0.1:0"}}
	s := NewServer(cfg, testCoordinator())
	return s, httptest.NewServer(s.router)
}

func TestHealthzReturnsOK(t *testing.T) {
	_, ts := testServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatsReturnsCoordinatorSnapshot(t *testing.T) {
	_, ts := testServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Algorithm != config.AlgorithmDistinguishedPoints {
		t.Fatalf("unexpected algorithm: %s", out.Algorithm)
	}
	if out.ActiveUpstream != "primary" {
		t.Fatalf("expected active upstream 'primary', got %q", out.ActiveUpstream)
	}
}

func TestUpstreamsListsConfiguredNodes(t *testing.T) {
	_, ts := testServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/upstreams")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["total"].(float64) != 1 {
		t.Fatalf("expected 1 upstream, got %v", out["total"])
	}
	if out["active"] != "primary" {
		t.Fatalf("expected active 'primary', got %v", out["active"])
	}
}
