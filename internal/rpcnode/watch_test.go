package rpcnode

import (
	"context"
	"testing"
	"time"
)

func TestToWebSocketURLHTTPBecomesWS(t *testing.T) {
	got, err := toWebSocketURL("http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ws://127.0.0.1:8080/ws/next" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestToWebSocketURLHTTPSBecomesWSS(t *testing.T) {
	got, err := toWebSocketURL("https://node.example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "wss://node.example.com/ws/next" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestWatchReturnsWhenNoPushEndpoint(t *testing.T) {
	// A node that doesn't speak websocket should cause Watch to return
	// promptly rather than retrying forever.
	w := NewWatcher("http://127.0.0.1:1", func() {})
	done := make(chan struct{})
	go func() {
		w.Watch(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected Watch to return quickly when dial fails")
	}
}
