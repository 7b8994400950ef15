package rpcnode

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collisionlabs/cminer/internal/util"
)

// Watcher listens on a node's optional push endpoint (GET /ws/next,
// upgraded to a WebSocket) and invokes onNotify whenever the node sends a
// message, telling the coordinator to re-fetch the template immediately
// instead of waiting for the next poll. If the node has no such endpoint
// the dial fails once and Watch returns without retrying, leaving the
// coordinator to rely on ordinary polling.
type Watcher struct {
	nodeURL  string
	onNotify func()
}

// NewWatcher builds a Watcher for the node at nodeURL (an http(s) base
// URL; the WebSocket scheme and /ws/next path are derived from it).
func NewWatcher(nodeURL string, onNotify func()) *Watcher {
	return &Watcher{nodeURL: nodeURL, onNotify: onNotify}
}

// Watch connects and reconnects with exponential backoff until ctx is
// canceled. It returns immediately if the node's first connection attempt
// is rejected, since many nodes don't implement the push endpoint at all.
func (w *Watcher) Watch(ctx context.Context) {
	wsURL, err := toWebSocketURL(w.nodeURL)
	if err != nil {
		util.Warnf("watch: cannot derive websocket url from %s: %v", w.nodeURL, err)
		return
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		util.Infof("watch: node %s has no push endpoint, falling back to polling", w.nodeURL)
		return
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if err := w.readLoop(ctx, conn); err != nil {
			util.Debugf("watch: connection to %s lost: %v", wsURL, err)
		}
		conn.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		conn, _, err = websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			continue
		}
		backoff = time.Second
	}
}

func (w *Watcher) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		if w.onNotify != nil {
			w.onNotify()
		}
	}
}

func toWebSocketURL(nodeURL string) (string, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/next"
	return u.String(), nil
}
