// Package rpcnode implements the miner's node client: the external
// collaborator spec.md treats as outside the mining core. It fetches
// block templates (GET /next), looks up ancestor blocks (GET
// /block/{hex}), and submits solved blocks (POST /add), with health
// tracking modeled on the pool's upstream client.
package rpcnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/collisionlabs/cminer/internal/block"
	"github.com/collisionlabs/cminer/internal/util"
)

// Client talks to a single node over HTTP.
type Client struct {
	url         string
	http        *http.Client
	name        string
	maxFailures int

	mu           sync.RWMutex
	healthy      bool
	lastCheck    time.Time
	successCount int
	failCount    int

	lastTemplateFP [32]byte
	haveFP         bool
}

// NewClient creates a node client bound to url with the given per-request
// timeout. maxFailures <= 0 falls back to 3, matching the pool's own
// upstream client default.
func NewClient(name, url string, timeout time.Duration, maxFailures int) *Client {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Client{
		url:         url,
		name:        name,
		http:        &http.Client{Timeout: timeout},
		healthy:     true,
		maxFailures: maxFailures,
	}
}

func (c *Client) URL() string { return c.url }
func (c *Client) Name() string {
	if c.name != "" {
		return c.name
	}
	return c.url
}

// IsHealthy reports whether the client's recent calls have been
// succeeding.
func (c *Client) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successCount++
	c.failCount = 0
	c.healthy = true
	c.lastCheck = time.Now()
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCount++
	c.successCount = 0
	if c.failCount >= c.maxFailures && c.healthy {
		c.healthy = false
		util.Warnf("node %s marked unhealthy after %d failures", c.Name(), c.failCount)
	}
	c.lastCheck = time.Now()
}

// FetchNext retrieves the next block template via GET {url}/next. It
// returns the decoded template and, via changed, whether the template's
// content differs from the last one this client fetched — a cheap
// blake3 fingerprint check used by the coordinator to skip redundant
// queue installs when the node hasn't produced a new template yet.
func (c *Client) FetchNext(ctx context.Context) (tmpl block.Template, changed bool, err error) {
	body, err := c.get(ctx, "/next")
	if err != nil {
		c.recordFailure()
		return tmpl, false, err
	}
	if err := json.Unmarshal(body, &tmpl); err != nil {
		c.recordFailure()
		return tmpl, false, fmt.Errorf("rpcnode: malformed template: %w", err)
	}
	c.recordSuccess()

	fp := blake3.Sum256(body)
	c.mu.Lock()
	changed = !c.haveFP || fp != c.lastTemplateFP
	c.lastTemplateFP = fp
	c.haveFP = true
	c.mu.Unlock()

	return tmpl, changed, nil
}

// FetchBlock retrieves a previously-mined block by its explorer hash via
// GET {url}/block/{hex}, returning the full header from the response's
// "header" field.
func (c *Client) FetchBlock(ctx context.Context, hex string) (*block.Block, error) {
	body, err := c.get(ctx, "/block/"+hex)
	if err != nil {
		c.recordFailure()
		return nil, err
	}
	var wrapper struct {
		Header block.Block `json:"header"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("rpcnode: malformed block response: %w", err)
	}
	c.recordSuccess()
	return &wrapper.Header, nil
}

// submitRequest is the POST /add body: {header, block}.
type submitRequest struct {
	Header *block.Block `json:"header"`
	Block  string       `json:"block"`
}

// SubmitBlock posts a solved header and its payload to POST {url}/add.
// Non-2xx responses are treated as transient failures per spec.md §7:
// logged, not fatal.
func (c *Client) SubmitBlock(ctx context.Context, b *block.Block, payload string) error {
	body, err := json.Marshal(submitRequest{Header: b, Block: payload})
	if err != nil {
		return fmt.Errorf("rpcnode: encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/add", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure()
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure()
		return fmt.Errorf("rpcnode: node rejected submission: status %d", resp.StatusCode)
	}
	c.recordSuccess()
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rpcnode: unexpected status %d from %s", resp.StatusCode, path)
	}
	return body, nil
}
