// Package notify sends Discord and Telegram webhook notifications on
// solved blocks and failed upstream template fetches, the same way the
// pool's notifier posts block-found and payment alerts — trimmed down
// to the two events a solo miner actually produces.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/collisionlabs/cminer/internal/block"
	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/util"
)

const (
	maxRetries     = 3
	retryBaseDelay = 2 * time.Second
)

// Notifier sends mining events to configured webhooks. An Enabled check
// on every call means callers never need to branch on whether
// notifications are turned on.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
}

// NewNotifier creates a notifier from the miner's notify configuration.
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyBlockFound announces a submitted solution. It never blocks the
// caller: delivery happens on its own goroutine, per spec.md §7's rule
// that notification failures must never affect mining.
func (n *Notifier) NotifyBlockFound(b *block.Block) {
	if !n.cfg.Enabled {
		return
	}
	if n.cfg.DiscordURL != "" {
		go n.sendDiscord(discordMessage{Embeds: []discordEmbed{{
			Title:       "Block Solved",
			Description: "A 3-way collision was found and submitted",
			Color:       0x2ECC71,
			Fields: []discordField{
				{Name: "Difficulty", Value: fmt.Sprintf("%d", b.Difficulty), Inline: true},
				{Name: "Root", Value: b.Root.String(), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}}})
	}
	if n.cfg.TelegramBot != "" && n.cfg.TelegramChat != "" {
		go n.sendTelegram(fmt.Sprintf(
			"*Block Solved*\n\nDifficulty: `%d`\nRoot: `%s`",
			b.Difficulty, b.Root.String(),
		))
	}
}

// NotifyUpstreamDown announces a node fetch failure, so an operator
// watching the webhook channel notices a dead node before the miner's
// failover exhausts every configured backup.
func (n *Notifier) NotifyUpstreamDown(upstream string, cause error) {
	if !n.cfg.Enabled {
		return
	}
	if n.cfg.DiscordURL != "" {
		go n.sendDiscord(discordMessage{Embeds: []discordEmbed{{
			Title:       "Upstream Node Unreachable",
			Description: fmt.Sprintf("%s: %v", upstream, cause),
			Color:       0xE74C3C,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}}})
	}
	if n.cfg.TelegramBot != "" && n.cfg.TelegramChat != "" {
		go n.sendTelegram(fmt.Sprintf("*Upstream Node Unreachable*\n\n`%s`: %v", upstream, cause))
	}
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (n *Notifier) sendDiscord(msg discordMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		util.Warnf("notify: failed to marshal discord message: %v", err)
		return
	}
	n.postWithRetry(n.cfg.DiscordURL, body)
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (n *Notifier) sendTelegram(text string) {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBot)
	body, err := json.Marshal(telegramMessage{ChatID: n.cfg.TelegramChat, Text: text, ParseMode: "Markdown"})
	if err != nil {
		util.Warnf("notify: failed to marshal telegram message: %v", err)
		return
	}
	n.postWithRetry(url, body)
}

// postWithRetry mirrors the pool's exponential-backoff webhook sender:
// up to maxRetries attempts, waiting 2s before the second and 4s before
// the third, with an extra pause on HTTP 429.
func (n *Notifier) postWithRetry(url string, body []byte) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBaseDelay * time.Duration(uint(1)<<uint(attempt-1)))
		}

		resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode < 400 {
			return
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			time.Sleep(5 * time.Second)
			continue
		}
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if lastErr != nil {
		util.Warnf("notify: failed to deliver webhook after %d attempts: %v", maxRetries, lastErr)
	}
}
