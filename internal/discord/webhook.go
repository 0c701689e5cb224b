package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	logx "shopwatch/pkg/logx"
)

const (
	defaultCooldown    = time.Second
	defaultSendTimeout = 10 * time.Second

	maxErrBody = 1024
)

type envelope struct {
	Embeds []Embed `json:"embeds"`
}

// Webhook posts embeds to a Discord-compatible webhook endpoint.
//
// Every attempt, success or failure, is followed by a fixed cooldown before
// Send returns. That bounds the outbound rate no matter how many
// notifications one cycle produces.
type Webhook struct {
	http *http.Client
	log  logx.Logger

	mu       sync.RWMutex
	url      string
	cooldown time.Duration
	timeout  time.Duration
}

func NewWebhook(url string, cooldown, timeout time.Duration, log logx.Logger) *Webhook {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Webhook{
		http:     &http.Client{},
		log:      log,
		url:      url,
		cooldown: cooldown,
		timeout:  timeout,
	}
}

func (w *Webhook) Name() string { return "discord" }

// Apply updates endpoint settings on config reload.
func (w *Webhook) Apply(url string, cooldown, timeout time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if url != "" {
		w.url = url
	}
	if cooldown > 0 {
		w.cooldown = cooldown
	}
	if timeout > 0 {
		w.timeout = timeout
	}
}

// Send delivers one embed. Failures are logged and returned but are
// non-fatal: the caller treats them as best-effort.
func (w *Webhook) Send(ctx context.Context, e Embed) error {
	w.mu.RLock()
	url := w.url
	cooldown := w.cooldown
	timeout := w.timeout
	w.mu.RUnlock()

	err := w.post(ctx, url, timeout, e)
	if err != nil {
		w.log.Error("webhook send failed", logx.Err(err))
	} else {
		w.log.Info("message sent to webhook")
	}

	// Cooldown applies after the attempt regardless of outcome.
	t := time.NewTimer(cooldown)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}

	return err
}

func (w *Webhook) post(ctx context.Context, url string, timeout time.Duration, e Embed) error {
	body, err := json.Marshal(envelope{Embeds: []Embed{e}})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Bound per-send call so a hung endpoint can't stall the cycle.
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
