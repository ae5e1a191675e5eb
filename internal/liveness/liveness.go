// Package liveness implements the probe side of the coordinator's liveness
// protocol. The coordinator answers probes in the router; this package is
// what the probing side runs: wait for the coordinator to come up, then keep
// probing for as long as a consumer stays interested.
package liveness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
)

// DefaultProbeInterval is the fixed delay between probe attempts.
const DefaultProbeInterval = 20 * time.Second

// Prober performs one liveness probe. An error means the coordinator did not
// acknowledge; the caller decides whether to retry.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to the Prober interface.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error { return f(ctx) }

// AwaitReady probes on a fixed delay until the coordinator acknowledges.
// Retries are unbounded; cancel ctx to give up. The first probe fires
// immediately.
func AwaitReady(ctx context.Context, p Prober, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	attempt := 0
	for {
		attempt++
		if err := p.Probe(ctx); err == nil {
			logging.Liveness("coordinator acknowledged after %d probe(s)", attempt)
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			logging.LivenessDebug("probe %d unacknowledged: %v", attempt, err)
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// KeepAlive probes periodically until ctx is cancelled. Failed probes are
// logged and otherwise ignored; a coordinator restart picks the rhythm back
// up on its own.
func KeepAlive(ctx context.Context, p Prober, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := p.Probe(ctx); err != nil {
				logging.LivenessWarn("keep-alive probe failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// HTTPProber probes a running coordinator through its message bridge.
type HTTPProber struct {
	// BaseURL is the bridge root, e.g. http://127.0.0.1:8474.
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Probe posts a ping envelope and expects a live ack back.
func (p *HTTPProber) Probe(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/v1/message",
		strings.NewReader(`{"action":"ping"}`))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	var ack struct {
		Alive bool `json:"alive"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("probe response malformed: %w", err)
	}
	if !ack.Alive {
		return fmt.Errorf("coordinator answered but reported not alive")
	}
	return nil
}
