package skype

import (
	"context"
	"time"

	"github.com/tinyland-inc/skybridge/pkg/logger"
)

const (
	activePath = "/v1/users/ME/endpoints/SELF/active"

	// activeTimeout is the presence lifetime, in seconds, asserted by each
	// active signal.
	activeTimeout = 12
)

type activeBody struct {
	Timeout int `json:"timeout"`
}

// Active tells the gateway the endpoint is still live. Failures are logged
// and otherwise ignored.
func (s *Session) Active(ctx context.Context) {
	if !s.store.Ready() {
		logger.DebugC("skype", "Skipping active signal, session not ready")
		return
	}

	resp, err := doRequest(ctx, s.client, s.gatewayURL(activePath), s.store.Snapshot(), activeBody{Timeout: activeTimeout})
	if err != nil {
		logger.WarnCF("skype", "Active signal failed", map[string]any{"error": err.Error()})
		return
	}
	if !resp.ok() {
		logger.WarnCF("skype", "Active signal rejected", map[string]any{"status": resp.StatusCode})
		return
	}
	logger.DebugC("skype", "Active signal sent")
}

// Ping refreshes the web session using the bearer token. It is never called
// by the poll loop; the host schedules it. Failures are logged and
// otherwise ignored.
func (s *Session) Ping(ctx context.Context) {
	if !s.store.Ready() {
		logger.DebugC("skype", "Skipping session ping, session not ready")
		return
	}

	headers := s.store.Snapshot()
	headers[headerSkypeToken] = s.store.Token()

	resp, err := doRequest(ctx, s.client, s.cfg.PingURL, headers, nil)
	if err != nil {
		logger.WarnCF("skype", "Session ping failed", map[string]any{"error": err.Error()})
		return
	}
	if !resp.ok() {
		logger.WarnCF("skype", "Session ping rejected", map[string]any{"status": resp.StatusCode})
		return
	}
	logger.DebugC("skype", "Session ping sent")
}

// runActive asserts presence every interval until ctx ends. Overlap with the
// per-poll signal is harmless.
func (s *Session) runActive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Active(ctx)
		}
	}
}
