// Package heartbeat runs the Skype session ping on a cron schedule.
package heartbeat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/skybridge/pkg/logger"
)

// PingFunc refreshes the session. It must not block past ctx.
type PingFunc func(ctx context.Context)

type HeartbeatService struct {
	schedule string
	enabled  bool
	handler  PingFunc

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeatService validates schedule, a standard five-field cron
// expression.
func NewHeartbeatService(schedule string, enabled bool) (*HeartbeatService, error) {
	if enabled {
		g := gronx.New()
		if !g.IsValid(schedule) {
			return nil, fmt.Errorf("heartbeat: invalid ping schedule %q", schedule)
		}
	}
	return &HeartbeatService{
		schedule: schedule,
		enabled:  enabled,
		now:      time.Now,
		after:    time.After,
	}, nil
}

func (hs *HeartbeatService) SetHandler(handler PingFunc) {
	hs.handler = handler
}

// Next returns the first scheduled ping strictly after ref.
func (hs *HeartbeatService) Next(ref time.Time) (time.Time, error) {
	return gronx.NextTickAfter(hs.schedule, ref, false)
}

func (hs *HeartbeatService) Start() error {
	if !hs.enabled {
		logger.InfoC("heartbeat", "Heartbeat disabled")
		return nil
	}
	if hs.handler == nil {
		return fmt.Errorf("heartbeat: no handler set")
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	hs.cancel = cancel
	hs.done = make(chan struct{})
	go hs.run(ctx, hs.done)

	logger.InfoCF("heartbeat", "Heartbeat started", map[string]any{"schedule": hs.schedule})
	return nil
}

func (hs *HeartbeatService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		next, err := hs.Next(hs.now())
		if err != nil {
			logger.ErrorCF("heartbeat", "Cannot compute next ping", map[string]any{"error": err.Error()})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-hs.after(next.Sub(hs.now())):
		}

		logger.DebugC("heartbeat", "Pinging session")
		hs.handler(ctx)
	}
}

func (hs *HeartbeatService) Stop() {
	hs.mu.Lock()
	cancel, done := hs.cancel, hs.done
	hs.cancel = nil
	hs.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
