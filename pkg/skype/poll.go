package skype

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/tinyland-inc/skybridge/pkg/logger"
)

const pollPath = "/v1/users/ME/endpoints/SELF/subscriptions/0/poll"

// Poller drains the session's event subscription. Requests are issued one
// at a time from the goroutine calling Run; the next poll starts only after
// the previous response has been fully dispatched.
type Poller struct {
	session *Session
	handler Handler

	// active runs once per completed poll.
	active func(context.Context)
	wg     sync.WaitGroup
}

func newPoller(s *Session, handler Handler) *Poller {
	return &Poller{
		session: s,
		handler: handler,
		active:  s.Active,
	}
}

// Run polls until a transport error occurs or ctx ends. Transport errors
// are returned as *PollError and are not retried.
func (p *Poller) Run(ctx context.Context) error {
	defer p.wg.Wait()

	for {
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.active(ctx)
		}()
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	s := p.session
	headers := s.store.Snapshot()
	headers[headerContextID] = strconv.FormatInt(s.now().UnixMilli(), 10)

	pollURL := s.gatewayURL(pollPath)
	logger.DebugCF("skype", "Polling", map[string]any{"url": pollURL})

	resp, err := doRequest(ctx, s.client, pollURL, headers, nil)
	if err != nil {
		return &PollError{URL: pollURL, Err: err}
	}

	var body PollResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			logger.WarnCF("skype", "Undecodable poll response", map[string]any{
				"status": resp.StatusCode,
				"error":  err.Error(),
			})
			return nil
		}
	}

	if body.ErrorCode != "" {
		logger.WarnCF("skype", "Poll returned error code", map[string]any{
			"error_code": body.ErrorCode.String(),
			"status":     resp.StatusCode,
		})
	}

	if n := len(body.EventMessages); n > 0 {
		logger.DebugCF("skype", "Parsing events", map[string]any{"count": n})
	}
	self, room := s.cfg.Self(), s.cfg.Room
	for _, ev := range body.EventMessages {
		msg, ok := Normalize(ev, self, room)
		if !ok {
			continue
		}
		logger.DebugCF("skype", "Message received", map[string]any{"sender": msg.Sender})
		p.handler(msg)
	}
	return nil
}
