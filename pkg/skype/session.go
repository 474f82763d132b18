// Package skype bridges a single Skype group conversation through the
// private web-client protocol.
//
// A Session logs in through a real browser, captures the credential headers
// the web client sends, and then talks to the messaging gateway directly:
// it long-polls the event subscription, normalizes chat events into
// Message values, keeps the endpoint marked active, and posts outbound
// messages to the configured room.
package skype

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tinyland-inc/skybridge/pkg/config"
	"github.com/tinyland-inc/skybridge/pkg/logger"
)

// InitHook is run by Session.Init. It must call done when finished.
type InitHook func(cfg config.SkypeConfig, s *Session, done func())

type Option func(*Session)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) { s.client = client }
}

func WithAcquirer(a Acquirer) Option {
	return func(s *Session) { s.acquirer = a }
}

func WithInitHook(hook InitHook) Option {
	return func(s *Session) { s.initHook = hook }
}

// WithClock replaces the wall clock used for context and message ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

type Session struct {
	cfg      config.SkypeConfig
	client   *http.Client
	acquirer Acquirer
	initHook InitHook
	now      func() time.Time

	store *HeaderStore
	ids   messageIDs

	mu        sync.Mutex
	readyFns  []func()
	readyOnce sync.Once
	readyCh   chan struct{}
}

func New(cfg config.SkypeConfig, opts ...Option) (*Session, error) {
	if cfg.Room == "" {
		return nil, errors.New("skype: room is required")
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = config.DefaultGatewayURL
	}
	if cfg.PingURL == "" {
		cfg.PingURL = config.DefaultPingURL
	}

	s := &Session{
		cfg:     cfg,
		client:  &http.Client{},
		now:     time.Now,
		store:   NewHeaderStore(),
		readyCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.acquirer == nil {
		s.acquirer = NewBrowserAcquirer(cfg)
	}
	return s, nil
}

// Connect acquires credentials and marks the session ready. An
// ErrAcquisitionTimeout is final; the caller is expected to exit.
func (s *Session) Connect(ctx context.Context) error {
	logger.InfoCF("skype", "Logging in", map[string]any{
		"room":      s.cfg.Room,
		"microsoft": s.cfg.Microsoft,
	})

	creds, err := s.acquirer.Acquire(ctx)
	if err != nil {
		return err
	}
	s.SetCredentials(*creds)
	return nil
}

// SetCredentials stores creds and fires the ready callbacks. Callbacks run
// only for the first call.
func (s *Session) SetCredentials(creds Credentials) {
	s.store.Update(creds)
	logger.InfoCF("skype", "Session ready", map[string]any{
		"headers": len(creds.Headers),
	})
	s.markReady()
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		fns := s.readyFns
		s.readyFns = nil
		close(s.readyCh)
		s.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}

// OnReady registers fn to run once credentials are captured. If the session
// is already ready, fn runs immediately.
func (s *Session) OnReady(fn func()) {
	s.mu.Lock()
	select {
	case <-s.readyCh:
		s.mu.Unlock()
		fn()
		return
	default:
	}
	s.readyFns = append(s.readyFns, fn)
	s.mu.Unlock()
}

// IsReady reports whether credentials have been captured.
func (s *Session) IsReady() bool {
	return s.store.Ready()
}

// Received waits for the session to become ready, then delivers every
// message from the configured room to handler until the poll chain fails
// or ctx ends. The periodic active signal runs for as long as Received
// does.
func (s *Session) Received(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("skype: nil message handler")
	}

	select {
	case <-s.readyCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.InfoCF("skype", "Listening for messages", map[string]any{"room": s.cfg.Room})

	activeCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runActive(activeCtx, s.cfg.ActiveIntervalDuration())
	}()

	err := newPoller(s, handler).Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Init runs the configured init hook, or calls done directly when there is
// none.
func (s *Session) Init(done func()) {
	if done == nil {
		done = func() {}
	}
	if s.initHook == nil {
		done()
		return
	}
	s.initHook(s.cfg, s, done)
}

// Ident names this bridge instance, e.g. "skype#19:abc" for the room
// "19:abc@thread.skype".
func (s *Session) Ident() string {
	return "skype#" + strings.Replace(s.cfg.Room, "@thread.skype", "", 1)
}

func (s *Session) Room() string {
	return s.cfg.Room
}

func (s *Session) gatewayURL(path string) string {
	return strings.TrimRight(s.cfg.GatewayURL, "/") + path
}
