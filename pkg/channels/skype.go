package channels

import (
	"context"
	"errors"
	"sync"

	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/logger"
	"github.com/tinyland-inc/skybridge/pkg/skype"
)

// SkypeSession is the part of *skype.Session the channel drives.
type SkypeSession interface {
	Connect(ctx context.Context) error
	Received(ctx context.Context, handler skype.Handler) error
	SendTo(ctx context.Context, room, text string, opts skype.SendOptions) error
	Room() string
	Ident() string
}

// SkypeChannel connects a Skype session to the message bus. Login and
// polling run in the background after Start; a failure of either is
// reported once on Errors.
type SkypeChannel struct {
	*BaseChannel
	session SkypeSession

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	errs   chan error
}

func NewSkypeChannel(session SkypeSession, msgBus *bus.MessageBus, allowList []string) *SkypeChannel {
	return &SkypeChannel{
		BaseChannel: NewBaseChannel("skype", msgBus, allowList,
			WithMetadata(map[string]string{"ident": session.Ident()})),
		session: session,
		errs:    make(chan error, 1),
	}
}

func (c *SkypeChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("skype channel already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.SetRunning(true)

	go c.run(runCtx)
	return nil
}

func (c *SkypeChannel) run(ctx context.Context) {
	defer close(c.done)
	defer c.SetRunning(false)

	if err := c.session.Connect(ctx); err != nil {
		c.fail(ctx, err)
		return
	}

	err := c.session.Received(ctx, func(m skype.Message) {
		c.HandleMessage(ctx, m.Sender, m.Room, m.Text)
	})
	c.fail(ctx, err)
}

// fail reports err unless it only reflects the channel being stopped.
func (c *SkypeChannel) fail(ctx context.Context, err error) {
	if err == nil || ctx.Err() != nil {
		return
	}
	logger.ErrorCF("skype", "Session stopped", map[string]any{"error": err.Error()})
	select {
	case c.errs <- err:
	default:
	}
}

// Errors delivers the error that ended the session, if any.
func (c *SkypeChannel) Errors() <-chan error {
	return c.errs
}

func (c *SkypeChannel) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send delivers msg to its room, or to the session's room when msg.Room is
// empty.
func (c *SkypeChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	room := msg.Room
	if room == "" {
		room = c.session.Room()
	}
	return c.session.SendTo(ctx, room, msg.Text, skype.SendOptions{
		Sender: msg.Sender,
		Source: msg.Source,
		Raw:    msg.Raw,
	})
}
