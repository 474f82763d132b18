package channels

import (
	"context"
	"maps"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/logger"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

// BaseChannelOption is a functional option for configuring a BaseChannel.
type BaseChannelOption func(*BaseChannel)

// WithMetadata attaches fixed metadata to every inbound message.
func WithMetadata(md map[string]string) BaseChannelOption {
	return func(c *BaseChannel) { c.metadata = md }
}

type BaseChannel struct {
	bus       *bus.MessageBus
	running   atomic.Bool
	name      string
	allowList []string
	metadata  map[string]string
}

func NewBaseChannel(
	name string,
	bus *bus.MessageBus,
	allowList []string,
	opts ...BaseChannelOption,
) *BaseChannel {
	bc := &BaseChannel{
		bus:       bus,
		name:      name,
		allowList: allowList,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

// IsAllowed matches senderID against the allow list, ignoring case and a
// leading "@". An empty list allows everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	for _, allowed := range c.allowList {
		if strings.EqualFold(senderID, strings.TrimPrefix(allowed, "@")) {
			return true
		}
	}

	return false
}

// HandleMessage publishes a received message to the bus under a fresh
// message id. Messages from senders outside the allow list are dropped.
func (c *BaseChannel) HandleMessage(ctx context.Context, sender, room, text string) {
	if !c.IsAllowed(sender) {
		logger.DebugCF(c.name, "Dropping message from sender not on allow list", map[string]any{
			"sender": sender,
		})
		return
	}

	msg := bus.InboundMessage{
		Channel:   c.name,
		Sender:    sender,
		Room:      room,
		Text:      text,
		MessageID: uuid.New().String(),
		Metadata:  maps.Clone(c.metadata),
	}

	if err := c.bus.PublishInbound(ctx, msg); err != nil {
		logger.WarnCF(c.name, "Inbound message dropped", map[string]any{
			"sender": sender,
			"error":  err.Error(),
		})
	}
}

func (c *BaseChannel) SetRunning(running bool) {
	c.running.Store(running)
}
