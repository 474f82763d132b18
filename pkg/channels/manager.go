package channels

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/logger"
)

// Manager owns the registered channels and routes outbound bus messages to
// them by name.
type Manager struct {
	bus      *bus.MessageBus
	mu       sync.RWMutex
	channels map[string]Channel
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewManager(msgBus *bus.MessageBus) *Manager {
	return &Manager{
		bus:      msgBus,
		channels: make(map[string]Channel),
	}
}

func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// GetEnabledChannels returns the registered channel names, sorted.
func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every channel and the outbound dispatcher.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("starting channel %s: %w", name, err)
		}
		logger.InfoCF("channels", "Channel started", map[string]any{"channel": name})
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.dispatchOutbound(dispatchCtx)
	}()
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Channel stop failed", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

// dispatchOutbound delivers outbound messages until the bus closes or ctx
// ends. Delivery failures drop the message.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}

		ch, found := m.GetChannel(msg.Channel)
		if !found {
			logger.WarnCF("channels", "Outbound message for unknown channel", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}
		if !ch.IsRunning() {
			logger.WarnCF("channels", "Outbound message for stopped channel", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}

		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Outbound message dropped", map[string]any{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
		}
	}
}
