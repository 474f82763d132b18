package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBus_InboundRoundTrip(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx := context.Background()
	require.NoError(t, mb.PublishInbound(ctx, InboundMessage{Channel: "skype", Sender: "alice", Text: "hi"}))

	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "hi", msg.Text)
}

func TestMessageBus_OutboundPreservesOrder(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, mb.PublishOutbound(ctx, OutboundMessage{Channel: "skype", Text: text}))
	}

	for _, want := range []string{"one", "two", "three"} {
		msg, ok := mb.SubscribeOutbound(ctx)
		require.True(t, ok)
		assert.Equal(t, want, msg.Text)
	}
}

func TestMessageBus_PublishAfterClose(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()
	mb.Close()

	ctx := context.Background()
	assert.ErrorIs(t, mb.PublishInbound(ctx, InboundMessage{}), ErrBusClosed)
	assert.ErrorIs(t, mb.PublishOutbound(ctx, OutboundMessage{}), ErrBusClosed)

	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}

func TestMessageBus_ConsumeHonorsContext(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := mb.SubscribeOutbound(ctx)
	assert.False(t, ok)
}

func TestMessageBus_CloseUnblocksConsumer(t *testing.T) {
	mb := NewMessageBus()

	done := make(chan bool, 1)
	go func() {
		_, ok := mb.ConsumeInbound(context.Background())
		done <- ok
	}()

	mb.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer still blocked after Close")
	}
}
