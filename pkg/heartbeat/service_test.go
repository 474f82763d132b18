package heartbeat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeartbeatService_ValidatesSchedule(t *testing.T) {
	_, err := NewHeartbeatService("not a cron", true)
	assert.Error(t, err)

	_, err = NewHeartbeatService("not a cron", false)
	assert.NoError(t, err)

	hs, err := NewHeartbeatService("*/5 * * * *", true)
	require.NoError(t, err)
	assert.NotNil(t, hs)
}

func TestHeartbeatService_Next(t *testing.T) {
	hs, err := NewHeartbeatService("*/5 * * * *", true)
	require.NoError(t, err)

	ref := time.Date(2026, 3, 1, 10, 2, 30, 0, time.UTC)
	next, err := hs.Next(ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC), next)

	// A reference exactly on a tick moves to the following one.
	next, err = hs.Next(time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC), next)
}

func TestHeartbeatService_RunsHandlerOnTick(t *testing.T) {
	hs, err := NewHeartbeatService("* * * * *", true)
	require.NoError(t, err)

	ticks := make(chan time.Time)
	hs.after = func(time.Duration) <-chan time.Time { return ticks }

	var pings atomic.Int32
	hs.SetHandler(func(context.Context) { pings.Add(1) })
	require.NoError(t, hs.Start())
	require.NoError(t, hs.Start())

	ticks <- time.Now()
	ticks <- time.Now()
	require.Eventually(t, func() bool { return pings.Load() == 2 }, time.Second, 5*time.Millisecond)

	hs.Stop()
	hs.Stop()
}

func TestHeartbeatService_WaitsUsingInjectedClock(t *testing.T) {
	hs, err := NewHeartbeatService("*/5 * * * *", true)
	require.NoError(t, err)

	hs.now = func() time.Time { return time.Date(2026, 3, 1, 10, 2, 30, 0, time.UTC) }
	waits := make(chan time.Duration, 1)
	hs.after = func(d time.Duration) <-chan time.Time {
		select {
		case waits <- d:
		default:
		}
		return make(chan time.Time)
	}
	hs.SetHandler(func(context.Context) {})

	require.NoError(t, hs.Start())
	defer hs.Stop()

	select {
	case d := <-waits:
		assert.Equal(t, 2*time.Minute+30*time.Second, d)
	case <-time.After(time.Second):
		t.Fatal("heartbeat never scheduled a ping")
	}
}

func TestHeartbeatService_DisabledIsNoop(t *testing.T) {
	hs, err := NewHeartbeatService("", false)
	require.NoError(t, err)

	assert.NoError(t, hs.Start())
	hs.Stop()
}

func TestHeartbeatService_RequiresHandler(t *testing.T) {
	hs, err := NewHeartbeatService("* * * * *", true)
	require.NoError(t, err)
	assert.Error(t, hs.Start())
}
