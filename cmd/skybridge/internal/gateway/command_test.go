package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/skybridge/pkg/config"
	"github.com/tinyland-inc/skybridge/pkg/skype"
)

func TestNewGatewayCommand(t *testing.T) {
	cmd := NewGatewayCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "gateway", cmd.Use)
	assert.Equal(t, []string{"g"}, cmd.Aliases)
	assert.False(t, cmd.HasSubCommands())

	assert.Nil(t, cmd.Run)
	assert.NotNil(t, cmd.RunE)

	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Skype.Username = "bridgeuser"
	cfg.Skype.Password = "secret"
	cfg.Skype.Room = "19:room@thread.skype"
	cfg.Gateway.Port = 0
	cfg.Heartbeat.Enabled = false
	return cfg
}

func TestRun_ReturnsLoginFailure(t *testing.T) {
	session, err := skype.New(testConfig().Skype, skype.WithAcquirer(skype.AcquirerFunc(
		func(context.Context) (*skype.Credentials, error) {
			return nil, skype.ErrAcquisitionTimeout
		})))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, testConfig(), session)
	assert.ErrorIs(t, err, skype.ErrAcquisitionTimeout)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Relay.Enabled = true

	session, err := skype.New(cfg.Skype, skype.WithAcquirer(skype.AcquirerFunc(
		func(ctx context.Context) (*skype.Credentials, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, session))
}
