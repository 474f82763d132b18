package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultGatewayURL, cfg.Skype.GatewayURL)
	assert.Equal(t, DefaultPingURL, cfg.Skype.PingURL)
	assert.Equal(t, 50*time.Second, cfg.Skype.LoginTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.Skype.ActiveIntervalDuration())
	assert.Equal(t, "error.png", cfg.Skype.ScreenshotPath)
	assert.Equal(t, "/relay", cfg.Relay.Path)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Skype.GatewayURL, cfg.Skype.GatewayURL)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"skype": {"username": "bridgeuser", "password": "pw", "room": "19:abc@thread.skype", "microsoft": true}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("SKYBRIDGE_SKYPE_ROOM", "room1")
	t.Setenv("SKYBRIDGE_GATEWAY_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bridgeuser", cfg.Skype.Username)
	assert.True(t, cfg.Skype.Microsoft)
	assert.Equal(t, "room1", cfg.Skype.Room)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	// Defaults survive for fields absent from the file.
	assert.Equal(t, 50, cfg.Skype.LoginTimeout)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Skype.Username = "bridgeuser"

	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bridgeuser", loaded.Skype.Username)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skype.username")
	assert.Contains(t, err.Error(), "skype.room")

	cfg.Skype.Username = "bridgeuser"
	cfg.Skype.Password = "pw"
	cfg.Skype.Room = "room1"
	assert.NoError(t, cfg.Validate())
}

func TestSkypeConfig_SelfAndLoginURL(t *testing.T) {
	c := SkypeConfig{Username: "bridgeuser"}
	assert.Equal(t, "bridgeuser", c.Self())
	assert.Equal(t, DefaultLoginURL, c.EffectiveLoginURL())

	c.Identity = "live:bridge"
	assert.Equal(t, "live:bridge", c.Self())

	c.Microsoft = true
	assert.Equal(t, DefaultFederatedLoginURL, c.EffectiveLoginURL())
}
