package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigPath(t *testing.T) {
	t.Cleanup(func() { ConfigPath = "" })

	t.Setenv("SKYBRIDGE_CONFIG", "")
	assert.True(t, strings.HasSuffix(GetConfigPath(), filepath.Join(".skybridge", "config.json")))

	t.Setenv("SKYBRIDGE_CONFIG", "/etc/skybridge.json")
	assert.Equal(t, "/etc/skybridge.json", GetConfigPath())

	ConfigPath = "/tmp/flag.json"
	assert.Equal(t, "/tmp/flag.json", GetConfigPath())
}

func TestLoadConfig_Validates(t *testing.T) {
	t.Cleanup(func() { ConfigPath = "" })
	dir := t.TempDir()

	ConfigPath = filepath.Join(dir, "missing.json")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "skype.username is required")

	ConfigPath = filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(ConfigPath, []byte(`{"skype":{"username":"u","password":"p","room":"19:r@thread.skype"}}`), 0o600))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "19:r@thread.skype", cfg.Skype.Room)
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", FormatVersion())
	_, goVer := FormatBuildInfo()
	assert.NotEmpty(t, goVer)
}
