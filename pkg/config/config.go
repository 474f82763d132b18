package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultGatewayURL = "https://client-s.gateway.messenger.live.com"
	DefaultPingURL    = "https://web.skype.com/api/v1/session-ping"
	DefaultLoginURL   = "https://web.skype.com"

	// DefaultFederatedLoginURL is the Microsoft account login surface that
	// redirects back into the Skype web client.
	DefaultFederatedLoginURL = "https://login.live.com/ppsecure/post.srf?wa=wsignin1.0&rpsnv=13&ct=1476159250" +
		"&rver=6.6.6577.0&wp=MBI_SSL&wreply=https%3A%2F%2Flw.skype.com%2Flogin%2Foauth%2Fproxy%3Fclient_id%3D578134" +
		"%26redirect_uri%3Dhttps%253A%252F%252Fweb.skype.com%252F%26site_name%3Dlw.skype.com&lc=1033&id=293290&mkt=en-US"
)

type Config struct {
	Skype     SkypeConfig     `json:"skype"`
	Gateway   GatewayConfig   `json:"gateway"`
	Relay     RelayConfig     `json:"relay"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

type SkypeConfig struct {
	Username    string `env:"SKYBRIDGE_SKYPE_USERNAME"     json:"username"`
	Password    string `env:"SKYBRIDGE_SKYPE_PASSWORD"     json:"password"`
	Microsoft   bool   `env:"SKYBRIDGE_SKYPE_MICROSOFT"    json:"microsoft"` // federated (Microsoft account) login
	Room        string `env:"SKYBRIDGE_SKYPE_ROOM"         json:"room"`
	DisplayName string `env:"SKYBRIDGE_SKYPE_DISPLAY_NAME" json:"display_name"`
	// Identity is the bridge's own contact id, used to suppress echoes of its
	// own messages. Defaults to Username.
	Identity string `env:"SKYBRIDGE_SKYPE_IDENTITY" json:"identity,omitempty"`
	// AllowFrom limits relayed inbound messages to these contact ids. Empty
	// allows everyone in the room.
	AllowFrom []string `env:"SKYBRIDGE_SKYPE_ALLOW_FROM" json:"allow_from,omitempty"`

	GatewayURL        string `env:"SKYBRIDGE_SKYPE_GATEWAY_URL"         json:"gateway_url,omitempty"`
	PingURL           string `env:"SKYBRIDGE_SKYPE_PING_URL"            json:"ping_url,omitempty"`
	LoginURL          string `env:"SKYBRIDGE_SKYPE_LOGIN_URL"           json:"login_url,omitempty"`
	FederatedLoginURL string `env:"SKYBRIDGE_SKYPE_FEDERATED_LOGIN_URL" json:"federated_login_url,omitempty"`

	LoginTimeout   int    `env:"SKYBRIDGE_SKYPE_LOGIN_TIMEOUT"   json:"login_timeout"`   // seconds
	ActiveInterval int    `env:"SKYBRIDGE_SKYPE_ACTIVE_INTERVAL" json:"active_interval"` // seconds
	ChromePath     string `env:"SKYBRIDGE_SKYPE_CHROME_PATH"     json:"chrome_path,omitempty"`
	Headless       bool   `env:"SKYBRIDGE_SKYPE_HEADLESS"        json:"headless"`
	ScreenshotPath string `env:"SKYBRIDGE_SKYPE_SCREENSHOT_PATH" json:"screenshot_path"`
}

// Self returns the contact id the bridge posts as.
func (c SkypeConfig) Self() string {
	if c.Identity != "" {
		return c.Identity
	}
	return c.Username
}

func (c SkypeConfig) LoginTimeoutDuration() time.Duration {
	return time.Duration(c.LoginTimeout) * time.Second
}

func (c SkypeConfig) ActiveIntervalDuration() time.Duration {
	return time.Duration(c.ActiveInterval) * time.Second
}

// EffectiveLoginURL returns the login surface selected by the Microsoft flag.
func (c SkypeConfig) EffectiveLoginURL() string {
	if c.Microsoft {
		if c.FederatedLoginURL != "" {
			return c.FederatedLoginURL
		}
		return DefaultFederatedLoginURL
	}
	if c.LoginURL != "" {
		return c.LoginURL
	}
	return DefaultLoginURL
}

type GatewayConfig struct {
	Host string `env:"SKYBRIDGE_GATEWAY_HOST" json:"host"`
	Port int    `env:"SKYBRIDGE_GATEWAY_PORT" json:"port"`
}

type RelayConfig struct {
	Enabled bool   `env:"SKYBRIDGE_RELAY_ENABLED" json:"enabled"`
	Path    string `env:"SKYBRIDGE_RELAY_PATH"    json:"path"`
	Token   string `env:"SKYBRIDGE_RELAY_TOKEN"   json:"token,omitempty"`
	Source  string `env:"SKYBRIDGE_RELAY_SOURCE"  json:"source"` // attribution label for forwarded messages
}

type HeartbeatConfig struct {
	Enabled      bool   `env:"SKYBRIDGE_HEARTBEAT_ENABLED"       json:"enabled"`
	PingSchedule string `env:"SKYBRIDGE_HEARTBEAT_PING_SCHEDULE" json:"ping_schedule"` // cron expression
}

func DefaultConfig() *Config {
	return &Config{
		Skype: SkypeConfig{
			DisplayName:    "skybridge",
			GatewayURL:     DefaultGatewayURL,
			PingURL:        DefaultPingURL,
			LoginTimeout:   50,
			ActiveInterval: 10,
			Headless:       true,
			ScreenshotPath: "error.png",
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 18790,
		},
		Relay: RelayConfig{
			Enabled: false,
			Path:    "/relay",
			Source:  "relay",
		},
		Heartbeat: HeartbeatConfig{
			Enabled:      true,
			PingSchedule: "*/5 * * * *",
		},
	}
}

// Validate checks the fields the Skype session cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Skype.Username == "" {
		errs = append(errs, errors.New("skype.username is required"))
	}
	if c.Skype.Password == "" {
		errs = append(errs, errors.New("skype.password is required"))
	}
	if c.Skype.Room == "" {
		errs = append(errs, errors.New("skype.room is required"))
	}
	if c.Skype.LoginTimeout <= 0 {
		errs = append(errs, fmt.Errorf("skype.login_timeout must be positive, got %d", c.Skype.LoginTimeout))
	}
	if c.Skype.ActiveInterval <= 0 {
		errs = append(errs, fmt.Errorf("skype.active_interval must be positive, got %d", c.Skype.ActiveInterval))
	}
	return errors.Join(errs...)
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// The file carries the account password.
	return os.WriteFile(path, data, 0o600)
}
