// Package config loads ~/.hrchat/config.toml and environment overrides for
// both the relay daemon and the chat clients.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.hrchat/config.toml.
type Config struct {
	DefaultProfile string       `toml:"default_profile"`
	Relay          RelayConfig  `toml:"relay"`
	Client         ClientConfig `toml:"client"`
}

// RelayConfig configures relayd.
type RelayConfig struct {
	Listen             string   `toml:"listen"`
	AllowedOrigins     []string `toml:"allowed_origins"`
	MaxConnsPerIP      int      `toml:"max_conns_per_ip"`
	EventRate          float64  `toml:"event_rate"`
	EventBurst         int      `toml:"event_burst"`
	EgressBuffer       int      `toml:"egress_buffer"`
	MaxMessageBytes    int64    `toml:"max_message_bytes"`
	WriteWait          Duration `toml:"write_wait"`
	PongWait           Duration `toml:"pong_wait"`
	CloseStaleOnRejoin bool     `toml:"close_stale_on_rejoin"`
	LogPath            string   `toml:"log_path"`
	LogLevel           string   `toml:"log_level"`
}

// ClientConfig configures chattui and chatctl.
type ClientConfig struct {
	RelayURL       string   `toml:"relay_url"`
	DirectoryURL   string   `toml:"directory_url"`
	UserID         string   `toml:"user_id"`
	Email          string   `toml:"email"`
	FirstName      string   `toml:"first_name"`
	LastName       string   `toml:"last_name"`
	DedupSize      int      `toml:"dedup_size"`
	DedupTTL       Duration `toml:"dedup_ttl"`
	NotifyWindow   Duration `toml:"notify_window"`
	ReconnectDelay Duration `toml:"reconnect_delay"`
	LogLevel       string   `toml:"log_level"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Relay:          DefaultRelay(),
		Client:         DefaultClient(),
	}
}

// DefaultRelay returns relay defaults.
func DefaultRelay() RelayConfig {
	return RelayConfig{
		Listen:          ":3000",
		AllowedOrigins:  []string{"http://localhost:5173"},
		MaxConnsPerIP:   20,
		EventRate:       20,
		EventBurst:      40,
		EgressBuffer:    256,
		MaxMessageBytes: 64 << 10,
		WriteWait:       Duration{10 * time.Second},
		PongWait:        Duration{60 * time.Second},
		LogLevel:        "info",
	}
}

// DefaultClient returns client defaults.
func DefaultClient() ClientConfig {
	return ClientConfig{
		RelayURL:       "ws://localhost:3000/ws",
		DirectoryURL:   "http://localhost:4000",
		DedupSize:      10000,
		DedupTTL:       Duration{24 * time.Hour},
		NotifyWindow:   Duration{2 * time.Minute},
		ReconnectDelay: Duration{3 * time.Second},
		LogLevel:       "info",
	}
}

// PingPeriod is how often the relay pings a client; it must be shorter than PongWait.
func (r RelayConfig) PingPeriod() time.Duration {
	return r.PongWait.Duration * 9 / 10
}

// Load reads config from the given path on top of Default. Returns an error if
// the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks the relay section.
func (r RelayConfig) Validate() error {
	if r.Listen == "" {
		return errors.New("relay.listen is required")
	}
	if r.MaxConnsPerIP < 0 {
		return fmt.Errorf("relay.max_conns_per_ip must be >= 0, got %d", r.MaxConnsPerIP)
	}
	if r.EventRate <= 0 || r.EventBurst <= 0 {
		return fmt.Errorf("relay.event_rate and relay.event_burst must be positive")
	}
	if r.EgressBuffer <= 0 {
		return fmt.Errorf("relay.egress_buffer must be positive, got %d", r.EgressBuffer)
	}
	if r.MaxMessageBytes <= 0 {
		return fmt.Errorf("relay.max_message_bytes must be positive, got %d", r.MaxMessageBytes)
	}
	if r.WriteWait.Duration <= 0 || r.PongWait.Duration <= 0 {
		return errors.New("relay.write_wait and relay.pong_wait must be positive")
	}
	return nil
}

// Validate checks the client section.
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.RelayURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("client.relay_url must be a ws:// or wss:// URL, got %q", c.RelayURL)
	}
	if c.DirectoryURL != "" {
		if u, err := url.Parse(c.DirectoryURL); err != nil || u.Host == "" {
			return fmt.Errorf("client.directory_url is not a valid URL: %q", c.DirectoryURL)
		}
	}
	if c.DedupSize < 0 {
		return fmt.Errorf("client.dedup_size must be >= 0, got %d", c.DedupSize)
	}
	if c.ReconnectDelay.Duration <= 0 {
		return errors.New("client.reconnect_delay must be positive")
	}
	return nil
}

// DisplayName is "first last" trimmed, else the email, else "Unknown".
func (c ClientConfig) DisplayName() string {
	return DisplayName(c.FirstName, c.LastName, c.Email)
}

// Identity is the user id, else the email, else anon-<unix millis>.
func (c ClientConfig) Identity(now time.Time) string {
	return Identity(c.UserID, c.Email, now)
}
