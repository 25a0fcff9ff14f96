package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Relay.CloseStaleOnRejoin = true
	cfg.Client.DedupTTL = Duration{time.Hour}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if !loaded.Relay.CloseStaleOnRejoin {
		t.Error("CloseStaleOnRejoin not persisted")
	}
	if loaded.Client.DedupTTL.Duration != time.Hour {
		t.Errorf("DedupTTL = %v, want 1h", loaded.Client.DedupTTL)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[relay]\nlisten = \":9000\"\npong_wait = \"30s\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Relay.Listen != ":9000" {
		t.Errorf("Listen = %q, want :9000", cfg.Relay.Listen)
	}
	if cfg.Relay.PongWait.Duration != 30*time.Second {
		t.Errorf("PongWait = %v, want 30s", cfg.Relay.PongWait)
	}
	if cfg.Relay.EgressBuffer != DefaultRelay().EgressBuffer {
		t.Errorf("EgressBuffer = %d, want default", cfg.Relay.EgressBuffer)
	}
	if cfg.Client.RelayURL != DefaultClient().RelayURL {
		t.Errorf("RelayURL = %q, want default", cfg.Client.RelayURL)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil || cfg.DefaultProfile != "main" {
		t.Errorf("LoadOrDefault() = %+v, %v", cfg, err)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                               "4100",
		"CLIENT_URL":                         "http://a.example, http://b.example",
		"HRCHAT_RELAY_EVENT_RATE":            "5.5",
		"HRCHAT_RELAY_CLOSE_STALE_ON_REJOIN": "true",
		"HRCHAT_USER_ID":                     "u1",
		"HRCHAT_DEDUP_TTL":                   "10m",
		"HRCHAT_DEDUP_SIZE":                  "not-a-number",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if !ApplyEnv(cfg, lookup) {
		t.Fatal("ApplyEnv() = false, want true")
	}
	if cfg.Relay.Listen != ":4100" {
		t.Errorf("Listen = %q, want :4100", cfg.Relay.Listen)
	}
	if len(cfg.Relay.AllowedOrigins) != 2 || cfg.Relay.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Relay.AllowedOrigins)
	}
	if cfg.Relay.EventRate != 5.5 || !cfg.Relay.CloseStaleOnRejoin {
		t.Errorf("relay = %+v", cfg.Relay)
	}
	if cfg.Client.UserID != "u1" || cfg.Client.DedupTTL.Duration != 10*time.Minute {
		t.Errorf("client = %+v", cfg.Client)
	}
	if cfg.Client.DedupSize != DefaultClient().DedupSize {
		t.Errorf("DedupSize = %d, bad value should be ignored", cfg.Client.DedupSize)
	}

	// HRCHAT_RELAY_LISTEN wins over PORT.
	env["HRCHAT_RELAY_LISTEN"] = "127.0.0.1:7000"
	cfg = Default()
	ApplyEnv(cfg, lookup)
	if cfg.Relay.Listen != "127.0.0.1:7000" {
		t.Errorf("Listen = %q, want 127.0.0.1:7000", cfg.Relay.Listen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty listen", func(c *Config) { c.Relay.Listen = "" }, true},
		{"zero rate", func(c *Config) { c.Relay.EventRate = 0 }, true},
		{"http relay url", func(c *Config) { c.Client.RelayURL = "http://x/ws" }, true},
		{"bad directory", func(c *Config) { c.Client.DirectoryURL = "::" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Relay.Validate()
			if err == nil {
				err = cfg.Client.Validate()
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIdentityFallbacks(t *testing.T) {
	now := time.UnixMilli(42)
	tests := []struct {
		id, email, want string
	}{
		{"u1", "a@x", "u1"},
		{"", "a@x", "a@x"},
		{"", "", "anon-42"},
	}
	for _, tt := range tests {
		if got := Identity(tt.id, tt.email, now); got != tt.want {
			t.Errorf("Identity(%q, %q) = %q, want %q", tt.id, tt.email, got, tt.want)
		}
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	tests := []struct {
		first, last, email, want string
	}{
		{"Ada", "Lovelace", "a@x", "Ada Lovelace"},
		{"Ada", "", "a@x", "Ada"},
		{"", "", "a@x", "a@x"},
		{" ", "", "", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.first, tt.last, tt.email); got != tt.want {
			t.Errorf("DisplayName(%q, %q, %q) = %q, want %q", tt.first, tt.last, tt.email, got, tt.want)
		}
	}
}
