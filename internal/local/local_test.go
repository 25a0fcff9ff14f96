package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/lock"
	"github.com/matheus3301/hrchat/internal/profile"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
)

func writeConfig(t *testing.T, home string, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(home, "config.toml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCreatesProfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HRCHAT_HOME", home)
	cfg := config.Default()
	cfg.Client.UserID = "alice"
	cfg.Client.FirstName = "Alice"
	cfg.Client.DirectoryURL = ""
	path := writeConfig(t, home, cfg)

	env, err := Open(context.Background(), Options{Profile: "work", ConfigPath: path, Lock: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = env.Close() }()

	if env.Profile != "work" {
		t.Errorf("profile = %q, want %q", env.Profile, "work")
	}
	if env.Self.ID != "alice" {
		t.Errorf("self = %q, want %q", env.Self.ID, "alice")
	}
	if env.Directory != nil {
		t.Error("directory client built without a directory url")
	}
	if _, err := os.Stat(profile.HistoryDBPath("work")); err != nil {
		t.Errorf("history db not created: %v", err)
	}
	if env.Session.UserID() != "alice" {
		t.Errorf("session user = %q, want %q", env.Session.UserID(), "alice")
	}
}

func TestOpenRestoresHistory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HRCHAT_HOME", home)
	cfg := config.Default()
	cfg.Client.UserID = "alice"
	path := writeConfig(t, home, cfg)

	env, err := Open(context.Background(), Options{Profile: "main", ConfigPath: path})
	if err != nil {
		t.Fatal(err)
	}
	msgs := []store.Message{
		{ID: "m1", Signature: "s1", From: "bob", To: "alice", Text: "hi", Time: 1, Status: status.Received},
	}
	if err := env.DB.SaveMessages("alice", msgs); err != nil {
		t.Fatal(err)
	}
	if err := env.Close(); err != nil {
		t.Fatal(err)
	}

	env, err = Open(context.Background(), Options{Profile: "main", ConfigPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = env.Close() }()
	if got := env.Session.MessageCount(); got != 1 {
		t.Errorf("restored %d messages, want 1", got)
	}
	if got := env.Session.Unread("bob"); got != 1 {
		t.Errorf("unread from bob = %d, want 1", got)
	}
}

func TestOpenRejectsSecondLockHolder(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HRCHAT_HOME", home)
	cfg := config.Default()
	cfg.Client.UserID = "alice"
	path := writeConfig(t, home, cfg)

	first, err := Open(context.Background(), Options{ConfigPath: path, Lock: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = first.Close() }()

	_, err = Open(context.Background(), Options{ConfigPath: path, Lock: true})
	var held *lock.LockHeldError
	if !errors.As(err, &held) {
		t.Fatalf("second Open error = %v, want LockHeldError", err)
	}
}

func TestOpenValidates(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HRCHAT_HOME", home)

	tests := []struct {
		name    string
		profile string
		mutate  func(*config.Config)
	}{
		{"bad profile name", "../escape", func(*config.Config) {}},
		{"bad relay url", "main", func(c *config.Config) { c.Client.RelayURL = "http://relay" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			path := writeConfig(t, home, cfg)
			if _, err := Open(context.Background(), Options{Profile: tt.profile, ConfigPath: path}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
