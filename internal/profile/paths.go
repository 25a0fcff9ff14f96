// Package profile lays out per-user client state under ~/.hrchat.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.hrchat, or $HRCHAT_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("HRCHAT_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hrchat")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// HistoryDBPath returns the local message history database path.
func HistoryDBPath(name string) string {
	return filepath.Join(Dir(name), "history.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "client.log")
}

// RelayLogPath returns the default relayd log file path.
func RelayLogPath() string {
	return filepath.Join(BaseDir(), "logs", "relayd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
