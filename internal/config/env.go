package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads ./.env into the process environment if present.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
}

// ApplyEnv overrides cfg from the environment and reports whether any
// variable was used. PORT and CLIENT_URL are honored for compatibility
// with the web deployment; HRCHAT_* variables win over them.
func ApplyEnv(cfg *Config, lookup LookupFunc) bool {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	used := false
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
			used = true
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
				used = true
			}
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				*dst = f
				used = true
			}
		}
	}
	duration := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				dst.Duration = d
				used = true
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
				used = true
			}
		}
	}

	r := &cfg.Relay
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		r.Listen = ":" + strings.TrimSpace(v)
		used = true
	}
	if v, ok := lookup("CLIENT_URL"); ok && strings.TrimSpace(v) != "" {
		r.AllowedOrigins = parseList(v)
		used = true
	}
	str("HRCHAT_RELAY_LISTEN", &r.Listen)
	if v, ok := lookup("HRCHAT_RELAY_ALLOWED_ORIGINS"); ok {
		r.AllowedOrigins = parseList(v)
		used = true
	}
	integer("HRCHAT_RELAY_MAX_CONNS_PER_IP", &r.MaxConnsPerIP)
	float("HRCHAT_RELAY_EVENT_RATE", &r.EventRate)
	integer("HRCHAT_RELAY_EVENT_BURST", &r.EventBurst)
	boolean("HRCHAT_RELAY_CLOSE_STALE_ON_REJOIN", &r.CloseStaleOnRejoin)
	str("HRCHAT_RELAY_LOG_PATH", &r.LogPath)
	str("HRCHAT_RELAY_LOG_LEVEL", &r.LogLevel)

	c := &cfg.Client
	str("HRCHAT_RELAY_URL", &c.RelayURL)
	str("HRCHAT_DIRECTORY_URL", &c.DirectoryURL)
	str("HRCHAT_USER_ID", &c.UserID)
	str("HRCHAT_EMAIL", &c.Email)
	str("HRCHAT_FIRST_NAME", &c.FirstName)
	str("HRCHAT_LAST_NAME", &c.LastName)
	integer("HRCHAT_DEDUP_SIZE", &c.DedupSize)
	duration("HRCHAT_DEDUP_TTL", &c.DedupTTL)
	duration("HRCHAT_RECONNECT_DELAY", &c.ReconnectDelay)
	str("HRCHAT_CLIENT_LOG_LEVEL", &c.LogLevel)

	return used
}

func parseList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
