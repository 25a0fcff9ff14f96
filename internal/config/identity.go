package config

import (
	"fmt"
	"strings"
	"time"
)

// DisplayName builds a user's display name with the directory's fallbacks.
func DisplayName(first, last, email string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "Unknown"
}

// Identity picks a stable user id: the account id, else the email.
// Without either the id is anonymous and only stable for this run.
func Identity(id, email string, now time.Time) string {
	if id != "" {
		return id
	}
	if email != "" {
		return email
	}
	return fmt.Sprintf("anon-%d", now.UnixMilli())
}
