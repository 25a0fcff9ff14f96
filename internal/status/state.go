// Package status enforces the forward-only lifecycle of a chat message.
package status

import (
	"errors"
	"fmt"
	"slices"
)

// Status is the delivery state of one message.
type Status string

const (
	// Pending: recipient was offline at send time.
	Pending Status = "pending"
	// Sent: handed to the relay while the recipient was online.
	Sent Status = "sent"
	// Received: an inbound message accepted locally.
	Received Status = "received"
	// Read: the recipient acknowledged it.
	Read Status = "read"
)

// ErrNoChange is returned when from and to are the same status.
var ErrNoChange = errors.New("status unchanged")

// validTransitions defines allowed status transitions.
var validTransitions = map[Status][]Status{
	Pending:  {Sent, Read},
	Sent:     {Read},
	Received: {Read},
	Read:     {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Outbound reports whether s belongs to a message the local user sent.
func (s Status) Outbound() bool {
	return s == Pending || s == Sent
}

// Advance checks that a message may move from one status to another.
// Regressions and unknown statuses are rejected.
func Advance(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("unknown status %q", from)
	}
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", to)
	}
	if from == to {
		return ErrNoChange
	}
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// Parse converts a stored string into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
