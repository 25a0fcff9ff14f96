package store

import "github.com/matheus3301/hrchat/internal/status"

// Message is one chat message as held by the local client.
type Message struct {
	ID           string
	Signature    string
	From         string
	To           string
	Text         string
	Time         int64 // unix millis
	Status       status.Status
	Deleting     bool
	CannotDelete bool
}

// Peer returns the other party of the conversation from self's point of view.
func (m Message) Peer(self string) string {
	if m.From == self {
		return m.To
	}
	return m.From
}

// Contact is a directory entry cached for offline display.
type Contact struct {
	ID    string
	Email string
	Name  string
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
