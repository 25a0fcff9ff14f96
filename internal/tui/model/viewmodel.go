// Package model derives what the terminal UI shows from the chat session,
// the cached directory and the local history.
package model

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
)

// Session is the read side of chat.Session the UI renders from.
type Session interface {
	UserID() string
	OnlineUsers() []protocol.RosterEntry
	UnreadCounts() map[string]int
	Conversation(peer string) []store.Message
	MessageCount() int
}

// Searcher runs full-history text search.
type Searcher interface {
	SearchMessages(owner, query, peer string, limit int) ([]store.SearchResult, error)
}

// Peer is one row of the peer list.
type Peer struct {
	ID       string
	Name     string
	Email    string
	Online   bool
	Unread   int
	LastText string
	LastAt   int64
}

// Line is one rendered message in a thread.
type Line struct {
	ID     string
	Mine   bool
	Sender string
	Text   string
	Time   int64
	Marker string
}

// ViewModel caches directory contacts and answers view queries.
type ViewModel struct {
	session  Session
	searcher Searcher

	mu       sync.RWMutex
	contacts map[string]store.Contact
}

// NewViewModel creates a view model over s. searcher may be nil.
func NewViewModel(s Session, searcher Searcher) *ViewModel {
	return &ViewModel{
		session:  s,
		searcher: searcher,
		contacts: make(map[string]store.Contact),
	}
}

// SetContacts replaces the directory snapshot.
func (vm *ViewModel) SetContacts(contacts []store.Contact) {
	m := make(map[string]store.Contact, len(contacts))
	for _, c := range contacts {
		m[c.ID] = c
	}
	vm.mu.Lock()
	vm.contacts = m
	vm.mu.Unlock()
}

// Peers lists every known user except self: directory contacts plus anyone
// online who is not in the directory. Online peers come first, each group
// sorted by name. filter matches name, id or email case-insensitively.
func (vm *ViewModel) Peers(filter string) []Peer {
	self := vm.session.UserID()
	unread := vm.session.UnreadCounts()

	vm.mu.RLock()
	byID := make(map[string]*Peer, len(vm.contacts))
	for id, c := range vm.contacts {
		byID[id] = &Peer{ID: id, Name: c.Name, Email: c.Email}
	}
	vm.mu.RUnlock()

	for _, e := range vm.session.OnlineUsers() {
		p, ok := byID[e.ID]
		if !ok {
			p = &Peer{ID: e.ID, Name: e.Name}
			byID[e.ID] = p
		}
		if p.Name == "" {
			p.Name = e.Name
		}
		p.Online = true
	}
	delete(byID, self)

	filter = strings.ToLower(strings.TrimSpace(filter))
	peers := make([]Peer, 0, len(byID))
	for _, p := range byID {
		if p.Name == "" {
			p.Name = p.ID
		}
		if filter != "" && !matches(*p, filter) {
			continue
		}
		p.Unread = unread[p.ID]
		if conv := vm.session.Conversation(p.ID); len(conv) > 0 {
			last := conv[len(conv)-1]
			p.LastText = last.Text
			p.LastAt = last.Time
		}
		peers = append(peers, *p)
	}

	slices.SortFunc(peers, func(a, b Peer) int {
		if a.Online != b.Online {
			if a.Online {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return peers
}

func matches(p Peer, filter string) bool {
	for _, s := range []string{p.Name, p.ID, p.Email} {
		if strings.Contains(strings.ToLower(s), filter) {
			return true
		}
	}
	return false
}

// PeerName returns the best display name for id.
func (vm *ViewModel) PeerName(id string) string {
	vm.mu.RLock()
	c, ok := vm.contacts[id]
	vm.mu.RUnlock()
	if ok && c.Name != "" {
		return c.Name
	}
	for _, e := range vm.session.OnlineUsers() {
		if e.ID == id && e.Name != "" {
			return e.Name
		}
	}
	return id
}

// Contact returns the directory entry for id.
func (vm *ViewModel) Contact(id string) (store.Contact, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	c, ok := vm.contacts[id]
	return c, ok
}

// Thread renders the conversation with peer, oldest first.
func (vm *ViewModel) Thread(peer string) []Line {
	self := vm.session.UserID()
	name := vm.PeerName(peer)
	conv := vm.session.Conversation(peer)
	lines := make([]Line, 0, len(conv))
	for _, m := range conv {
		mine := m.From == self
		sender := name
		if mine {
			sender = "You"
		}
		lines = append(lines, Line{
			ID:     m.ID,
			Mine:   mine,
			Sender: sender,
			Text:   m.Text,
			Time:   m.Time,
			Marker: Marker(m, self),
		})
	}
	return lines
}

// Marker is the status tag shown after a message: delivery state for our
// own messages and delete negotiation state. Inbound messages carry none.
func Marker(m store.Message, self string) string {
	if m.From != self {
		return ""
	}
	switch {
	case m.Deleting:
		return "[deleting]"
	case m.CannotDelete:
		return "[kept]"
	}
	switch m.Status {
	case status.Pending:
		return "[pending]"
	case status.Sent:
		return "[sent]"
	case status.Read:
		return "[read]"
	}
	return ""
}

// TotalUnread sums unread counts over all peers.
func (vm *ViewModel) TotalUnread() int {
	total := 0
	for _, n := range vm.session.UnreadCounts() {
		total += n
	}
	return total
}

// MessageCount returns how many messages are held locally.
func (vm *ViewModel) MessageCount() int {
	return vm.session.MessageCount()
}

// Search runs query over the local history, optionally within one peer.
func (vm *ViewModel) Search(query, peer string) ([]store.SearchResult, error) {
	if vm.searcher == nil {
		return nil, nil
	}
	return vm.searcher.SearchMessages(vm.session.UserID(), query, peer, 50)
}
