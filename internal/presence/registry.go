// Package presence maps user identities to their live relay connection.
package presence

import "sort"

// Handle identifies one live transport connection.
type Handle string

// Entry is a connected user.
type Entry struct {
	UserID string
	Conn   Handle
	Name   string
}

// Registry is the relay's source of truth for online/offline.
// It is not safe for concurrent use; the relay loop owns it.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Join inserts or overwrites the entry for userID (last join wins).
// It returns the entry it replaced, if any.
func (r *Registry) Join(userID string, conn Handle, name string) (Entry, bool) {
	prev, replaced := r.entries[userID]
	r.entries[userID] = Entry{UserID: userID, Conn: conn, Name: name}
	return prev, replaced
}

// Leave removes every entry bound to conn and returns them. One connection
// may have joined under several user ids. A handle that was overwritten by a
// newer join matches nothing.
func (r *Registry) Leave(conn Handle) []Entry {
	var left []Entry
	for id, e := range r.entries {
		if e.Conn == conn {
			delete(r.entries, id)
			left = append(left, e)
		}
	}
	sort.Slice(left, func(i, j int) bool { return left[i].UserID < left[j].UserID })
	return left
}

// Lookup returns the live handle for userID.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	e, ok := r.entries[userID]
	return e.Conn, ok
}

// Roster returns every live entry ordered by user id.
func (r *Registry) Roster() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	return len(r.entries)
}
