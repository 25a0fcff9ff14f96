package presence

import (
	"math/rand"
	"testing"
)

func TestJoinLookupLeave(t *testing.T) {
	r := NewRegistry()

	if _, replaced := r.Join("alice", "c1", "Alice"); replaced {
		t.Error("first join reported replaced")
	}
	h, ok := r.Lookup("alice")
	if !ok || h != "c1" {
		t.Fatalf("Lookup(alice) = %q, %v, want c1, true", h, ok)
	}

	left := r.Leave("c1")
	if len(left) != 1 || left[0].UserID != "alice" {
		t.Fatalf("Leave(c1) = %+v, want alice", left)
	}
	if _, ok := r.Lookup("alice"); ok {
		t.Error("alice still online after leave")
	}
}

func TestRejoinLastWins(t *testing.T) {
	r := NewRegistry()
	r.Join("alice", "old", "Alice")

	prev, replaced := r.Join("alice", "new", "Alice")
	if !replaced || prev.Conn != "old" {
		t.Fatalf("Join() = %+v, %v, want replaced old", prev, replaced)
	}

	// The stale handle disconnecting must not evict the newer session.
	if left := r.Leave("old"); len(left) != 0 {
		t.Errorf("Leave(old) = %+v after overwrite, want nothing", left)
	}
	h, ok := r.Lookup("alice")
	if !ok || h != "new" {
		t.Errorf("Lookup(alice) = %q, %v, want new, true", h, ok)
	}
}

func TestLeaveUnknownHandle(t *testing.T) {
	r := NewRegistry()
	if left := r.Leave("nope"); len(left) != 0 {
		t.Errorf("Leave(nope) = %+v, want nothing", left)
	}
}

func TestLeaveRemovesEveryUserOnHandle(t *testing.T) {
	r := NewRegistry()
	r.Join("alice", "c1", "Alice")
	r.Join("bob", "c1", "Bob")
	r.Join("zed", "c2", "Zed")

	left := r.Leave("c1")
	if len(left) != 2 || left[0].UserID != "alice" || left[1].UserID != "bob" {
		t.Fatalf("Leave(c1) = %+v, want alice and bob", left)
	}
	roster := r.Roster()
	if len(roster) != 1 || roster[0].UserID != "zed" {
		t.Errorf("roster = %+v, want only zed", roster)
	}
}

// TestRosterMatchesLiveEntries drives random join/leave sequences and checks
// the roster equals the set of users with a live entry after every step.
func TestRosterMatchesLiveEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	users := []string{"a", "b", "c", "d"}
	handles := []Handle{"h1", "h2", "h3", "h4", "h5", "h6"}

	r := NewRegistry()
	model := map[string]Handle{}

	for step := 0; step < 500; step++ {
		if rng.Intn(2) == 0 {
			u := users[rng.Intn(len(users))]
			h := handles[rng.Intn(len(handles))]
			// A handle belongs to one user at a time, as with real connections.
			for mu, mh := range model {
				if mh == h {
					delete(model, mu)
					r.Leave(h)
				}
			}
			r.Join(u, h, u)
			model[u] = h
		} else {
			h := handles[rng.Intn(len(handles))]
			r.Leave(h)
			for mu, mh := range model {
				if mh == h {
					delete(model, mu)
				}
			}
		}

		roster := r.Roster()
		if len(roster) != len(model) {
			t.Fatalf("step %d: roster len = %d, want %d", step, len(roster), len(model))
		}
		for i, e := range roster {
			if model[e.UserID] != e.Conn {
				t.Fatalf("step %d: roster entry %+v not live", step, e)
			}
			if i > 0 && roster[i-1].UserID >= e.UserID {
				t.Fatalf("step %d: roster not sorted", step)
			}
		}
	}
}
