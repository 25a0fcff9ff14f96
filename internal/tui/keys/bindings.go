// Package keys maps key events to actions, per page and globally.
package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings in registration order. Page bindings shadow
// global ones; re-registering a name replaces the earlier action.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(name string, action *Action) {
	action.Name = name
	r.global = upsert(r.global, action)
}

// AddView registers a binding active only on view.
func (r *Registry) AddView(view, name string, action *Action) {
	action.Name = name
	r.views[view] = upsert(r.views[view], action)
}

func upsert(list []*Action, a *Action) []*Action {
	for i, existing := range list {
		if existing.Name == a.Name {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

// Hints returns visible descriptions for view, page bindings first.
func (r *Registry) Hints(view string) []string {
	var hints []string
	for _, a := range r.views[view] {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	return hints
}

// HandleEvent runs the first action matching ev, page bindings first.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
