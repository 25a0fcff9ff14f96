package tui

import (
	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/chat"
)

// Bus kinds the Notifier publishes for the app to render.
const (
	KindAlert   = "notify.alert"
	KindMessage = "notify.message"
)

// Notifier implements chat.Notifier by publishing on the bus, so the
// session never waits on the UI.
type Notifier struct {
	bus *bus.Bus
}

// NewNotifier creates a notifier publishing on b.
func NewNotifier(b *bus.Bus) *Notifier {
	return &Notifier{bus: b}
}

func (n *Notifier) Alert() {
	n.bus.Publish(bus.Event{Kind: KindAlert})
}

func (n *Notifier) Notify(note chat.Notification) {
	n.bus.Publish(bus.Event{Kind: KindMessage, Payload: note})
}
