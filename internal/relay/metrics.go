package relay

import "github.com/matheus3301/hrchat/internal/protocol"

// Metrics receives relay counters. Implementations must not block.
type Metrics interface {
	EventReceived(t protocol.Type)
	Forwarded(t protocol.Type, delivered bool)
	Presence(online, connections int)
	PendingDeletes(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) EventReceived(protocol.Type)   {}
func (NopMetrics) Forwarded(protocol.Type, bool) {}
func (NopMetrics) Presence(int, int)             {}
func (NopMetrics) PendingDeletes(int)            {}
