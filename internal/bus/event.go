package bus

import "time"

// Event is one notification published on the bus. Kind is dotted, e.g.
// "message.upserted", so subscribers can filter by prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
