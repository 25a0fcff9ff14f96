package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type names one event on the relay surface.
type Type string

const (
	TypeJoin                  Type = "join"
	TypeOnlineUsers           Type = "onlineUsers"
	TypePrivateMessage        Type = "privateMessage"
	TypeDeleteMessage         Type = "deleteMessage"
	TypeDeleteMessageRequest  Type = "deleteMessageRequest"
	TypeDeleteMessageResponse Type = "deleteMessageResponse"
	TypeDeleteMessageQueued   Type = "deleteMessageQueued"
	TypeMessageRead           Type = "messageRead"
)

var (
	ErrMalformed    = errors.New("malformed event")
	ErrUnknownType  = errors.New("unknown event type")
	ErrMissingField = errors.New("missing required field")
)

// Envelope is the frame exchanged over the wire.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal encodes the envelope as a single JSON frame.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Payload is implemented by every typed event body.
type Payload interface {
	EventType() Type
	Validate() error
}

// Event is a decoded envelope with its typed payload.
type Event struct {
	Type    Type
	Payload Payload
}

// Encode wraps a typed payload into an envelope.
func Encode(p Payload) (Envelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", p.EventType(), err)
	}
	return Envelope{Type: p.EventType(), Payload: raw}, nil
}

// MustEncode is Encode for payloads that are known to marshal.
func MustEncode(p Payload) Envelope {
	env, err := Encode(p)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode parses a wire frame into a validated Event.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope turns an already-split envelope into a validated Event.
func DecodeEnvelope(env Envelope) (Event, error) {
	p, err := newPayload(env.Type)
	if err != nil {
		return Event{}, err
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return Event{}, fmt.Errorf("%w: %s has no payload", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Payload, p); err != nil {
		return Event{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if err := p.Validate(); err != nil {
		return Event{}, fmt.Errorf("%s: %w", env.Type, err)
	}
	return Event{Type: env.Type, Payload: deref(p)}, nil
}

func newPayload(t Type) (Payload, error) {
	switch t {
	case TypeJoin:
		return &Join{}, nil
	case TypeOnlineUsers:
		return &OnlineUsers{}, nil
	case TypePrivateMessage:
		return &PrivateMessage{}, nil
	case TypeDeleteMessage:
		return &DeleteMessage{}, nil
	case TypeDeleteMessageRequest:
		return &DeleteMessageRequest{}, nil
	case TypeDeleteMessageResponse:
		return &DeleteMessageResponse{}, nil
	case TypeDeleteMessageQueued:
		return &DeleteMessageQueued{}, nil
	case TypeMessageRead:
		return &MessageRead{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// deref hands out payloads by value so handlers can type-switch on plain structs.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *Join:
		return *v
	case *OnlineUsers:
		return *v
	case *PrivateMessage:
		return *v
	case *DeleteMessage:
		return *v
	case *DeleteMessageRequest:
		return *v
	case *DeleteMessageResponse:
		return *v
	case *DeleteMessageQueued:
		return *v
	case *MessageRead:
		return *v
	}
	return p
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
