package chat

import (
	"time"

	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
)

// Bus event kinds published by a Session.
const (
	KindMessageUpserted = "message.upserted"
	KindMessageRemoved  = "message.removed"
	KindStatusChanged   = "message.status_changed"
	KindPresenceChanged = "presence.changed"
	KindUnreadChanged   = "unread.changed"
	KindDeleteRejected  = "delete.rejected"
)

type MessageUpserted struct {
	Message store.Message
}

type MessageRemoved struct {
	Message store.Message
}

type StatusChanged struct {
	MessageID string
	From      status.Status
	To        status.Status
}

// PresenceChanged carries no data; subscribers re-query OnlineUsers.
type PresenceChanged struct{}

type UnreadChanged struct {
	Peer  string
	Count int
}

type DeleteRejected struct {
	MessageID string
}

func (s *Session) publish(kind string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: s.now(), Payload: payload})
}
