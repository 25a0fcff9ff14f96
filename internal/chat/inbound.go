package chat

import (
	"fmt"
	"slices"

	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
	"go.uber.org/zap"
)

func (s *Session) handleMessage(p protocol.PrivateMessage) {
	// A missing time stays out of the signature so re-deliveries of the
	// same id-less message still collide.
	sig := Signature(p.FromID, p.Message, p.Time)
	t := p.Time
	if t == 0 {
		t = s.now().UnixMilli()
	}

	if p.FromID == s.self {
		s.reconcileEcho(p.ID, sig)
		return
	}

	if s.seenIDs.Has(p.ID) || s.seenSigs.Has(sig) || s.holds(p.ID, sig) {
		s.logger.Debug("duplicate message dropped", zap.String("message_id", p.ID), zap.String("from", p.FromID))
		return
	}

	id := p.ID
	if id == "" {
		id = fmt.Sprintf("%s_%d_%s", p.FromID, t, s.random())
	}
	s.seenIDs.Add(id)
	s.seenSigs.Add(sig)

	m := store.Message{
		ID:        id,
		Signature: sig,
		From:      p.FromID,
		To:        s.self,
		Text:      p.Message,
		Time:      t,
		Status:    status.Received,
	}
	s.messages = append(s.messages, m)
	i := len(s.messages) - 1
	s.publish(KindMessageUpserted, MessageUpserted{Message: m})

	if s.focused == p.FromID && s.inFocus {
		s.markRead(i)
	} else {
		s.unread[p.FromID]++
		s.publish(KindUnreadChanged, UnreadChanged{Peer: p.FromID, Count: s.unread[p.FromID]})
		s.notifier.Alert()
		if !s.notified.Has(sig) {
			s.notified.Add(sig)
			s.notifier.Notify(Notification{From: p.FromID, FromName: s.displayName(p.FromID), Text: p.Message})
		}
	}
	s.persist()
}

// holds reports whether the message list already has id or sig. The dedup
// sets are bounded, so this catches what they have evicted.
func (s *Session) holds(id, sig string) bool {
	if id != "" && s.indexOf(id) >= 0 {
		return true
	}
	return slices.ContainsFunc(s.messages, func(m store.Message) bool { return m.Signature == sig })
}

// reconcileEcho marks a pending message as sent when the relay echoes it back.
func (s *Session) reconcileEcho(id, sig string) {
	i := s.indexOf(id)
	if i < 0 {
		for j, m := range s.messages {
			if m.From == s.self && m.Signature == sig {
				i = j
				break
			}
		}
	}
	if i < 0 {
		return
	}
	if s.advance(i, status.Sent) {
		s.persist()
	}
}

// handleRead applies a read receipt to one of our outbound messages.
func (s *Session) handleRead(p protocol.MessageRead) {
	if s.selfRead.Take(p.MessageID) {
		return
	}
	i := s.indexOf(p.MessageID)
	if i < 0 || s.messages[i].From != s.self {
		return
	}
	if s.advance(i, status.Read) {
		s.persist()
	}
}
