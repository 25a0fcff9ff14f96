package chat

import (
	"fmt"
	"strings"

	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
	"go.uber.org/zap"
)

// Send appends a message to the local list and emits it when the recipient
// is online. Otherwise it stays pending until the recipient shows up in a
// roster.
func (s *Session) Send(to, text string) (store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Message{}, ErrEmptyMessage
	}
	if to == "" {
		return store.Message{}, ErrNoRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	m := store.Message{
		ID:        fmt.Sprintf("%s_%d_%s", s.self, now, s.random()),
		Signature: Signature(s.self, text, now),
		From:      s.self,
		To:        to,
		Text:      text,
		Time:      now,
		Status:    status.Pending,
	}
	if _, ok := s.online[to]; ok {
		m.Status = status.Sent
	}

	// Register before anything can echo back.
	s.seenIDs.Add(m.ID)
	s.seenSigs.Add(m.Signature)
	s.messages = append(s.messages, m)
	i := len(s.messages) - 1

	if m.Status == status.Sent {
		if err := s.emit(outgoing(m)); err != nil {
			s.messages[i].Status = status.Pending
		}
	}
	s.persist()
	s.publish(KindMessageUpserted, MessageUpserted{Message: s.messages[i]})

	s.logger.Debug("message sent",
		zap.String("message_id", m.ID),
		zap.String("to", to),
		zap.String("status", string(s.messages[i].Status)),
	)
	return s.messages[i], nil
}

func outgoing(m store.Message) protocol.PrivateMessage {
	return protocol.PrivateMessage{
		ToID:    m.To,
		FromID:  m.From,
		Message: m.Text,
		ID:      m.ID,
		Time:    m.Time,
	}
}

// handleRoster replaces the online set and re-emits every pending message
// whose recipient is now online.
func (s *Session) handleRoster(roster protocol.OnlineUsers) {
	clear(s.online)
	for _, e := range roster {
		s.online[e.ID] = e
	}
	s.publish(KindPresenceChanged, PresenceChanged{})

	changed := false
	for i := range s.messages {
		m := s.messages[i]
		if m.From != s.self || m.Status != status.Pending {
			continue
		}
		if _, ok := s.online[m.To]; !ok {
			continue
		}
		if err := s.emit(outgoing(m)); err != nil {
			continue
		}
		if s.advance(i, status.Sent) {
			changed = true
			s.logger.Debug("pending message retried", zap.String("message_id", m.ID), zap.String("to", m.To))
		}
	}
	if changed {
		s.persist()
	}
}
