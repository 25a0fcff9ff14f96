package chat

import (
	"fmt"

	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
	"go.uber.org/zap"
)

// RequestDelete starts delete negotiation for one of our messages.
func (s *Session) RequestDelete(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return ErrNotFound
	}
	m := &s.messages[i]
	switch {
	case m.From != s.self:
		return ErrNotOwner
	case m.CannotDelete:
		return ErrCannotDelete
	case m.Status == status.Read:
		return ErrAlreadyRead
	case m.Deleting:
		return ErrDeleteInFlight
	}

	if err := s.emit(protocol.DeleteMessage{MessageID: m.ID, ToID: m.To, FromID: s.self}); err != nil {
		return fmt.Errorf("request delete: %w", err)
	}
	m.Deleting = true
	s.persist()
	s.publish(KindMessageUpserted, MessageUpserted{Message: *m})
	return nil
}

// handleDeleteRequest answers a peer asking to delete a message they sent us.
func (s *Session) handleDeleteRequest(p protocol.DeleteMessageRequest) {
	success := true
	i := s.indexOf(p.MessageID)
	switch {
	case i < 0:
		// Unknown id: treat as already gone.
	case s.messages[i].From != p.FromID:
		success = false
	case s.messages[i].Status == status.Read:
		success = false
	default:
		m := s.remove(i)
		if m.Status == status.Received && s.unread[m.From] > 0 {
			s.unread[m.From]--
			s.publish(KindUnreadChanged, UnreadChanged{Peer: m.From, Count: s.unread[m.From]})
		}
		s.persist()
	}

	s.logger.Info("delete request answered",
		zap.String("message_id", p.MessageID),
		zap.String("from", p.FromID),
		zap.Bool("success", success),
	)
	_ = s.emit(protocol.DeleteMessageResponse{MessageID: p.MessageID, FromID: p.FromID, Success: success})
}

// handleDeleteResponse applies the recipient's verdict to our message.
func (s *Session) handleDeleteResponse(p protocol.DeleteMessageResponse) {
	i := s.indexOf(p.MessageID)
	if i < 0 || s.messages[i].From != s.self {
		return
	}
	if p.Success {
		s.remove(i)
		s.persist()
		return
	}

	m := &s.messages[i]
	m.Deleting = false
	m.CannotDelete = true
	s.persist()
	s.publish(KindMessageUpserted, MessageUpserted{Message: *m})
	s.publish(KindDeleteRejected, DeleteRejected{MessageID: m.ID})
}

// handleDeleteQueued removes our message once the relay parked the request.
func (s *Session) handleDeleteQueued(p protocol.DeleteMessageQueued) {
	i := s.indexOf(p.MessageID)
	if i < 0 || s.messages[i].From != s.self {
		return
	}
	s.remove(i)
	s.persist()
}
