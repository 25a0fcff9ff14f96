package chat

import (
	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
)

// OpenConversation focuses peer and, if the window has focus, marks every
// unread message from peer as read.
func (s *Session) OpenConversation(peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = peer
	if s.inFocus {
		s.readConversation(peer)
	}
}

// CloseConversation clears the focused peer.
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = ""
}

// SetWindowFocus records whether the UI is in the foreground. Regaining focus
// reads the open conversation.
func (s *Session) SetWindowFocus(focused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.inFocus
	s.inFocus = focused
	if focused && !was && s.focused != "" {
		s.readConversation(s.focused)
	}
}

func (s *Session) readConversation(peer string) {
	n := 0
	for i, m := range s.messages {
		if m.From == peer && m.To == s.self && m.Status != status.Read {
			if s.markRead(i) {
				n++
			}
		}
	}
	if s.unread[peer] != 0 {
		delete(s.unread, peer)
		s.publish(KindUnreadChanged, UnreadChanged{Peer: peer, Count: 0})
	}
	if n > 0 {
		s.persist()
	}
}

// markRead optimistically marks inbound message i read and emits the receipt.
func (s *Session) markRead(i int) bool {
	m := s.messages[i]
	if !s.advance(i, status.Read) {
		return false
	}
	s.selfRead.Add(m.ID)
	_ = s.emit(protocol.MessageRead{MessageID: m.ID, FromID: m.From, ReaderID: s.self})
	return true
}
