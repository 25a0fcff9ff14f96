// Package chat is the per-client messaging engine: outbound lifecycle and
// retry, inbound dedup and notification, read receipts, unread accounting,
// and both roles of delete negotiation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/dedup"
	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/store"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoRecipient    = errors.New("no recipient")
	ErrNotFound       = errors.New("message not found")
	ErrNotOwner       = errors.New("only the sender can delete a message")
	ErrAlreadyRead    = errors.New("message was already read")
	ErrCannotDelete   = errors.New("recipient refused deletion")
	ErrDeleteInFlight = errors.New("delete already in progress")
)

const (
	DefaultNotifyWindow = 2 * time.Minute
	selfReadTTL         = time.Minute
)

// Emitter sends one event to the relay.
type Emitter interface {
	Emit(p protocol.Payload) error
}

// History is the durable message cache.
type History interface {
	LoadMessages(owner string) ([]store.Message, error)
	SaveMessages(owner string, msgs []store.Message) error
}

// Notification describes an inbound message that arrived out of focus.
type Notification struct {
	From     string
	FromName string
	Text     string
}

// Notifier surfaces inbound messages to the user. Calls must not block.
type Notifier interface {
	Alert()
	Notify(n Notification)
}

// Params holds the dependencies of a Session.
type Params struct {
	UserID string
	Name   string

	Emitter  Emitter
	History  History
	Notifier Notifier
	Bus      *bus.Bus
	Logger   *zap.Logger

	DedupSize    int
	DedupTTL     time.Duration
	NotifyWindow time.Duration

	Now    func() time.Time
	Random func() string
}

// Session holds one user's local chat state. All methods are safe for
// concurrent use; each runs to completion before the next starts.
type Session struct {
	mu sync.Mutex

	self string
	name string

	emitter  Emitter
	history  History
	notifier Notifier
	bus      *bus.Bus
	logger   *zap.Logger
	now      func() time.Time
	random   func() string

	messages []store.Message

	seenIDs  *dedup.Set
	seenSigs *dedup.Set
	notified *dedup.Set
	selfRead *dedup.Set

	online  map[string]protocol.RosterEntry
	unread  map[string]int
	focused string
	inFocus bool
}

// NewSession creates a session for p.UserID.
func NewSession(p Params) *Session {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Random == nil {
		p.Random = func() string { return uuid.NewString()[:8] }
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Notifier == nil {
		p.Notifier = nopNotifier{}
	}
	if p.NotifyWindow <= 0 {
		p.NotifyWindow = DefaultNotifyWindow
	}
	return &Session{
		self:     p.UserID,
		name:     p.Name,
		emitter:  p.Emitter,
		history:  p.History,
		notifier: p.Notifier,
		bus:      p.Bus,
		logger:   p.Logger.With(zap.String("user", p.UserID)),
		now:      p.Now,
		random:   p.Random,
		seenIDs:  dedup.New(p.DedupSize, p.DedupTTL),
		seenSigs: dedup.New(p.DedupSize, p.DedupTTL),
		notified: dedup.New(p.DedupSize, p.NotifyWindow),
		selfRead: dedup.New(p.DedupSize, selfReadTTL),
		online:   make(map[string]protocol.RosterEntry),
		unread:   make(map[string]int),
		inFocus:  true,
	}
}

// Signature is the fallback dedup key for a message.
func Signature(from, text string, timeMs int64) string {
	return from + text + strconv.FormatInt(timeMs, 10)
}

// UserID returns the local user id.
func (s *Session) UserID() string { return s.self }

// Restore loads the persisted message list and seeds the dedup sets and
// unread counters from it.
func (s *Session) Restore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.history == nil {
		return nil
	}
	msgs, err := s.history.LoadMessages(s.self)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
	clear(s.unread)
	for _, m := range msgs {
		s.seenIDs.Add(m.ID)
		s.seenSigs.Add(m.Signature)
		if m.To == s.self && m.From != s.self && m.Status == status.Received {
			s.unread[m.From]++
		}
	}
	s.logger.Info("history restored", zap.Int("messages", len(msgs)))
	return nil
}

// Join announces the local user to the relay. Call it after every connect.
func (s *Session) Join() error {
	return s.emitter.Emit(protocol.Join{UserID: s.self, Name: s.name})
}

// Disconnected forgets the roster; the next onlineUsers snapshot after a
// reconnect retries everything still pending.
func (s *Session) Disconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.online)
	s.publish(KindPresenceChanged, PresenceChanged{})
}

// Handle applies one inbound event from the relay.
func (s *Session) Handle(evt protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p := evt.Payload.(type) {
	case protocol.OnlineUsers:
		s.handleRoster(p)
	case protocol.PrivateMessage:
		s.handleMessage(p)
	case protocol.MessageRead:
		s.handleRead(p)
	case protocol.DeleteMessageRequest:
		s.handleDeleteRequest(p)
	case protocol.DeleteMessageResponse:
		s.handleDeleteResponse(p)
	case protocol.DeleteMessageQueued:
		s.handleDeleteQueued(p)
	default:
		s.logger.Debug("ignoring event", zap.String("type", string(evt.Type)))
	}
}

// Conversation returns the messages exchanged with peer in insertion order.
func (s *Session) Conversation(peer string) []store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Message
	for _, m := range s.messages {
		if (m.From == s.self && m.To == peer) || (m.From == peer && m.To == s.self) {
			out = append(out, m)
		}
	}
	return out
}

// Message returns the message with id.
func (s *Session) Message(id string) (store.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.messages[i], true
	}
	return store.Message{}, false
}

// Unread returns the unread count for peer.
func (s *Session) Unread(peer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[peer]
}

// UnreadCounts returns a copy of every non-zero unread counter.
func (s *Session) UnreadCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.unread))
	for k, v := range s.unread {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// Online reports whether userID is in the last roster.
func (s *Session) Online(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[userID]
	return ok
}

// OnlineUsers returns the last roster without the local user, sorted by id.
func (s *Session) OnlineUsers() []protocol.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.RosterEntry, 0, len(s.online))
	for id, e := range s.online {
		if id != s.self {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b protocol.RosterEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// MessageCount returns the number of messages held locally.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Focused returns the peer whose conversation is open, if any.
func (s *Session) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.messages, func(m store.Message) bool { return m.ID == id })
}

// advance moves message i to st if the transition is allowed.
func (s *Session) advance(i int, to status.Status) bool {
	m := &s.messages[i]
	if err := status.Advance(m.Status, to); err != nil {
		if !errors.Is(err, status.ErrNoChange) {
			s.logger.Debug("status not advanced", zap.String("message_id", m.ID), zap.Error(err))
		}
		return false
	}
	from := m.Status
	m.Status = to
	s.publish(KindStatusChanged, StatusChanged{MessageID: m.ID, From: from, To: to})
	return true
}

func (s *Session) remove(i int) store.Message {
	m := s.messages[i]
	s.messages = slices.Delete(s.messages, i, i+1)
	s.publish(KindMessageRemoved, MessageRemoved{Message: m})
	return m
}

// persist writes the full message list. A failed write is logged; the
// in-memory state stays authoritative for this run.
func (s *Session) persist() {
	if s.history == nil {
		return
	}
	if err := s.history.SaveMessages(s.self, s.messages); err != nil {
		s.logger.Error("save history", zap.Error(err))
	}
}

func (s *Session) emit(p protocol.Payload) error {
	if err := s.emitter.Emit(p); err != nil {
		s.logger.Warn("emit failed", zap.String("type", string(p.EventType())), zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) displayName(userID string) string {
	if e, ok := s.online[userID]; ok && e.Name != "" {
		return e.Name
	}
	return userID
}

type nopNotifier struct{}

func (nopNotifier) Alert()              {}
func (nopNotifier) Notify(Notification) {}
