package relay

import (
	"github.com/matheus3301/hrchat/internal/pending"
	"github.com/matheus3301/hrchat/internal/presence"
	"github.com/matheus3301/hrchat/internal/protocol"
	"go.uber.org/zap"
)

func (r *Relay) dispatch(conn Conn, evt protocol.Event) {
	r.metrics.EventReceived(evt.Type)

	switch p := evt.Payload.(type) {
	case protocol.Join:
		r.handleJoin(conn, p)
	case protocol.PrivateMessage:
		r.forward(p.ToID, p)
	case protocol.DeleteMessage:
		r.handleDelete(conn, p)
	case protocol.DeleteMessageResponse:
		r.forward(p.FromID, p)
	case protocol.MessageRead:
		r.forward(p.FromID, p)
	default:
		// onlineUsers, deleteMessageRequest and deleteMessageQueued only flow relay→client.
		r.logger.Debug("ignoring client event", zap.String("type", string(evt.Type)), zap.String("conn", conn.ID()))
	}
}

func (r *Relay) handleJoin(conn Conn, p protocol.Join) {
	h := presence.Handle(conn.ID())
	if _, attached := r.conns[h]; !attached {
		r.conns[h] = conn
	}

	prev, replaced := r.registry.Join(p.UserID, h, p.Name)
	if replaced && prev.Conn != h {
		r.logger.Warn("user rejoined from a new connection",
			zap.String("user", p.UserID),
			zap.String("old_conn", string(prev.Conn)),
			zap.String("new_conn", conn.ID()),
		)
		if r.opts.CloseStaleOnRejoin {
			if old, ok := r.conns[prev.Conn]; ok {
				delete(r.conns, prev.Conn)
				if err := old.Close(); err != nil {
					r.logger.Warn("close stale connection", zap.Error(err), zap.String("conn", string(prev.Conn)))
				}
			}
		}
	}
	r.logger.Info("user joined", zap.String("user", p.UserID), zap.String("conn", conn.ID()))

	// Parked deletes get exactly one delivery attempt.
	for _, rec := range r.deletes.Drain(p.UserID) {
		r.send(conn, protocol.DeleteMessageRequest{MessageID: rec.MessageID, FromID: rec.RequesterUserID})
	}
	r.metrics.PendingDeletes(r.deletes.Len())

	r.broadcastRoster()
}

func (r *Relay) handleDetach(conn Conn) {
	h := presence.Handle(conn.ID())
	delete(r.conns, h)
	for _, e := range r.registry.Leave(h) {
		r.logger.Info("user left", zap.String("user", e.UserID), zap.String("conn", conn.ID()))
	}
	r.broadcastRoster()
}

func (r *Relay) handleDelete(conn Conn, p protocol.DeleteMessage) {
	if target, ok := r.lookup(p.ToID); ok {
		r.send(target, protocol.DeleteMessageRequest{MessageID: p.MessageID, FromID: p.FromID})
		r.metrics.Forwarded(protocol.TypeDeleteMessage, true)
		return
	}

	r.deletes.Enqueue(pending.Record{
		TargetUserID:    p.ToID,
		MessageID:       p.MessageID,
		RequesterUserID: p.FromID,
	})
	r.metrics.PendingDeletes(r.deletes.Len())
	r.logger.Info("delete queued for offline recipient",
		zap.String("message_id", p.MessageID),
		zap.String("to", p.ToID),
		zap.String("from", p.FromID),
	)
	r.send(conn, protocol.DeleteMessageQueued{MessageID: p.MessageID})
}

// forward delivers p to userID's live connection or drops it.
func (r *Relay) forward(userID string, p protocol.Payload) {
	target, ok := r.lookup(userID)
	r.metrics.Forwarded(p.EventType(), ok)
	if !ok {
		r.logger.Debug("recipient offline, dropping",
			zap.String("type", string(p.EventType())),
			zap.String("to", userID),
		)
		return
	}
	r.send(target, p)
}

func (r *Relay) lookup(userID string) (Conn, bool) {
	h, ok := r.registry.Lookup(userID)
	if !ok {
		return nil, false
	}
	conn, ok := r.conns[h]
	return conn, ok
}

func (r *Relay) broadcastRoster() {
	entries := r.registry.Roster()
	roster := make(protocol.OnlineUsers, 0, len(entries))
	for _, e := range entries {
		roster = append(roster, protocol.RosterEntry{ID: e.UserID, Name: e.Name})
	}
	for _, c := range r.conns {
		r.send(c, roster)
	}
	r.metrics.Presence(r.registry.Len(), len(r.conns))
}

func (r *Relay) send(conn Conn, p protocol.Payload) {
	env, err := protocol.Encode(p)
	if err != nil {
		r.logger.Error("encode event", zap.Error(err))
		return
	}
	if err := conn.Send(env); err != nil {
		r.logger.Warn("send failed",
			zap.Error(err),
			zap.String("type", string(env.Type)),
			zap.String("conn", conn.ID()),
		)
	}
}
