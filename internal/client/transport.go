// Package client connects a chat session to the relay over websocket and
// keeps it connected.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/protocol"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Emit while no relay connection is up.
var ErrNotConnected = errors.New("not connected to relay")

// KindConnection is published on the bus whenever the link goes up or down.
const KindConnection = "connection.changed"

// ConnectionChanged is the payload of KindConnection.
type ConnectionChanged struct {
	Connected bool
	Err       string
}

// Session is the side of the chat engine the transport drives.
type Session interface {
	Handle(evt protocol.Event)
	Join() error
	Disconnected()
}

// Options configures a Transport.
type Options struct {
	URL            string
	ReconnectDelay time.Duration
	WriteWait      time.Duration
	MaxFrameBytes  int64
	Dialer         *websocket.Dialer
}

// Transport owns the websocket link and implements chat.Emitter.
type Transport struct {
	opts   Options
	bus    *bus.Bus
	logger *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a disconnected transport. b may be nil.
func New(opts Options, b *bus.Bus, logger *zap.Logger) *Transport {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 3 * time.Second
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = 64 << 10
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{opts: opts, bus: b, logger: logger}
}

// Connected reports whether a relay connection is currently up.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Emit writes p to the relay. Frames are never queued while disconnected.
func (t *Transport) Emit(p protocol.Payload) error {
	env, err := protocol.Encode(p)
	if err != nil {
		return err
	}
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotConnected
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.opts.WriteWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = t.conn.Close()
		return err
	}
	return nil
}

// Run connects, joins and pumps inbound events into sess until ctx is
// cancelled, reconnecting after ReconnectDelay whenever the link drops.
func (t *Transport) Run(ctx context.Context, sess Session) error {
	for {
		err := t.session(ctx, sess)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.logger.Warn("relay connection lost", zap.Error(err), zap.Duration("retry_in", t.opts.ReconnectDelay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.opts.ReconnectDelay):
		}
	}
}

// RunOnce connects and serves a single relay session, returning when it ends.
func (t *Transport) RunOnce(ctx context.Context, sess Session) error {
	return t.session(ctx, sess)
}

func (t *Transport) session(ctx context.Context, sess Session) error {
	ws, _, err := t.opts.Dialer.DialContext(ctx, t.opts.URL, nil)
	if err != nil {
		t.publish(false, err)
		return err
	}
	ws.SetReadLimit(t.opts.MaxFrameBytes)

	t.mu.Lock()
	t.conn = ws
	t.mu.Unlock()
	t.logger.Info("connected to relay", zap.String("url", t.opts.URL))
	t.publish(true, nil)

	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	if err := sess.Join(); err != nil {
		t.drop(ws, sess, err)
		return err
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.drop(ws, sess, err)
			return err
		}
		evt, err := protocol.Decode(data)
		if err != nil {
			t.logger.Debug("ignoring undecodable frame", zap.Error(err))
			continue
		}
		sess.Handle(evt)
	}
}

func (t *Transport) drop(ws *websocket.Conn, sess Session, cause error) {
	t.mu.Lock()
	if t.conn == ws {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = ws.Close()
	sess.Disconnected()
	t.publish(false, cause)
}

func (t *Transport) publish(connected bool, err error) {
	if t.bus == nil {
		return
	}
	payload := ConnectionChanged{Connected: connected}
	if err != nil {
		payload.Err = err.Error()
	}
	t.bus.Publish(bus.Event{Kind: KindConnection, Payload: payload})
}
