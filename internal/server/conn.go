package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matheus3301/hrchat/internal/protocol"
	"go.uber.org/zap"
)

var (
	errConnClosed = errors.New("connection closed")
	errEgressFull = errors.New("egress buffer full")
)

// wsConn is one websocket client. It implements relay.Conn.
type wsConn struct {
	id  string
	ip  string
	ws  *websocket.Conn
	srv *Server

	egress    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(s *Server, ws *websocket.Conn, ip string) *wsConn {
	return &wsConn{
		id:     uuid.NewString(),
		ip:     ip,
		ws:     ws,
		srv:    s,
		egress: make(chan []byte, s.opts.EgressBuffer),
		done:   make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues env for the write pump. A client that cannot keep up is kicked.
func (c *wsConn) Send(env protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.egress <- data:
		return nil
	default:
		c.srv.metrics.Rejected("egress_full")
		c.srv.logger.Warn("egress full, kicking client", zap.String("conn", c.id))
		_ = c.Close()
		return errEgressFull
	}
}

// Close is idempotent.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.srv.opts.WriteWait))
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) readPump() {
	defer func() {
		_ = c.srv.relay.Detach(c)
		c.srv.conns.Release(c.ip)
		c.srv.events.Forget(c.id)
		c.srv.untrack(c)
		_ = c.Close()
		c.srv.logger.Info("client disconnected", zap.String("conn", c.id))
	}()

	if c.srv.opts.MaxMessageBytes > 0 {
		c.ws.SetReadLimit(c.srv.opts.MaxMessageBytes)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.srv.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.srv.opts.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			case errors.As(err, &ne) && ne.Timeout():
				c.srv.logger.Info("client timed out", zap.String("conn", c.id))
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.srv.logger.Warn("unexpected close", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		if !c.srv.events.Allow(c.id) {
			c.srv.metrics.Rejected("rate_limited")
			c.srv.logger.Debug("event rate exceeded, dropping frame", zap.String("conn", c.id))
			continue
		}

		evt, err := protocol.Decode(data)
		if err != nil {
			c.srv.metrics.Rejected("malformed")
			c.srv.logger.Debug("dropping malformed frame", zap.String("conn", c.id), zap.Error(err))
			continue
		}
		if err := c.srv.relay.Receive(c, evt); err != nil {
			return
		}
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.srv.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.egress:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.srv.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.srv.logger.Debug("write failed", zap.String("conn", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.srv.opts.WriteWait)); err != nil {
				return
			}
		}
	}
}
