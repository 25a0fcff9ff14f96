// Package relay routes protocol events between connected clients.
//
// A Relay owns the presence registry and the pending-delete queue. Every
// mutation runs on the goroutine executing Run, one event at a time, so a
// handler's registry updates and broadcasts are atomic with respect to other
// events. The relay never stores message content: restarting it loses only
// presence and parked deletes.
package relay

import (
	"context"
	"errors"

	"github.com/matheus3301/hrchat/internal/pending"
	"github.com/matheus3301/hrchat/internal/presence"
	"github.com/matheus3301/hrchat/internal/protocol"
	"go.uber.org/zap"
)

// ErrStopped is returned by operations submitted after Run has returned.
var ErrStopped = errors.New("relay stopped")

// Conn is one client connection as seen by the relay.
type Conn interface {
	ID() string
	Send(env protocol.Envelope) error
	Close() error
}

// Options tunes relay behavior.
type Options struct {
	// CloseStaleOnRejoin closes the previous connection when a user joins
	// again from a new one. Off by default: the old handle just becomes unroutable.
	CloseStaleOnRejoin bool
	// Backlog is the capacity of the operation queue feeding Run.
	Backlog int
}

// Relay is the connection hub.
type Relay struct {
	registry *presence.Registry
	deletes  *pending.Queue
	conns    map[presence.Handle]Conn

	opts    Options
	metrics Metrics
	logger  *zap.Logger

	ops     chan func()
	stopped chan struct{}
}

// New creates a relay. A nil metrics sink is replaced with a no-op.
func New(opts Options, metrics Metrics, logger *zap.Logger) *Relay {
	if opts.Backlog <= 0 {
		opts.Backlog = 1024
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Relay{
		registry: presence.NewRegistry(),
		deletes:  pending.NewQueue(),
		conns:    make(map[presence.Handle]Conn),
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
		ops:      make(chan func(), opts.Backlog),
		stopped:  make(chan struct{}),
	}
}

// Run processes submitted operations until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case op := <-r.ops:
			op()
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) submit(op func()) error {
	select {
	case <-r.stopped:
		return ErrStopped
	default:
	}
	select {
	case r.ops <- op:
		return nil
	case <-r.stopped:
		return ErrStopped
	}
}

// Attach makes conn a broadcast target. It does not mark anyone online;
// that happens on join.
func (r *Relay) Attach(conn Conn) error {
	return r.submit(func() {
		r.conns[presence.Handle(conn.ID())] = conn
		r.metrics.Presence(r.registry.Len(), len(r.conns))
		r.logger.Debug("connection attached", zap.String("conn", conn.ID()))
	})
}

// Detach removes conn and any presence entry bound to it, then broadcasts
// the new roster.
func (r *Relay) Detach(conn Conn) error {
	return r.submit(func() { r.handleDetach(conn) })
}

// Receive dispatches one decoded event that arrived on conn.
func (r *Relay) Receive(conn Conn, evt protocol.Event) error {
	return r.submit(func() { r.dispatch(conn, evt) })
}

// Sync blocks until every operation submitted before it has run.
func (r *Relay) Sync() error {
	done := make(chan struct{})
	if err := r.submit(func() { close(done) }); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-r.stopped:
		return ErrStopped
	}
}

// Roster returns a snapshot of the presence registry.
func (r *Relay) Roster() ([]presence.Entry, error) {
	var out []presence.Entry
	done := make(chan struct{})
	if err := r.submit(func() {
		out = r.registry.Roster()
		close(done)
	}); err != nil {
		return nil, err
	}
	select {
	case <-done:
		return out, nil
	case <-r.stopped:
		return nil, ErrStopped
	}
}

// PendingDeletes returns the number of parked delete requests.
func (r *Relay) PendingDeletes() (int, error) {
	var n int
	done := make(chan struct{})
	if err := r.submit(func() {
		n = r.deletes.Len()
		close(done)
	}); err != nil {
		return 0, err
	}
	select {
	case <-done:
		return n, nil
	case <-r.stopped:
		return 0, ErrStopped
	}
}
