// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hrchat_relay"

// Relay holds the relay's collectors on a dedicated registry.
type Relay struct {
	registry *prometheus.Registry

	onlineUsers    prometheus.Gauge
	connections    prometheus.Gauge
	pendingDeletes prometheus.Gauge
	events         *prometheus.CounterVec
	forwards       *prometheus.CounterVec
	rejected       *prometheus.CounterVec
}

// NewRelay registers the relay collectors plus the Go and process collectors.
func NewRelay() *Relay {
	m := &Relay{
		registry: prometheus.NewRegistry(),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users with a live presence entry.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		pendingDeletes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_deletes",
			Help:      "Delete requests parked for offline recipients.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events received from clients.",
		}, []string{"type"}),
		forwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwards_total",
			Help:      "Point-to-point forwards by outcome.",
		}, []string{"type", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Frames or connections refused before reaching the relay.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.onlineUsers,
		m.connections,
		m.pendingDeletes,
		m.events,
		m.forwards,
		m.rejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Relay) EventReceived(t protocol.Type) {
	m.events.WithLabelValues(string(t)).Inc()
}

func (m *Relay) Forwarded(t protocol.Type, delivered bool) {
	outcome := "dropped"
	if delivered {
		outcome = "delivered"
	}
	m.forwards.WithLabelValues(string(t), outcome).Inc()
}

func (m *Relay) Presence(online, connections int) {
	m.onlineUsers.Set(float64(online))
	m.connections.Set(float64(connections))
}

func (m *Relay) PendingDeletes(n int) {
	m.pendingDeletes.Set(float64(n))
}

// Rejected counts a frame or connection refused at the transport, e.g.
// "malformed", "rate_limited", "conn_limit", "egress_full".
func (m *Relay) Rejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Registry returns the underlying registry.
func (m *Relay) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Relay) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
