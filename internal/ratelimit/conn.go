// Package ratelimit caps open websocket connections per client IP and the
// event rate of each connection.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// ConnLimiter counts open connections per IP.
type ConnLimiter struct {
	mu          sync.Mutex
	connections map[string]int
	maxConns    int
}

// NewConnLimiter allows up to maxConns connections per IP. 0 means unlimited.
func NewConnLimiter(maxConns int) *ConnLimiter {
	return &ConnLimiter{
		connections: make(map[string]int),
		maxConns:    maxConns,
	}
}

// Acquire reserves a connection slot for ip, reporting false when the cap is reached.
func (l *ConnLimiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.maxConns > 0 && l.connections[ip] >= l.maxConns {
		return false
	}
	l.connections[ip]++
	return true
}

// Release frees a slot taken by Acquire.
func (l *ConnLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connections[ip]--
	if l.connections[ip] <= 0 {
		delete(l.connections, ip)
	}
}

// Count returns the open connections for ip.
func (l *ConnLimiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connections[ip]
}

// ClientIP returns the caller's IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
