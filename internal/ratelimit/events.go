package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// EventLimiter is a pool of token buckets keyed by connection id.
type EventLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewEventLimiter creates a pool; non-positive values fall back to 5 rps / burst 10.
func NewEventLimiter(rps float64, burst int) *EventLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &EventLimiter{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *EventLimiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// Allow reports whether key may send one more event now.
func (p *EventLimiter) Allow(key string) bool {
	return p.get(key).Allow()
}

// Forget drops key's bucket when its connection closes.
func (p *EventLimiter) Forget(key string) {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
}
