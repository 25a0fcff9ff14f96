package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestConnLimiterCap(t *testing.T) {
	l := NewConnLimiter(2)
	if !l.Acquire("1.2.3.4") || !l.Acquire("1.2.3.4") {
		t.Fatal("first two Acquire() should succeed")
	}
	if l.Acquire("1.2.3.4") {
		t.Error("third Acquire() should fail")
	}
	if !l.Acquire("5.6.7.8") {
		t.Error("other IP should not be limited")
	}

	l.Release("1.2.3.4")
	if !l.Acquire("1.2.3.4") {
		t.Error("Acquire() after Release should succeed")
	}
	l.Release("1.2.3.4")
	l.Release("1.2.3.4")
	if n := l.Count("1.2.3.4"); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestConnLimiterUnlimited(t *testing.T) {
	l := NewConnLimiter(0)
	for i := 0; i < 100; i++ {
		if !l.Acquire("ip") {
			t.Fatalf("Acquire() #%d failed with no cap", i)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 10.0.0.2"}, "10.0.0.1:5555", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "2.2.2.2"}, "10.0.0.1:5555", "2.2.2.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventLimiterBurst(t *testing.T) {
	p := NewEventLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !p.Allow("c1") {
			t.Fatalf("Allow() #%d within burst = false", i)
		}
	}
	if p.Allow("c1") {
		t.Error("Allow() past burst = true")
	}
	if !p.Allow("c2") {
		t.Error("separate key should have its own bucket")
	}
	p.Forget("c1")
	if !p.Allow("c1") {
		t.Error("Allow() after Forget = false")
	}
}
