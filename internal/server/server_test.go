package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/metrics"
	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/ratelimit"
	"github.com/matheus3301/hrchat/internal/relay"
	"go.uber.org/zap"
)

type testEnv struct {
	srv     *Server
	http    *httptest.Server
	relay   *relay.Relay
	metrics *metrics.Relay
}

func newTestEnv(t *testing.T, mutate func(*config.RelayConfig)) *testEnv {
	t.Helper()
	cfg := config.DefaultRelay()
	cfg.AllowedOrigins = []string{"http://allowed.test"}
	if mutate != nil {
		mutate(&cfg)
	}

	m := metrics.NewRelay()
	r := relay.New(relay.Options{}, m, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	s := New(OptionsFrom(cfg), r, m,
		ratelimit.NewConnLimiter(cfg.MaxConnsPerIP),
		ratelimit.NewEventLimiter(cfg.EventRate, cfg.EventBurst),
		zap.NewNop())
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hs.Close()
		_ = s.Stop(context.Background())
		cancel()
	})
	return &testEnv{srv: s, http: hs, relay: r, metrics: m}
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
}

func dial(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(e.wsURL(), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func write(t *testing.T, ws *websocket.Conn, p protocol.Payload) {
	t.Helper()
	env, err := protocol.Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

// readUntil reads frames until one of type want arrives.
func readUntil(t *testing.T, ws *websocket.Conn, want protocol.Type) protocol.Event {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		evt, err := protocol.Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if evt.Type == want {
			return evt
		}
	}
}

func waitRoster(t *testing.T, ws *websocket.Conn, n int) protocol.OnlineUsers {
	t.Helper()
	for {
		roster := readUntil(t, ws, protocol.TypeOnlineUsers).Payload.(protocol.OnlineUsers)
		if len(roster) == n {
			return roster
		}
	}
}

func TestPrivateMessageOverWebsocket(t *testing.T) {
	e := newTestEnv(t, nil)
	alice := dial(t, e)
	bob := dial(t, e)

	write(t, alice, protocol.Join{UserID: "alice", Name: "Alice"})
	write(t, bob, protocol.Join{UserID: "bob", Name: "Bob"})
	waitRoster(t, alice, 2)
	waitRoster(t, bob, 2)

	msg := protocol.PrivateMessage{ToID: "bob", FromID: "alice", Message: "hello", ID: "alice_1_a", Time: 1}
	write(t, alice, msg)

	got := readUntil(t, bob, protocol.TypePrivateMessage).Payload.(protocol.PrivateMessage)
	if got != msg {
		t.Errorf("bob got %+v, want %+v", got, msg)
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	e := newTestEnv(t, nil)
	alice := dial(t, e)

	if err := alice.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	// The connection survives and the next frame is handled.
	write(t, alice, protocol.Join{UserID: "alice"})
	roster := waitRoster(t, alice, 1)
	if roster[0].ID != "alice" {
		t.Errorf("roster = %+v, want alice", roster)
	}
}

func TestDisconnectRemovesPresence(t *testing.T) {
	e := newTestEnv(t, nil)
	alice := dial(t, e)
	bob := dial(t, e)
	write(t, alice, protocol.Join{UserID: "alice"})
	write(t, bob, protocol.Join{UserID: "bob"})
	waitRoster(t, alice, 2)

	_ = bob.Close()
	roster := waitRoster(t, alice, 1)
	if roster[0].ID != "alice" {
		t.Errorf("roster after disconnect = %+v, want alice", roster)
	}
}

func TestConnectionCapPerIP(t *testing.T) {
	e := newTestEnv(t, func(c *config.RelayConfig) { c.MaxConnsPerIP = 1 })
	dial(t, e)

	_, resp, err := websocket.DefaultDialer.Dial(e.wsURL(), nil)
	if err == nil {
		t.Fatal("second Dial succeeded, want rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("response = %v, want 429", resp)
	}
}

func TestCheckOrigin(t *testing.T) {
	e := newTestEnv(t, nil)
	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin", "", true},
		{"allowed", "http://allowed.test", true},
		{"other", "http://evil.test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.origin != "" {
				h.Set("Origin", tt.origin)
			}
			ws, _, err := websocket.DefaultDialer.Dial(e.wsURL(), h)
			if ws != nil {
				_ = ws.Close()
			}
			if (err == nil) != tt.ok {
				t.Errorf("Dial err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestHealthOnlineAndMetrics(t *testing.T) {
	e := newTestEnv(t, nil)
	alice := dial(t, e)
	write(t, alice, protocol.Join{UserID: "alice", Name: "Alice"})
	waitRoster(t, alice, 1)
	if err := e.relay.Sync(); err != nil {
		t.Fatal(err)
	}

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(e.http.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	if got := get("/health"); got != "OK" {
		t.Errorf("/health = %q, want OK", got)
	}
	if got := get("/online"); !strings.Contains(got, `"id":"alice"`) {
		t.Errorf("/online = %s, want alice", got)
	}
	if got := get("/metrics"); !strings.Contains(got, "hrchat_relay_online_users 1") {
		t.Errorf("/metrics missing online_users gauge")
	}
}
