package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/matheus3301/hrchat/internal/protocol"
)

// HTTPURL maps a relay websocket URL to one of the relay's plain HTTP
// endpoints: ws://host:3000/ws with "/online" gives http://host:3000/online.
func HTTPURL(wsURL, endpoint string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}
	base := strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws")
	u.Path = base + endpoint
	u.RawQuery = ""
	return u.String(), nil
}

// FetchRoster asks the relay for the users online right now without joining.
func FetchRoster(ctx context.Context, hc *http.Client, wsURL string) (protocol.OnlineUsers, error) {
	endpoint, err := HTTPURL(wsURL, "/online")
	if err != nil {
		return nil, err
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch roster: relay returned %s", resp.Status)
	}
	var roster protocol.OnlineUsers
	if err := json.NewDecoder(resp.Body).Decode(&roster); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return roster, nil
}
