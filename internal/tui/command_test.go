package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: "quit"}},
		{" Q ", Command{Name: "quit"}},
		{"chat Ann Lee", Command{Name: "chat", Args: "Ann Lee"}},
		{"s   hello world ", Command{Name: "search", Args: "hello world"}},
		{"rm", Command{Name: "delete"}},
		{"bogus x", Command{Name: "bogus", Args: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCommand(tt.in); got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSearch(t *testing.T) {
	tests := []struct {
		in, peer, query string
	}{
		{"hello", "", "hello"},
		{"@ann hello there", "ann", "hello there"},
		{"@ann", "ann", ""},
		{"  spaced  ", "", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			peer, query := ParseSearch(tt.in)
			if peer != tt.peer || query != tt.query {
				t.Errorf("ParseSearch(%q) = %q, %q; want %q, %q", tt.in, peer, query, tt.peer, tt.query)
			}
		})
	}
}
