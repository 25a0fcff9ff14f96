package views

import (
	"strings"
	"testing"

	"github.com/matheus3301/hrchat/internal/tui/model"
	"github.com/matheus3301/hrchat/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "hello", "hello"},
		{"skin tone", "\U0001F44D\U0001F3FB", "\U0001F44D"},
		{"zwj sequence", "\U0001F469\u200d\U0001F4BB", "\U0001F469\U0001F4BB"},
		{"variation selector", "\u2764\ufe0f", "\u2764"},
		{"multi-line", "one\ntwo\tthree", "one two three"},
		{"control", "bell\a", "bell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.in); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHighlightEscapesAndColorsMatch(t *testing.T) {
	got := highlight("say <<hello>> [red]", ui.DefaultTheme())
	if strings.Contains(got, "<<") || strings.Contains(got, ">>") {
		t.Errorf("markers left in %q", got)
	}
	if !strings.Contains(got, "::b]hello[-:-:-]") {
		t.Errorf("match not highlighted: %q", got)
	}
	if !strings.Contains(got, "[red[]") {
		t.Errorf("user text not escaped: %q", got)
	}
}

func TestPeerListSelectionFollowsPeer(t *testing.T) {
	pl := NewPeerList(ui.DefaultTheme())
	pl.Update([]model.Peer{{ID: "ann", Name: "Ann", Online: true}, {ID: "bob", Name: "Bob"}})
	pl.Select(2, 0)
	if got := pl.SelectedPeer(); got != "bob" {
		t.Fatalf("SelectedPeer() = %q, want bob", got)
	}

	// bob moves to the top when he comes online; the cursor follows him.
	pl.Update([]model.Peer{{ID: "bob", Name: "Bob", Online: true}, {ID: "ann", Name: "Ann", Online: true}})
	if got := pl.SelectedPeer(); got != "bob" {
		t.Errorf("SelectedPeer() after reorder = %q, want bob", got)
	}
	if got := pl.PeerByIndex(2); got != "ann" {
		t.Errorf("PeerByIndex(2) = %q, want ann", got)
	}
	if got := pl.PeerByIndex(3); got != "" {
		t.Errorf("PeerByIndex(3) = %q, want empty", got)
	}
}

func TestMessageThreadSelection(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	mt.SetPeer("ann", "Ann", true)
	mt.Update([]model.Line{
		{ID: "1", Sender: "Ann", Text: "hi"},
		{ID: "2", Sender: "You", Text: "yo", Mine: true, Marker: "[sent]"},
	})
	line, ok := mt.SelectedMessage()
	if !ok || line.ID != "2" {
		t.Errorf("SelectedMessage() = %+v, %v; want newest", line, ok)
	}
	if mt.PeerID() != "ann" || mt.Name() != "Ann" {
		t.Errorf("peer = %s/%s, want ann/Ann", mt.PeerID(), mt.Name())
	}
}
