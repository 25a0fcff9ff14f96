package views

import (
	"fmt"

	"github.com/matheus3301/hrchat/internal/tui/model"
	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// PeerInfo displays details about one peer.
type PeerInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewPeerInfo creates a new peer details view.
func NewPeerInfo(theme *ui.Theme) *PeerInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Peer Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &PeerInfo{
		TextView: tv,
		theme:    theme,
	}
}

func (pi *PeerInfo) Name() string { return "Details" }

// Hints implements ui.Component.
func (pi *PeerInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open conversation"},
		{Key: "Esc", Description: "Back"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders p; messages is the length of the local conversation.
func (pi *PeerInfo) Update(p model.Peer, messages int) {
	pi.Clear()

	fg := ui.ColorTag(pi.theme.FgColor)
	ct := ui.ColorTag(pi.theme.CounterColor)

	presence := fmt.Sprintf("[%s]offline[-]", ui.ColorTag(pi.theme.OfflineColor))
	if p.Online {
		presence = fmt.Sprintf("[%s]online[-]", ui.ColorTag(pi.theme.OnlineColor))
	}
	email := p.Email
	if email == "" {
		email = "-"
	}
	last := formatTimestamp(p.LastAt)
	if last == "" {
		last = "-"
	}

	_, _ = fmt.Fprintf(pi,
		"\n [%s::b]Name:[-:-:-]         [%s]%s[-]\n"+
			" [%s::b]ID:[-:-:-]           [%s]%s[-]\n"+
			" [%s::b]Email:[-:-:-]        [%s]%s[-]\n"+
			" [%s::b]Presence:[-:-:-]     %s\n"+
			" [%s::b]Unread:[-:-:-]       [%s]%d[-]\n"+
			" [%s::b]Messages:[-:-:-]     [%s]%d[-]\n"+
			" [%s::b]Last Message:[-:-:-] [%s]%s[-] %s",
		fg, ct, tview.Escape(p.Name),
		fg, ct, tview.Escape(p.ID),
		fg, ct, tview.Escape(email),
		fg, presence,
		fg, ct, p.Unread,
		fg, ct, messages,
		fg, ct, last, tview.Escape(sanitizeForTerminal(p.LastText)),
	)
	pi.SetTitle(fmt.Sprintf(" %s ", tview.Escape(p.Name)))
}
