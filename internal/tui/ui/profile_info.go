package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData is the header summary of the local user and the relay link.
type ProfileData struct {
	Profile   string
	User      string
	Relay     string
	Connected bool
	Online    int
	Unread    int
	Messages  int
	Uptime    time.Duration
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.Clear()
	if data == nil {
		return
	}

	fg := colorName(pi.theme.FgColor)
	ct := colorName(pi.theme.CounterColor)

	link := fmt.Sprintf("[%s]offline[-]", colorName(pi.theme.FlashErrColor))
	if data.Connected {
		link = fmt.Sprintf("[%s]connected[-]", colorName(pi.theme.OnlineColor))
	}

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Relay:[-:-:-]   %s [%s]%s[-]\n"+
			"[%s::b]Online:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Unread:[-:-:-]  [%s]%d[-] / [%s]%d[-] msgs\n"+
			"[%s::b]Uptime:[-:-:-]  [%s]%s[-]",
		fg, ct, tview.Escape(data.Profile),
		fg, ct, tview.Escape(data.User),
		fg, link, ct, tview.Escape(data.Relay),
		fg, ct, data.Online,
		fg, ct, data.Unread, ct, data.Messages,
		fg, ct, formatDuration(data.Uptime),
	)

	_, _ = fmt.Fprint(pi, text)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
