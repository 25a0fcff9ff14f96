package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hrchat/internal/tui/model"
	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// PeerList is the main page: online peers first, then offline ones, each
// with its unread badge and last message.
type PeerList struct {
	*tview.Table
	theme  *ui.Theme
	peers  []model.Peer
	filter string
}

// NewPeerList creates the peer table.
func NewPeerList(theme *ui.Theme) *PeerList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Peers ")
	table.SetTitleColor(theme.TitleColor)

	return &PeerList{
		Table: table,
		theme: theme,
	}
}

func (pl *PeerList) Name() string { return "Peers" }

// Hints implements ui.Component.
func (pl *PeerList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "d", Description: "Details"},
		{Key: "r", Description: "Reload directory"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the rows, keeping the cursor on the same peer when it is
// still listed.
func (pl *PeerList) Update(peers []model.Peer) {
	selected := pl.SelectedPeer()
	pl.peers = peers
	pl.render()
	for i, p := range peers {
		if p.ID == selected {
			pl.Select(i+1, 0)
			return
		}
	}
}

// SetFilter records the filter shown in the title.
func (pl *PeerList) SetFilter(filter string) {
	pl.filter = filter
	pl.render()
}

// Filter returns the active filter.
func (pl *PeerList) Filter() string { return pl.filter }

func (pl *PeerList) render() {
	pl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 1},
		{" UNREAD", 0},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	for col, h := range headers {
		pl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(pl.theme.TableHeaderFg).
			SetBackgroundColor(pl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	online := 0
	for i, p := range pl.peers {
		row := i + 1
		dot, dotColor := "○", pl.theme.OfflineColor
		nameColor := pl.theme.OfflineColor
		if p.Online {
			dot, dotColor = "●", pl.theme.OnlineColor
			nameColor = pl.theme.FgColor
			online++
		}
		badge := ""
		if p.Unread > 0 {
			badge = fmt.Sprintf("(%d)", p.Unread)
		}

		pl.SetCell(row, 0, tview.NewTableCell(" "+dot).SetTextColor(dotColor))
		pl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(p.Name))).SetExpansion(1).SetTextColor(nameColor))
		pl.SetCell(row, 2, tview.NewTableCell(badge).SetAlign(tview.AlignRight).SetTextColor(pl.theme.UnreadColor))
		pl.SetCell(row, 3, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(p.LastText))).SetExpansion(2).SetMaxWidth(60).SetTextColor(pl.theme.FgColor))
		pl.SetCell(row, 4, tview.NewTableCell(formatTimestamp(p.LastAt)).SetAlign(tview.AlignRight).SetTextColor(pl.theme.FgColor))
	}

	title := fmt.Sprintf(" Peers [%d online / %d] ", online, len(pl.peers))
	if pl.filter != "" {
		title = fmt.Sprintf(" Peers [%d online / %d] filter: %s ", online, len(pl.peers), tview.Escape(pl.filter))
	}
	pl.SetTitle(title)
}

// SelectedPeer returns the id under the cursor.
func (pl *PeerList) SelectedPeer() string {
	row, _ := pl.GetSelection()
	return pl.PeerByIndex(row)
}

// PeerByIndex returns the id of the nth listed peer (1-based).
func (pl *PeerList) PeerByIndex(n int) string {
	if n < 1 || n > len(pl.peers) {
		return ""
	}
	return pl.peers[n-1].ID
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
