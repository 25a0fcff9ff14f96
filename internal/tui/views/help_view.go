package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays the key binding and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"Esc", "Cancel / go back"},
		{"?", "Help"},
		{"q", "Back, quit on the peer list"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Peer List", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter peers"},
		{"1-9", "Jump to the Nth peer"},
		{"d", "Peer details"},
		{"r", "Reload the user directory"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"j/k", "Move between messages"},
		{"x", "Delete the selected message for both sides"},
		{"d", "Peer details"},
	}},
	{"Commands", [][2]string{
		{":chat <name>", "Open a conversation by name or id"},
		{":search [@peer] <text>", "Search message history"},
		{":delete", "Delete the selected message"},
		{":reload", "Reload the user directory"},
		{":help", "Show this help"},
		{":quit", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, sec := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", sec.title)
		for _, r := range sec.rows {
			fmt.Fprintf(&b, "  [%s]%-24s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
