package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

var logoArt = []string{
	" ╦ ╦╦═╗",
	" ╠═╣╠╦╝ chat",
	" ╩ ╩╩╚═",
}

// Logo is the banner in the header's right corner with a one-line caption
// under it.
type Logo struct {
	*tview.TextView
	theme   *Theme
	caption string
}

// NewLogo creates the banner with caption below the art.
func NewLogo(theme *Theme, caption string) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{TextView: tv, theme: theme, caption: caption}
	l.render()
	return l
}

func (l *Logo) render() {
	art := colorName(l.theme.TitleColor)
	var b strings.Builder
	for _, line := range logoArt {
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-]\n", art, line)
	}
	fmt.Fprintf(&b, "[%s]%s[-:-:-]", colorName(l.theme.FgColor), tview.Escape(l.caption))
	l.SetText(b.String())
}
