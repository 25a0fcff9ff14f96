package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// MenuHint is one key shown in the menu column. Numeric hints get their own
// color.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool
}

// Component is a page the app can push: a primitive with a crumb name and
// the key hints that apply while it is on top.
type Component interface {
	tview.Primitive
	Name() string
	Hints() []MenuHint
}

// Menu displays keyboard shortcut hints in a vertical list.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders menu hints as a vertical list (one per line), view hints
// first and duplicates skipped.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	seen := make(map[string]bool, len(hints))

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	for _, h := range hints {
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s\n", kc, h.Key, h.Description)
	}
}
