package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hrchat/internal/store"
	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView searches the local history. A query of the form "@peer text"
// limits the search to one conversation.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	onQuery func(query string)
	data    []store.SearchResult
	self    string
	nameOf  func(id string) string
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		results: results,
	}

	return sv
}

func (sv *SearchView) Name() string { return "Search" }

// SetPeerNames sets how result peers are displayed; self is the local user.
func (sv *SearchView) SetPeerNames(self string, nameOf func(id string) string) {
	sv.self = self
	sv.nameOf = nameOf
}

// Hints implements ui.Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search/Open"},
		{Key: "Tab", Description: "Results"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// SetOnQuery sets the callback when a search query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
	sv.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText())
		}
	})
}

// Submit runs query as if it had been typed into the input.
func (sv *SearchView) Submit(query string) {
	sv.input.SetText(query)
	if sv.onQuery != nil {
		sv.onQuery(query)
	}
}

// Update refreshes search results.
func (sv *SearchView) Update(results []store.SearchResult) {
	sv.data = results
	sv.results.Clear()

	headers := []string{" PEER", " FROM", " SNIPPET", " TIME"}
	for col, h := range headers {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, r := range results {
		row := i + 1
		peer := r.Message.Peer(sv.self)
		from := "You"
		if r.Message.From != sv.self {
			from = sv.name(r.Message.From)
		}
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sv.name(peer))).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(from)).SetMaxWidth(20).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+highlight(sanitizeForTerminal(r.Snippet), sv.theme)).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 3, tview.NewTableCell(" "+formatTimestamp(r.Message.Time)).SetMaxWidth(12).SetTextColor(sv.theme.FgColor))
	}
	sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(results)))
}

func (sv *SearchView) name(id string) string {
	if sv.nameOf == nil {
		return id
	}
	return sv.nameOf(id)
}

// highlight escapes s and colors the <<match>> markers the store puts around hits.
func highlight(s string, theme *ui.Theme) string {
	s = tview.Escape(s)
	s = strings.ReplaceAll(s, "<<", "["+ui.ColorTag(theme.UnreadColor)+"::b]")
	return strings.ReplaceAll(s, ">>", "[-:-:-]")
}

// SelectedResult returns the peer and message id of the selected result.
func (sv *SearchView) SelectedResult() (peer, messageID string) {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(sv.data) {
		m := sv.data[idx].Message
		return m.Peer(sv.self), m.ID
	}
	return "", ""
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
