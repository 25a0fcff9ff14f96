package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hrchat/internal/tui/model"
	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread shows one conversation as a selectable list of messages
// above a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.Table
	composer *tview.InputField
	peerName string
	peerID   string
	lines    []model.Line
	onSend   func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			text := composer.GetText()
			if text != "" {
				mt.onSend(text)
				composer.SetText("")
			}
		}
	})

	return mt
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string {
	if mt.peerName != "" {
		return mt.peerName
	}
	return "Messages"
}

// Hints implements ui.Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "x", Description: "Delete for both"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// SetPeer switches the thread to another conversation.
func (mt *MessageThread) SetPeer(id, name string, online bool) {
	mt.peerID = id
	mt.peerName = name
	state := "offline"
	if online {
		state = "online"
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s (%s) ", tview.Escape(name), state))
}

// PeerID returns the peer of the open conversation.
func (mt *MessageThread) PeerID() string {
	return mt.peerID
}

// SetOnSend sets the callback when a message is sent.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Update re-renders lines. The cursor follows the newest message unless the
// user had moved it up.
func (mt *MessageThread) Update(lines []model.Line) {
	row, _ := mt.messages.GetSelection()
	atEnd := len(mt.lines) == 0 || row >= len(mt.lines)-1
	mt.lines = lines
	mt.messages.Clear()

	for i, l := range lines {
		senderColor := mt.theme.FgColor
		if l.Mine {
			senderColor = mt.theme.OwnColor
		}
		markerColor := mt.theme.PendingColor
		if l.Marker == "[read]" {
			markerColor = mt.theme.ReadColor
		}

		mt.messages.SetCell(i, 0, tview.NewTableCell(formatTimestamp(l.Time)+" ").SetTextColor(mt.theme.OfflineColor))
		mt.messages.SetCell(i, 1, tview.NewTableCell(tview.Escape(sanitizeForTerminal(l.Sender))).
			SetTextColor(senderColor).SetAttributes(tcell.AttrBold))
		mt.messages.SetCell(i, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(l.Text))).
			SetExpansion(1).SetTextColor(mt.theme.FgColor))
		mt.messages.SetCell(i, 3, tview.NewTableCell(tview.Escape(l.Marker)).SetTextColor(markerColor))
	}

	if len(lines) == 0 {
		return
	}
	if atEnd || row >= len(lines) {
		mt.messages.Select(len(lines)-1, 0)
	}
}

// SelectedMessage returns the line under the cursor.
func (mt *MessageThread) SelectedMessage() (model.Line, bool) {
	row, _ := mt.messages.GetSelection()
	if row < 0 || row >= len(mt.lines) {
		return model.Line{}, false
	}
	return mt.lines[row], true
}

// Messages returns the message table (for focus management).
func (mt *MessageThread) Messages() *tview.Table {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
