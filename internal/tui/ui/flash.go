package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
	// FlashIncoming announces an inbound chat message.
	FlashIncoming
)

var flashDurations = map[FlashLevel]time.Duration{
	FlashInfo:     5 * time.Second,
	FlashWarn:     8 * time.Second,
	FlashErr:      10 * time.Second,
	FlashIncoming: 6 * time.Second,
}

// Flash is one transient status line.
type Flash struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current flash and expires it.
type FlashModel struct {
	mu      sync.RWMutex
	current Flash
	now     func() time.Time
}

// NewFlashModel creates an empty flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo) }

func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn) }

func (f *FlashModel) Err(err error) { f.set(err.Error(), FlashErr) }

// Incoming flashes a new-message notice.
func (f *FlashModel) Incoming(from, text string) {
	f.set(fmt.Sprintf("%s: %s", from, text), FlashIncoming)
}

func (f *FlashModel) set(msg string, level FlashLevel) {
	f.mu.Lock()
	f.current = Flash{
		Text:    msg,
		Level:   level,
		Expires: f.now().Add(flashDurations[level]),
	}
	f.mu.Unlock()
}

// Current returns the live flash, or nil once it has expired.
func (f *FlashModel) Current() *Flash {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders msg, or clears the bar when msg is nil.
func (fb *FlashBar) Update(msg *Flash) {
	fb.Clear()
	if msg == nil {
		return
	}

	var color string
	switch msg.Level {
	case FlashInfo:
		color = colorName(fb.theme.FlashInfoColor)
	case FlashWarn:
		color = colorName(fb.theme.FlashWarnColor)
	case FlashErr:
		color = colorName(fb.theme.FlashErrColor)
	case FlashIncoming:
		color = colorName(fb.theme.UnreadColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
}
