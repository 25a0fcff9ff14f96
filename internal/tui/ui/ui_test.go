package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"
)

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var last []string
	p.SetOnChange(func(stack []string) { last = stack })
	for _, name := range []string{"peers", "thread", "details"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}

	p.Reset("peers")
	p.Push("thread")
	p.Push("details")
	if p.Depth() != 3 || p.Current() != "details" {
		t.Fatalf("stack = %v, want peers>thread>details", p.Stack())
	}

	p.Push("thread")
	if p.Depth() != 2 || p.Current() != "thread" {
		t.Errorf("re-push stack = %v, want unwound to thread", p.Stack())
	}
	if len(last) != 2 {
		t.Errorf("onChange saw %v", last)
	}

	if got := p.Pop(); got != "thread" {
		t.Errorf("Pop() = %q, want thread", got)
	}
	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on root = %q, want empty", got)
	}
	if p.Current() != "peers" {
		t.Errorf("Current() = %q, want peers", p.Current())
	}
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel()
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("empty model has a flash")
	}
	f.Err(errors.New("boom"))
	if got := f.Current(); got == nil || got.Text != "boom" || got.Level != FlashErr {
		t.Fatalf("Current() = %+v, want boom error", got)
	}

	f.Incoming("Ann", "hi")
	if got := f.Current(); got.Text != "Ann: hi" || got.Level != FlashIncoming {
		t.Errorf("Current() = %+v, want incoming", got)
	}

	now = now.Add(flashDurations[FlashIncoming] + time.Millisecond)
	if got := f.Current(); got != nil {
		t.Errorf("Current() after expiry = %+v, want nil", got)
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	p.Activate(PromptCommand)
	p.remember("chat ann")
	p.remember("chat ann")
	p.remember("search hi")
	if len(p.history) != 2 {
		t.Fatalf("history = %v, want duplicates collapsed", p.history)
	}

	p.Activate(PromptCommand)
	p.recall(-1)
	if p.GetText() != "search hi" {
		t.Errorf("recall(-1) = %q, want search hi", p.GetText())
	}
	p.recall(-1)
	p.recall(-1)
	if p.GetText() != "chat ann" {
		t.Errorf("recall past start = %q, want chat ann", p.GetText())
	}
	p.recall(1)
	p.recall(1)
	if p.GetText() != "" {
		t.Errorf("recall past end = %q, want empty", p.GetText())
	}

	p.Activate(PromptFilter)
	p.remember("ann")
	if len(p.history) != 2 {
		t.Errorf("filter text entered command history")
	}
}

func TestLogoCaption(t *testing.T) {
	l := NewLogo(DefaultTheme(), "profile main")
	text := l.GetText(true)
	if !strings.Contains(text, "chat") {
		t.Errorf("logo art missing in %q", text)
	}
	if !strings.Contains(text, "profile main") {
		t.Errorf("caption missing in %q", text)
	}
}
