package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages is a stack of named pages over tview.Pages. The bottom page is the
// root and is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
	}
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing a page already on the stack
// unwinds back to it instead of stacking a second copy.
func (p *Pages) Push(name string) {
	if i := slices.Index(p.stack, name); i >= 0 {
		for _, n := range p.stack[i+1:] {
			p.HidePage(n)
		}
		p.stack = p.stack[:i+1]
		p.show(name)
		return
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, name)
	p.show(name)
}

// Pop removes the top page and returns its name. The root stays.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	p.show(p.stack[len(p.stack)-1])
	return top
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the page stack, root first.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset clears the stack and shows only root.
func (p *Pages) Reset(root string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{root}
	p.show(root)
}

func (p *Pages) show(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
