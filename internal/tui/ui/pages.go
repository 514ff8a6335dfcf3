package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages is a stack of named pages on top of tview.Pages. Overlays keep the
// page below them visible.
type Pages struct {
	*tview.Pages
	stack    []string
	overlays map[string]bool
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages:    tview.NewPages(),
		overlays: make(map[string]bool),
	}
}

// AddOverlay registers a page drawn over the one below it (dialogs).
func (p *Pages) AddOverlay(name string, item tview.Primitive) {
	p.overlays[name] = true
	p.AddPage(name, item, true, false)
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current page is a no-op;
// pushing a page already lower in the stack moves it to the top.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	if i := slices.Index(p.stack, name); i >= 0 {
		p.stack = slices.Delete(p.stack, i, i+1)
	}
	if top := p.Current(); top != "" && !p.overlays[name] {
		p.HidePage(top)
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

// Pop removes the top page and shows the previous one. The root page is
// never popped. Returns the popped name, or "" when nothing was popped.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current)
	p.SendToFront(current)
	p.notify()
	return top
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Reset clears the stack and shows only the given page.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
