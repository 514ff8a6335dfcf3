package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates what the prompt is collecting.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
	// PromptAsk collects free text for a single callback (edit, attach path).
	PromptAsk
)

// Prompt is the command/filter/question input bar.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	answer   func(text string)
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			p.SetText("")
			if p.mode == PromptAsk {
				fn := p.answer
				p.answer = nil
				if fn != nil {
					fn(text)
				}
				if p.onCancel != nil {
					p.onCancel()
				}
				return
			}
			if p.onSubmit != nil {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			p.SetText("")
			p.answer = nil
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	return p
}

// SetOnSubmit sets the callback for command and filter submissions.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback run when the prompt closes.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate shows the prompt in command or filter mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.answer = nil
	p.SetText("")
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Ask shows title with initial text and calls fn with the entered text.
func (p *Prompt) Ask(title, initial string, fn func(text string)) {
	p.mode = PromptAsk
	p.answer = fn
	p.SetLabel("> ")
	p.SetTitle(" " + title + " ")
	p.SetText(initial)
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
