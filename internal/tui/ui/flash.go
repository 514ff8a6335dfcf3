package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashDuration is how long a notice stays visible.
const FlashDuration = 5 * time.Second

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a notice with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current notice. A newer notice replaces the older
// one; each notice expires on its own.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

// Info sets an info-level notice.
func (f *FlashModel) Info(msg string) FlashMessage {
	return f.set(msg, FlashInfo)
}

// Warn sets a warn-level notice.
func (f *FlashModel) Warn(msg string) FlashMessage {
	return f.set(msg, FlashWarn)
}

// Err sets an error-level notice.
func (f *FlashModel) Err(msg string) FlashMessage {
	return f.set(msg, FlashErr)
}

func (f *FlashModel) set(msg string, level FlashLevel) FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: f.now().Add(FlashDuration),
	}
	return f.current
}

// Current returns the visible notice, or nil once it has expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar is the UI component that displays notices.
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
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := Tag(fb.theme.FlashInfoColor)
	switch msg.Level {
	case FlashWarn:
		color = Tag(fb.theme.FlashWarnColor)
	case FlashErr:
		color = Tag(fb.theme.FlashErrColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
}
