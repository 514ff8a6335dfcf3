package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/media"
	"github.com/matheus3301/chatterm/internal/render"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// NoSelectionText fills the thread while no conversation is open.
const NoSelectionText = "Select a contact or group to start chatting"

// MessageThread shows the open conversation and its composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	typing   *tview.TextView
	pending  *tview.TextView
	composer *tview.InputField

	open     bool
	bubbles  []render.Bubble
	selected int64
	now      func() time.Time
	clearing bool

	onSend      func(text string)
	onKeystroke func()
}

// NewMessageThread creates the thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetRegions(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	typing := tview.NewTextView().SetDynamicColors(true)
	typing.SetBackgroundColor(theme.BgColor)
	typing.SetTextColor(theme.TypingColor)

	pending := tview.NewTextView().SetDynamicColors(true)
	pending.SetBackgroundColor(theme.BgColor)

	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitle(" Compose (Tab to focus) ")
	input.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(typing, 1, 0, false).
		AddItem(pending, 1, 0, false).
		AddItem(input, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		typing:   typing,
		pending:  pending,
		composer: input,
		now:      time.Now,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			mt.onSend(input.GetText())
		}
	})
	input.SetChangedFunc(mt.composerChanged)

	mt.showPlaceholder()
	return mt
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string { return "Messages" }

// Hints implements ui.Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "j/k", Description: "Select message"},
		{Key: "e", Description: "Edit"},
		{Key: "x", Description: "Delete"},
		{Key: "o", Description: "Download"},
		{Key: "v", Description: "View image"},
		{Key: "r", Description: "Retry"},
	}
}

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func(text string)) { mt.onSend = fn }

// SetOnKeystroke sets the callback for composer edits.
func (mt *MessageThread) SetOnKeystroke(fn func()) { mt.onKeystroke = fn }

// Messages returns the message pane for focus management.
func (mt *MessageThread) Messages() *tview.TextView { return mt.messages }

// Composer returns the composer input for focus management.
func (mt *MessageThread) Composer() *tview.InputField { return mt.composer }

// ClearInput empties the composer if it still holds sent.
func (mt *MessageThread) ClearInput(sent string) {
	if mt.composer.GetText() != sent {
		return
	}
	mt.clearing = true
	mt.composer.SetText("")
	mt.clearing = false
}

// composerChanged reports every user edit as a keystroke, erasing the last
// character included. Clearing after a send is not typing.
func (mt *MessageThread) composerChanged(string) {
	if mt.clearing || mt.onKeystroke == nil {
		return
	}
	mt.onKeystroke()
}

// Open switches to a conversation titled name.
func (mt *MessageThread) Open(name, subtitle string) {
	mt.open = true
	mt.selected = 0
	mt.bubbles = nil
	mt.SetHeading(name, subtitle)
	mt.messages.SetText("\n [::d]Loading...[-:-:-]")
}

// SetHeading retitles the open conversation, e.g. on a presence change.
func (mt *MessageThread) SetHeading(name, subtitle string) {
	title := " " + tview.Escape(name) + " "
	if subtitle != "" {
		title += "[::d]" + tview.Escape(subtitle) + "[-:-:-] "
	}
	mt.messages.SetTitle(title)
}

// Close shows the empty placeholder.
func (mt *MessageThread) Close() {
	mt.open = false
	mt.bubbles = nil
	mt.selected = 0
	mt.messages.SetTitle(" Messages ")
	mt.showPlaceholder()
	mt.typing.Clear()
}

func (mt *MessageThread) showPlaceholder() {
	mt.messages.SetText(fmt.Sprintf("\n [::d]%s[-:-:-]", NoSelectionText))
}

// Update renders msgs. Loading and loadErr take precedence over an empty
// list.
func (mt *MessageThread) Update(msgs []domain.Message, group, loading bool, loadErr error) {
	if !mt.open {
		return
	}
	switch {
	case loading && len(msgs) == 0:
		mt.messages.SetText("\n [::d]Loading...[-:-:-]")
		return
	case loadErr != nil && len(msgs) == 0:
		mt.messages.SetText(fmt.Sprintf("\n [%s]Failed to load messages: %s[-]\n [::d]press r to retry[-:-:-]",
			ui.Tag(mt.theme.FlashErrColor), tview.Escape(loadErr.Error())))
		return
	}

	atEnd := mt.selected == 0
	mt.bubbles = render.Bubbles(msgs, render.Context{Group: group, Now: mt.now()})
	if mt.selected != 0 && mt.index(mt.selected) < 0 {
		mt.selected = 0
		atEnd = true
	}
	mt.redraw()
	if atEnd {
		mt.messages.ScrollToEnd()
	}
}

func (mt *MessageThread) redraw() {
	mt.messages.SetText(render.Markup(mt.bubbles, mt.selected))
	if mt.selected != 0 {
		mt.messages.Highlight(fmt.Sprintf("m%d", mt.selected)).ScrollToHighlight()
	}
}

func (mt *MessageThread) index(msgID int64) int {
	for i, b := range mt.bubbles {
		if b.MsgID == msgID {
			return i
		}
	}
	return -1
}

// MoveSelection moves the cursor by delta bubbles. Moving down past the
// last bubble clears the selection and follows new messages again.
func (mt *MessageThread) MoveSelection(delta int) {
	if len(mt.bubbles) == 0 {
		return
	}
	i := mt.index(mt.selected)
	switch {
	case i < 0 && delta < 0:
		i = len(mt.bubbles) - 1
	case i < 0:
		return
	default:
		i += delta
	}
	if i >= len(mt.bubbles) {
		mt.selected = 0
		mt.redraw()
		mt.messages.ScrollToEnd()
		return
	}
	if i < 0 {
		i = 0
	}
	mt.selected = mt.bubbles[i].MsgID
	mt.redraw()
}

// Selected returns the bubble under the cursor.
func (mt *MessageThread) Selected() (render.Bubble, bool) {
	if i := mt.index(mt.selected); i >= 0 {
		return mt.bubbles[i], true
	}
	return render.Bubble{}, false
}

// SetTyping shows text under the messages; empty hides it.
func (mt *MessageThread) SetTyping(text string) {
	mt.typing.Clear()
	if text != "" {
		_, _ = fmt.Fprintf(mt.typing, " [::i]%s[-:-:-]", tview.Escape(text))
	}
}

// SetComposer shows the pending attachment and the sending state.
func (mt *MessageThread) SetComposer(s composer.State) {
	mt.pending.Clear()
	switch {
	case s.Sending:
		_, _ = fmt.Fprint(mt.pending, " [::d]sending...[-:-:-]")
	case s.Pending != nil:
		_, _ = fmt.Fprintf(mt.pending, " %s %s [::d](%s) :detach to remove[-:-:-]",
			media.Icon(s.Pending.Category), tview.Escape(s.Pending.Name), media.HumanSize(s.Pending.Size))
	}
}
