// Package render turns messages into display bubbles and tview markup.
// Rendering is a pure function of its input: the same messages and context
// always produce the same output.
package render

import (
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/media"
)

// Placeholder texts.
const (
	DeletedText = "This message was deleted"
	EmptyTitle  = "No messages yet"
	EmptyHint   = "Start the conversation!"
	EditedMark  = "(edited)"
)

// Kind distinguishes a regular bubble from the deleted placeholder.
type Kind int

const (
	Normal Kind = iota
	Deleted
)

// Attachment is the display form of a message attachment.
type Attachment struct {
	Category domain.Category
	// Image attachments open in the lightbox; everything else is a download row.
	Image bool
	Icon  string
	Name  string
	Size  string
	// Path is the stored file name used by the download endpoint.
	Path string
}

// Bubble is one rendered message.
type Bubble struct {
	MsgID      int64
	Kind       Kind
	Mine       bool
	Sender     string
	Content    string
	Attachment *Attachment
	Time       string
	Status     domain.DeliveryStatus
	Edited     bool
}

// Context carries what rendering needs beyond the messages.
type Context struct {
	// Group shows sender names on messages from others.
	Group bool
	Now   time.Time
}

var policy = bluemonday.StrictPolicy()

// Clean strips markup from message content and removes codepoints that
// break terminal cell widths.
func Clean(s string) string {
	return sanitizeForTerminal(html.UnescapeString(policy.Sanitize(s)))
}

// Bubbles renders msgs in order.
func Bubbles(msgs []domain.Message, c Context) []Bubble {
	out := make([]Bubble, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, bubble(m, c))
	}
	return out
}

func bubble(m domain.Message, c Context) Bubble {
	b := Bubble{
		MsgID: m.MsgID,
		Mine:  m.IsMine,
		Time:  FormatTime(m.Time(), c.Now),
	}
	if c.Group && !m.IsMine {
		b.Sender = Clean(m.SenderUsername)
	}
	if m.Deleted {
		b.Kind = Deleted
		b.Content = DeletedText
		return b
	}
	b.Content = Clean(m.Content)
	b.Edited = m.Edited
	if m.IsMine {
		b.Status = m.Status
		if b.Status == "" {
			b.Status = domain.StatusSent
		}
	}
	if m.HasAttachment() {
		b.Attachment = attachment(m)
	}
	return b
}

func attachment(m domain.Message) *Attachment {
	name := m.AttachmentName
	if name == "" {
		name = path.Base(m.AttachmentPath)
	}
	cat := media.Resolve(m.AttachmentType, name)
	a := &Attachment{
		Category: cat,
		Image:    cat == domain.CategoryImages,
		Icon:     media.Icon(cat),
		Name:     Clean(name),
		Path:     m.AttachmentPath,
	}
	if m.AttachmentSize > 0 {
		a.Size = media.HumanSize(m.AttachmentSize)
	}
	return a
}

// FormatTime shows the clock for today and the date otherwise.
func FormatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.IsZero() {
		now = time.Now()
	}
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02 15:04")
}

// StatusGlyph is the delivery tick for a message of mine.
func StatusGlyph(s domain.DeliveryStatus) string {
	switch s {
	case domain.StatusRead:
		return "[dodgerblue]✓✓[-]"
	case domain.StatusDelivered:
		return "✓✓"
	case domain.StatusSent:
		return "✓"
	default:
		return ""
	}
}

// Markup renders bubbles as tview dynamic-color text with one region per
// message ("m<msg_id>"). selected marks one bubble (by message id) with a
// cursor; 0 selects nothing.
func Markup(bubbles []Bubble, selected int64) string {
	if len(bubbles) == 0 {
		return fmt.Sprintf("\n[::b]%s[-:-:-]\n[::d]%s[-:-:-]\n", EmptyTitle, EmptyHint)
	}
	var sb strings.Builder
	for _, b := range bubbles {
		writeBubble(&sb, b, b.MsgID != 0 && b.MsgID == selected)
	}
	return sb.String()
}

func writeBubble(sb *strings.Builder, b Bubble, selected bool) {
	cursor := "  "
	if selected {
		cursor = "[orange]▶[-] "
	}
	who := "You"
	if !b.Mine {
		who = b.Sender
	}

	if b.MsgID != 0 {
		fmt.Fprintf(sb, `["m%d"]`, b.MsgID)
		defer sb.WriteString(`[""]`)
	}
	sb.WriteString(cursor)
	if who != "" {
		color := "aqua"
		if b.Mine {
			color = "green"
		}
		fmt.Fprintf(sb, "[%s::b]%s[-:-:-] ", color, tview.Escape(who))
	}
	fmt.Fprintf(sb, "[::d]%s[-:-:-]", b.Time)
	if b.Kind == Normal && b.Mine {
		sb.WriteString(" " + StatusGlyph(b.Status))
	}
	sb.WriteString("\n")

	if b.Kind == Deleted {
		fmt.Fprintf(sb, "  [gray::i]%s[-:-:-]\n\n", DeletedText)
		return
	}
	if a := b.Attachment; a != nil {
		action := "download"
		if a.Image {
			action = "view"
		}
		size := ""
		if a.Size != "" {
			size = " (" + a.Size + ")"
		}
		fmt.Fprintf(sb, "  %s [::u]%s[-:-:-]%s [::d]%s[-:-:-]\n", a.Icon, tview.Escape(a.Name), size, tview.Escape("["+action+"]"))
	}
	if b.Content != "" {
		for _, line := range strings.Split(b.Content, "\n") {
			sb.WriteString("  " + tview.Escape(line) + "\n")
		}
	}
	if b.Edited {
		fmt.Fprintf(sb, "  [::d]%s[-:-:-]\n", EditedMark)
	}
	sb.WriteString("\n")
}
