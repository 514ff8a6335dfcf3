package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData is what the header shows about the running session.
type SessionData struct {
	Profile  string
	User     string
	Server   string
	Status   string
	Contacts int
	Online   int
	Groups   int
	Uptime   time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(d SessionData) {
	si.Clear()

	fg := Tag(si.theme.FgColor)
	ct := Tag(si.theme.CounterColor)
	statusColor := ct
	switch d.Status {
	case "ONLINE":
		statusColor = Tag(si.theme.OnlineColor)
	case "RECONNECTING", "CONNECTING":
		statusColor = Tag(si.theme.FlashWarnColor)
	case "CLOSED", "OFFLINE":
		statusColor = Tag(si.theme.FlashErrColor)
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Profile:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]     [%s]%s[-]\n"+
			"[%s::b]Server:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Contacts:[-:-:-] [%s]%d (%d online)[-]\n"+
			"[%s::b]Groups:[-:-:-]   [%s]%d[-]  [%s::b]Up:[-:-:-] [%s]%s[-]",
		fg, ct, tview.Escape(d.Profile),
		fg, ct, tview.Escape(d.User),
		fg, ct, tview.Escape(d.Server),
		fg, statusColor, d.Status,
		fg, ct, d.Contacts, d.Online,
		fg, ct, d.Groups, fg, ct, formatUptime(d.Uptime),
	)
}

func formatUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// Logo displays the application logo.
type Logo struct {
	*tview.TextView
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	tc := Tag(theme.TitleColor)
	_, _ = fmt.Fprintf(tv,
		"[%s::b]┏━╸╻ ╻┏━┓╺┳╸[-:-:-]\n"+
			"[%s::b]┃  ┣━┫┣━┫ ┃ [-:-:-]\n"+
			"[%s::b]┗━╸╹ ╹╹ ╹ ╹ [-:-:-]\n"+
			"[%s]chatterm[-:-:-]",
		tc, tc, tc, Tag(theme.FgColor),
	)
	return &Logo{TextView: tv}
}
