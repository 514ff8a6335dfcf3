package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// HelpView displays the key and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	return &HelpView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

// HelpSection is one titled block of the reference.
type HelpSection struct {
	Title string
	Hints []ui.MenuHint
}

// Update renders the reference.
func (hv *HelpView) Update(sections []HelpSection) {
	hv.Clear()
	kc := ui.Tag(hv.theme.MenuKeyColor)
	var sb strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n  [::b]%s[-:-:-]\n\n", tview.Escape(s.Title))
		width := 0
		for _, h := range s.Hints {
			width = max(width, len(h.Key))
		}
		for _, h := range s.Hints {
			fmt.Fprintf(&sb, "  [%s]%s[-]%s  %s\n", kc, tview.Escape(h.Key), strings.Repeat(" ", width-len(h.Key)), tview.Escape(h.Description))
		}
	}
	_, _ = fmt.Fprint(hv, sb.String())
	hv.ScrollToBeginning()
}
