package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is how many hints are stacked per column.
const menuRows = 5

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints column by column, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	if len(hints) == 0 {
		return
	}
	keyColor := Tag(m.theme.MenuKeyColor)

	cols := (len(hints) + menuRows - 1) / menuRows
	width := make([]int, cols)
	cells := make([]string, len(hints))
	for i, h := range hints {
		cells[i] = fmt.Sprintf("<%s> %s", h.Key, h.Description)
		if w := tview.TaggedStringWidth(cells[i]); w > width[i/menuRows] {
			width[i/menuRows] = w
		}
	}

	var sb strings.Builder
	for r := 0; r < menuRows; r++ {
		for c := 0; c < cols; c++ {
			i := c*menuRows + r
			if i >= len(hints) {
				break
			}
			h := hints[i]
			pad := width[c] - tview.TaggedStringWidth(cells[i]) + 2
			fmt.Fprintf(&sb, "[%s::b]<%s>[-:-:-] %s%s", keyColor, tview.Escape(h.Key), tview.Escape(h.Description), strings.Repeat(" ", pad))
		}
		sb.WriteByte('\n')
	}
	_, _ = fmt.Fprint(m, sb.String())
}
