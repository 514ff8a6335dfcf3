package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/render"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// newTable builds a selectable, bordered table with a fixed header row.
func newTable(theme *ui.Theme, title string) *tview.Table {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(title)
	table.SetTitleColor(theme.TitleColor)
	return table
}

func setHeader(table *tview.Table, theme *ui.Theme, headers ...string) {
	for col, h := range headers {
		exp := 0
		if col == 1 {
			exp = 1
		}
		table.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(theme.TableHeaderFg).
			SetBackgroundColor(theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}
}

// cellText cleans s for display and cuts it to width terminal cells.
func cellText(s string, width int) string {
	s = render.Clean(s)
	if width > 0 {
		s = runewidth.Truncate(s, width, "…")
	}
	return tview.Escape(s)
}

// keepSelection re-selects the first data row when the selection fell off
// the end of a shrunk table.
func keepSelection(table *tview.Table) {
	row, _ := table.GetSelection()
	if n := table.GetRowCount(); row >= n || row < 1 {
		if n > 1 {
			table.Select(1, 0)
		}
	}
}
