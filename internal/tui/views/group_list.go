package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// GroupList is the group sidebar.
type GroupList struct {
	*tview.Table
	theme  *ui.Theme
	groups []domain.Group
	total  int
	filter string
	active int64
}

// NewGroupList creates the group table.
func NewGroupList(theme *ui.Theme) *GroupList {
	return &GroupList{
		Table: newTable(theme, " Groups "),
		theme: theme,
	}
}

// Name implements ui.Component.
func (gl *GroupList) Name() string { return "Groups" }

// Hints implements ui.Component.
func (gl *GroupList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "n", Description: "New group"},
		{Key: "i", Description: "Group info"},
	}
}

// Update shows groups, already filtered by filter, out of total.
func (gl *GroupList) Update(groups []domain.Group, total int, filter string) {
	gl.groups = groups
	gl.total = total
	gl.filter = filter
	gl.render()
}

// SetActive highlights the open group; 0 clears it.
func (gl *GroupList) SetActive(groupID int64) {
	gl.active = groupID
	gl.render()
}

func (gl *GroupList) render() {
	gl.Clear()
	setHeader(gl.Table, gl.theme, "", " NAME", " MEMBERS")

	unread := 0
	for i, g := range gl.groups {
		badge := "  "
		if g.UnreadCount > 0 {
			unread += g.UnreadCount
			badge = fmt.Sprintf("[%s::b]%d[-:-:-]", ui.Tag(gl.theme.UnreadColor), g.UnreadCount)
		}
		name := " " + cellText(g.Name, nameWidth)
		if g.Role == domain.RoleAdmin {
			name += " [::d]admin[-:-:-]"
		}
		if g.GroupID == gl.active {
			name = "[::b]" + name + "[-:-:-]"
		}
		row := i + 1
		gl.SetCell(row, 0, tview.NewTableCell(" "+badge))
		gl.SetCell(row, 1, tview.NewTableCell(name).SetExpansion(1).SetTextColor(gl.theme.FgColor))
		gl.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf(" %d", g.MemberCount)).SetAlign(tview.AlignRight).SetTextColor(gl.theme.FgColor))
	}
	keepSelection(gl.Table)

	switch {
	case gl.filter != "":
		gl.SetTitle(fmt.Sprintf(" Groups (%d/%d) /%s ", len(gl.groups), gl.total, tview.Escape(gl.filter)))
	case unread > 0:
		gl.SetTitle(fmt.Sprintf(" Groups (%d, %d unread) ", len(gl.groups), unread))
	default:
		gl.SetTitle(fmt.Sprintf(" Groups (%d) ", len(gl.groups)))
	}
}

// Selected returns the group under the cursor.
func (gl *GroupList) Selected() (domain.Group, bool) {
	row, _ := gl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(gl.groups) {
		return domain.Group{}, false
	}
	return gl.groups[idx], true
}
