package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// GroupInfo shows a group's details and member list.
type GroupInfo struct {
	*tview.Flex
	theme   *ui.Theme
	details *tview.TextView
	members *tview.Table
	group   *domain.GroupDetails
}

// NewGroupInfo creates the group info page.
func NewGroupInfo(theme *ui.Theme) *GroupInfo {
	details := tview.NewTextView().SetDynamicColors(true)
	details.SetBorder(true)
	details.SetBorderColor(theme.BorderColor)
	details.SetBackgroundColor(theme.BgColor)
	details.SetTextColor(theme.FgColor)
	details.SetTitle(" Group Details ")
	details.SetTitleColor(theme.TitleColor)

	members := newTable(theme, " Members ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(details, 7, 0, false).
		AddItem(members, 0, 1, true)

	return &GroupInfo{
		Flex:    flex,
		theme:   theme,
		details: details,
		members: members,
	}
}

// Name implements ui.Component.
func (gi *GroupInfo) Name() string {
	if gi.group != nil {
		return gi.group.Name
	}
	return "Group"
}

// Hints implements ui.Component.
func (gi *GroupInfo) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{{Key: "Esc", Description: "Back"}}
	if gi.group != nil && gi.group.UserRole == domain.RoleAdmin {
		hints = append(hints, ui.MenuHint{Key: "x", Description: "Remove member"})
	}
	return append(hints, ui.MenuHint{Key: "L", Description: "Leave / delete"})
}

// Members returns the member table for focus management.
func (gi *GroupInfo) Members() *tview.Table { return gi.members }

// Group returns the group currently shown.
func (gi *GroupInfo) Group() *domain.GroupDetails { return gi.group }

// Update renders d.
func (gi *GroupInfo) Update(d *domain.GroupDetails) {
	gi.group = d
	gi.details.Clear()
	gi.members.Clear()
	if d == nil {
		return
	}

	fg := ui.Tag(gi.theme.FgColor)
	ct := ui.Tag(gi.theme.CounterColor)
	privacy := d.Privacy
	if privacy == "" {
		privacy = "-"
	}
	_, _ = fmt.Fprintf(gi.details,
		" [%s::b]Name:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Creator:[-:-:-]   [%s]%s[-]\n"+
			" [%s::b]Created:[-:-:-]   [%s]%s[-]\n"+
			" [%s::b]Privacy:[-:-:-]   [%s]%s[-]\n"+
			" [%s::b]Your role:[-:-:-] [%s]%s[-]",
		fg, ct, cellText(d.Name, 0),
		fg, ct, cellText(d.CreatorUsername, 0),
		fg, ct, tview.Escape(d.CreatedAt),
		fg, ct, tview.Escape(privacy),
		fg, ct, d.UserRole,
	)
	gi.details.SetTitle(fmt.Sprintf(" %s ", cellText(d.Name, 40)))

	setHeader(gi.members, gi.theme, "", " NAME", " EMAIL", " ROLE")
	for i, m := range d.Members {
		dot := fmt.Sprintf("[%s]○[-]", ui.Tag(gi.theme.OfflineColor))
		if m.Status == domain.Online {
			dot = fmt.Sprintf("[%s]●[-]", ui.Tag(gi.theme.OnlineColor))
		}
		role := string(m.Role)
		if m.UserID == d.CreatedBy {
			role += " (creator)"
		}
		row := i + 1
		gi.members.SetCell(row, 0, tview.NewTableCell(" "+dot))
		gi.members.SetCell(row, 1, tview.NewTableCell(" "+cellText(m.Username, nameWidth)).SetExpansion(1).SetTextColor(gi.theme.FgColor))
		gi.members.SetCell(row, 2, tview.NewTableCell(" "+cellText(m.Email, nameWidth)).SetTextColor(gi.theme.FgColor))
		gi.members.SetCell(row, 3, tview.NewTableCell(" "+role).SetTextColor(gi.theme.FgColor))
	}
	gi.members.SetTitle(fmt.Sprintf(" Members (%d) ", len(d.Members)))
	keepSelection(gi.members)
}

// SelectedMember returns the member under the cursor.
func (gi *GroupInfo) SelectedMember() (domain.Member, bool) {
	if gi.group == nil {
		return domain.Member{}, false
	}
	row, _ := gi.members.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(gi.group.Members) {
		return domain.Member{}, false
	}
	return gi.group.Members[idx], true
}
