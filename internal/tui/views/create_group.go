package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// CreateGroup collects a group name and its initial members.
type CreateGroup struct {
	*tview.Flex
	theme    *ui.Theme
	name     *tview.InputField
	members  *tview.Table
	contacts []domain.Contact
	picked   map[int64]bool
	onSubmit func(name string, members []int64)
}

// NewCreateGroup creates the new-group page.
func NewCreateGroup(theme *ui.Theme) *CreateGroup {
	name := tview.NewInputField().
		SetLabel(" Group name: ").
		SetFieldWidth(0)
	name.SetBackgroundColor(theme.BgColor)
	name.SetFieldBackgroundColor(theme.BgColor)
	name.SetFieldTextColor(theme.FgColor)
	name.SetLabelColor(theme.MenuKeyColor)

	members := newTable(theme, " Members ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(name, 1, 0, true).
		AddItem(members, 0, 1, false)

	cg := &CreateGroup{
		Flex:    flex,
		theme:   theme,
		name:    name,
		members: members,
		picked:  make(map[int64]bool),
	}

	name.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			cg.submit()
		}
	})
	members.SetSelectedFunc(func(row, _ int) {
		idx := row - 1
		if idx >= 0 && idx < len(cg.contacts) {
			id := cg.contacts[idx].UserID
			cg.picked[id] = !cg.picked[id]
			cg.render()
		}
	})
	members.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyCtrlS {
			cg.submit()
			return nil
		}
		return ev
	})
	return cg
}

// Name implements ui.Component.
func (cg *CreateGroup) Name() string { return "New group" }

// Hints implements ui.Component.
func (cg *CreateGroup) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Name / members"},
		{Key: "Enter", Description: "Toggle member"},
		{Key: "Ctrl-S", Description: "Create"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// SetOnSubmit sets the callback for Ctrl-S or Enter in the name field.
func (cg *CreateGroup) SetOnSubmit(fn func(name string, members []int64)) { cg.onSubmit = fn }

// NameField returns the name input.
func (cg *CreateGroup) NameField() *tview.InputField { return cg.name }

// MemberTable returns the member picker.
func (cg *CreateGroup) MemberTable() *tview.Table { return cg.members }

// Reset starts a new form offering contacts as members.
func (cg *CreateGroup) Reset(name string, contacts []domain.Contact) {
	cg.name.SetText(name)
	cg.contacts = contacts
	cg.picked = make(map[int64]bool)
	cg.render()
}

func (cg *CreateGroup) render() {
	cg.members.Clear()
	setHeader(cg.members, cg.theme, "", " NAME", " EMAIL")
	for i, c := range cg.contacts {
		mark := "[ ]"
		if cg.picked[c.UserID] {
			mark = fmt.Sprintf("[%s][x[][-]", ui.Tag(cg.theme.OnlineColor))
		} else {
			mark = tview.Escape(mark)
		}
		row := i + 1
		cg.members.SetCell(row, 0, tview.NewTableCell(" "+mark))
		cg.members.SetCell(row, 1, tview.NewTableCell(" "+cellText(c.Username, nameWidth)).SetExpansion(1).SetTextColor(cg.theme.FgColor))
		cg.members.SetCell(row, 2, tview.NewTableCell(" "+cellText(c.Email, nameWidth)).SetTextColor(cg.theme.FgColor))
	}
	cg.members.SetTitle(fmt.Sprintf(" Members (%d selected) ", len(cg.Picked())))
	keepSelection(cg.members)
}

// Picked returns the selected member ids in contact-list order.
func (cg *CreateGroup) Picked() []int64 {
	var ids []int64
	for _, c := range cg.contacts {
		if cg.picked[c.UserID] {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

func (cg *CreateGroup) submit() {
	if cg.onSubmit != nil {
		cg.onSubmit(cg.name.GetText(), cg.Picked())
	}
}
