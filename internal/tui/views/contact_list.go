package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

const nameWidth = 24

// ContactList is the contact sidebar.
type ContactList struct {
	*tview.Table
	theme    *ui.Theme
	contacts []domain.Contact
	total    int
	filter   string
	active   int64
}

// NewContactList creates the contact table.
func NewContactList(theme *ui.Theme) *ContactList {
	return &ContactList{
		Table: newTable(theme, " Contacts "),
		theme: theme,
	}
}

// Name implements ui.Component.
func (cl *ContactList) Name() string { return "Contacts" }

// Hints implements ui.Component.
func (cl *ContactList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "a", Description: "Add contact"},
	}
}

// Update shows contacts, already filtered by filter, out of total.
func (cl *ContactList) Update(contacts []domain.Contact, total int, filter string) {
	cl.contacts = contacts
	cl.total = total
	cl.filter = filter
	cl.render()
}

// SetActive highlights the open contact; 0 clears it.
func (cl *ContactList) SetActive(userID int64) {
	cl.active = userID
	cl.render()
}

func (cl *ContactList) render() {
	cl.Clear()
	setHeader(cl.Table, cl.theme, "", " NAME", " EMAIL")

	online := 0
	for i, c := range cl.contacts {
		dot := fmt.Sprintf("[%s]○[-]", ui.Tag(cl.theme.OfflineColor))
		if c.Online() {
			online++
			dot = fmt.Sprintf("[%s]●[-]", ui.Tag(cl.theme.OnlineColor))
		}
		name := " " + cellText(c.Username, nameWidth)
		if c.UserID == cl.active {
			name = "[::b]" + name + "[-:-:-]"
		}
		row := i + 1
		cl.SetCell(row, 0, tview.NewTableCell(" "+dot))
		cl.SetCell(row, 1, tview.NewTableCell(name).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+cellText(c.Email, nameWidth)).SetTextColor(cl.theme.FgColor))
	}
	keepSelection(cl.Table)

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Contacts (%d/%d) /%s ", len(cl.contacts), cl.total, tview.Escape(cl.filter)))
		return
	}
	cl.SetTitle(fmt.Sprintf(" Contacts (%d, %d online) ", len(cl.contacts), online))
}

// Selected returns the contact under the cursor.
func (cl *ContactList) Selected() (domain.Contact, bool) {
	row, _ := cl.GetSelection()
	return cl.At(row)
}

// At returns the contact on table row (1-based, below the header).
func (cl *ContactList) At(row int) (domain.Contact, bool) {
	idx := row - 1
	if idx < 0 || idx >= len(cl.contacts) {
		return domain.Contact{}, false
	}
	return cl.contacts[idx], true
}
