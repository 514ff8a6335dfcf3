package views

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// SearchDebounce is the pause after the last keystroke before searching.
const SearchDebounce = 300 * time.Millisecond

// Debouncer runs the latest submitted function once input has been quiet
// for the delay.
type Debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do schedules fn, replacing anything scheduled before.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops anything scheduled.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// UserSearch finds users to add as contacts.
type UserSearch struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	results  *tview.Table
	debounce *Debouncer
	data     []domain.SearchResult
	onQuery  func(query string)
	onAdd    func(r domain.SearchResult)
}

// NewUserSearch creates the search page.
func NewUserSearch(theme *ui.Theme) *UserSearch {
	input := tview.NewInputField().
		SetLabel(" Search users: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := newTable(theme, " Results ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	us := &UserSearch{
		Flex:     flex,
		theme:    theme,
		input:    input,
		results:  results,
		debounce: NewDebouncer(SearchDebounce),
	}

	input.SetChangedFunc(func(text string) {
		if us.onQuery == nil {
			return
		}
		us.debounce.Do(func() { us.onQuery(text) })
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && us.onQuery != nil {
			us.debounce.Cancel()
			us.onQuery(input.GetText())
		}
	})
	results.SetSelectedFunc(func(row, _ int) {
		idx := row - 1
		if us.onAdd != nil && idx >= 0 && idx < len(us.data) {
			us.onAdd(us.data[idx])
		}
	})

	us.ShowMessage("Type at least 2 characters")
	return us
}

// Name implements ui.Component.
func (us *UserSearch) Name() string { return "Add contact" }

// Hints implements ui.Component.
func (us *UserSearch) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Results"},
		{Key: "Enter", Description: "Search / Add"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnQuery sets the callback run with the query after typing pauses or
// on Enter. It runs on the debounce goroutine.
func (us *UserSearch) SetOnQuery(fn func(query string)) { us.onQuery = fn }

// SetOnAdd sets the callback for Enter on a result.
func (us *UserSearch) SetOnAdd(fn func(r domain.SearchResult)) { us.onAdd = fn }

// Input returns the query field.
func (us *UserSearch) Input() *tview.InputField { return us.input }

// Results returns the results table.
func (us *UserSearch) Results() *tview.Table { return us.results }

// Reset clears the query and results.
func (us *UserSearch) Reset(query string) {
	us.debounce.Cancel()
	us.input.SetText(query)
	us.data = nil
	us.ShowMessage("Type at least 2 characters")
}

// ShowMessage replaces the results with a single line of text.
func (us *UserSearch) ShowMessage(text string) {
	us.data = nil
	us.results.Clear()
	us.results.SetCell(0, 0, tview.NewTableCell(" "+tview.Escape(text)).
		SetSelectable(false).
		SetTextColor(us.theme.FgColor))
}

// Update shows results.
func (us *UserSearch) Update(results []domain.SearchResult) {
	if len(results) == 0 {
		us.ShowMessage("No users found")
		return
	}
	us.data = results
	us.results.Clear()
	setHeader(us.results, us.theme, " USERNAME", " EMAIL", " ")
	for i, r := range results {
		state := "[::d]Enter to add[-:-:-]"
		if r.IsContact {
			state = fmt.Sprintf("[%s]contact[-]", ui.Tag(us.theme.OnlineColor))
		}
		row := i + 1
		us.results.SetCell(row, 0, tview.NewTableCell(" "+cellText(r.Username, nameWidth)).SetTextColor(us.theme.FgColor))
		us.results.SetCell(row, 1, tview.NewTableCell(" "+cellText(r.Email, 0)).SetExpansion(1).SetTextColor(us.theme.FgColor))
		us.results.SetCell(row, 2, tview.NewTableCell(" "+state))
	}
	us.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(results)))
	us.results.Select(1, 0)
}
