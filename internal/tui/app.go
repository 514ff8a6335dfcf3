// Package tui is the terminal front end. It renders the session controller's
// state and turns keys and commands into controller operations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/conversation"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/status"
	"github.com/matheus3301/chatterm/internal/tui/keys"
	"github.com/matheus3301/chatterm/internal/tui/ui"
	"github.com/matheus3301/chatterm/internal/tui/views"
)

// Page names.
const (
	pageMain     = "main"
	pageSearch   = "search"
	pageNewGroup = "newgroup"
	pageGroup    = "group"
	pageHelp     = "help"
	pageImage    = "image"
	pageConfirm  = "confirm"
)

// Focus scopes on the main page.
const (
	scopeContacts = "contacts"
	scopeGroups   = "groups"
	scopeThread   = "thread"
	scopeComposer = "composer"
)

// Options configures the application shell.
type Options struct {
	Profile string
	Server  string
	Logger  *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app     *tview.Application
	ctl     *chat.Controller
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
	opts    Options
	started time.Time

	theme    *ui.Theme
	root     *tview.Flex
	pages    *ui.Pages
	crumbs   *ui.Crumbs
	menu     *ui.Menu
	info     *ui.SessionInfo
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	registry *keys.Registry

	contacts  *views.ContactList
	groups    *views.GroupList
	thread    *views.MessageThread
	search    *views.UserSearch
	newGroup  *views.CreateGroup
	groupInfo *views.GroupInfo
	help      *views.HelpView
	lightbox  *views.Lightbox
	confirm   *tview.Modal

	// filterTarget is the list the open filter prompt applies to.
	filterTarget  string
	contactFilter string
	groupFilter   string
	// returnFocus is restored when the prompt closes.
	returnFocus tview.Primitive

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(ctl *chat.Controller, b *bus.Bus, machine *status.Machine, opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.OrNop(opts.Logger)
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		ctl:       ctl,
		bus:       b,
		machine:   machine,
		logger:    logger,
		opts:      opts,
		started:   time.Now(),
		theme:     theme,
		pages:     ui.NewPages(),
		crumbs:    ui.NewCrumbs(theme),
		menu:      ui.NewMenu(theme),
		info:      ui.NewSessionInfo(theme),
		prompt:    ui.NewPrompt(theme),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		registry:  keys.NewRegistry(),
		contacts:  views.NewContactList(theme),
		groups:    views.NewGroupList(theme),
		thread:    views.NewMessageThread(theme),
		search:    views.NewUserSearch(theme),
		newGroup:  views.NewCreateGroup(theme),
		groupInfo: views.NewGroupInfo(theme),
		help:      views.NewHelpView(theme),
		lightbox:  views.NewLightbox(theme),
		confirm:   tview.NewModal(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func runeKey(r rune, desc string, fn func()) *keys.Action {
	return &keys.Action{Key: tcell.KeyRune, Rune: r, Description: desc, Handler: fn}
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(runeKey(':', "Command", func() { a.showPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal(runeKey('?', "Help", a.showHelp))
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyTab, Label: "Tab", Description: "Next pane", Handler: func() { a.cycleFocus(1) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyBacktab, Label: "S-Tab", Description: "Prev pane", Handler: func() { a.cycleFocus(-1) }, Hidden: true})
	a.registry.AddGlobal(runeKey('q', "Quit", a.quitOrBack))

	a.registry.Add(scopeContacts, runeKey('/', "Filter", func() { a.showPrompt(ui.PromptFilter, scopeContacts) }))
	a.registry.Add(scopeContacts, runeKey('a', "Add contact", func() { a.showSearch("") }))
	a.registry.Add(scopeContacts, runeKey('n', "New group", func() { a.showNewGroup("") }))

	a.registry.Add(scopeGroups, runeKey('/', "Filter", func() { a.showPrompt(ui.PromptFilter, scopeGroups) }))
	a.registry.Add(scopeGroups, runeKey('n', "New group", func() { a.showNewGroup("") }))
	a.registry.Add(scopeGroups, runeKey('i', "Group info", func() {
		if g, ok := a.groups.Selected(); ok {
			a.showGroupInfo(g.GroupID)
		}
	}))

	a.registry.Add(scopeThread, runeKey('i', "Compose", func() { a.app.SetFocus(a.thread.Composer()) }))
	a.registry.Add(scopeThread, runeKey('k', "Select up", func() { a.thread.MoveSelection(-1) }))
	a.registry.Add(scopeThread, runeKey('j', "Select down", func() { a.thread.MoveSelection(1) }))
	a.registry.Add(scopeThread, &keys.Action{Key: tcell.KeyUp, Handler: func() { a.thread.MoveSelection(-1) }, Hidden: true})
	a.registry.Add(scopeThread, &keys.Action{Key: tcell.KeyDown, Handler: func() { a.thread.MoveSelection(1) }, Hidden: true})
	a.registry.Add(scopeThread, runeKey('e', "Edit", a.editSelected))
	a.registry.Add(scopeThread, runeKey('x', "Delete", a.deleteSelected))
	a.registry.Add(scopeThread, runeKey('o', "Download", a.downloadSelected))
	a.registry.Add(scopeThread, runeKey('v', "View image", a.viewSelected))
	a.registry.Add(scopeThread, runeKey('r', "Retry", a.retry))
	a.registry.Add(scopeThread, runeKey('I', "Group info", func() {
		if p := a.ctl.View().Pane(); p.Kind == conversation.GroupActive {
			a.showGroupInfo(p.ID)
		}
	}))

	a.registry.Add(pageGroup, runeKey('x', "Remove member", a.kickSelected))
	a.registry.Add(pageGroup, runeKey('L', "Leave / delete", a.exitShownGroup))
	a.registry.Add(pageImage, runeKey('o', "Download", a.downloadSelected))
}

func (a *App) setupCallbacks() {
	a.contacts.SetSelectedFunc(func(row, _ int) {
		if c, ok := a.contacts.At(row); ok {
			a.openContact(c.UserID)
		}
	})
	a.groups.SetSelectedFunc(func(int, int) {
		if g, ok := a.groups.Selected(); ok {
			a.openGroup(g.GroupID)
		}
	})

	a.thread.SetOnSend(a.send)
	a.thread.SetOnKeystroke(a.ctl.Keystroke)

	a.search.SetOnQuery(a.runSearch)
	a.search.SetOnAdd(func(r domain.SearchResult) {
		if r.IsContact {
			a.notice(bus.KindNoticeInfo, r.Username+" is already a contact")
			return
		}
		query := a.search.Input().GetText()
		a.do(func(ctx context.Context) {
			if err := a.ctl.AddContact(ctx, r.UserID); err == nil {
				a.runSearch(query)
			}
		})
	})

	a.newGroup.SetOnSubmit(func(name string, members []int64) {
		a.do(func(ctx context.Context) {
			id, err := a.ctl.CreateGroup(ctx, name, members)
			if err != nil {
				return
			}
			a.app.QueueUpdateDraw(func() {
				if a.pages.Current() == pageNewGroup {
					a.pages.Pop()
				}
				a.openGroup(id)
			})
		})
	})

	a.prompt.SetOnSubmit(a.onPromptSubmit)
	a.prompt.SetOnCancel(a.hidePrompt)
	a.prompt.SetChangedFunc(func(text string) {
		if a.prompt.Mode() == ui.PromptFilter {
			a.applyFilter(text)
		}
	})

	a.confirm.AddButtons([]string{"Yes", "No"})
	a.confirm.SetBackgroundColor(a.theme.BgColor)

	a.pages.SetOnChange(func([]string) { a.refreshChrome() })
}

func (a *App) setupLayout() {
	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.contacts, 0, 3, true).
		AddItem(a.groups, 0, 2, false)
	main := tview.NewFlex().
		AddItem(sidebar, 44, 0, true).
		AddItem(a.thread, 0, 1, false)

	a.pages.AddPage(pageMain, main, true, true)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageNewGroup, a.newGroup, true, false)
	a.pages.AddPage(pageGroup, a.groupInfo, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)
	a.pages.AddPage(pageImage, a.lightbox, true, false)
	a.pages.AddOverlay(pageConfirm, a.confirm)

	header := tview.NewFlex().
		AddItem(ui.NewLogo(a.theme), 16, 0, false).
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
	a.pages.Reset(pageMain)
	a.app.SetFocus(a.contacts)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if a.prompt.HasFocus() || a.pages.Current() == pageConfirm {
		return ev
	}
	page := a.pages.Current()

	switch ev.Key() {
	case tcell.KeyEscape:
		a.back()
		return nil
	case tcell.KeyTab, tcell.KeyBacktab:
		if page == pageMain {
			break
		}
		a.toggleFormFocus()
		return nil
	}

	// Text inputs keep every other key.
	if _, ok := a.app.GetFocus().(*tview.InputField); ok && ev.Key() != tcell.KeyTab && ev.Key() != tcell.KeyBacktab {
		return ev
	}
	if a.registry.HandleEvent(a.scope(), ev) {
		return nil
	}
	return ev
}

// scope names the bindings that apply: the page, or on the main page the
// focused pane.
func (a *App) scope() string {
	if page := a.pages.Current(); page != pageMain {
		return page
	}
	switch {
	case a.thread.Composer().HasFocus():
		return scopeComposer
	case a.thread.Messages().HasFocus():
		return scopeThread
	case a.groups.HasFocus():
		return scopeGroups
	}
	return scopeContacts
}

func (a *App) focusables() []tview.Primitive {
	return []tview.Primitive{a.contacts, a.groups, a.thread.Messages(), a.thread.Composer()}
}

func (a *App) cycleFocus(step int) {
	if a.pages.Current() != pageMain {
		return
	}
	items := a.focusables()
	cur := 0
	for i, p := range items {
		if p.HasFocus() {
			cur = i
		}
	}
	next := (cur + step + len(items)) % len(items)
	a.app.SetFocus(items[next])
	a.refreshChrome()
}

func (a *App) toggleFormFocus() {
	switch a.pages.Current() {
	case pageSearch:
		if a.search.Input().HasFocus() {
			a.app.SetFocus(a.search.Results())
		} else {
			a.app.SetFocus(a.search.Input())
		}
	case pageNewGroup:
		if a.newGroup.NameField().HasFocus() {
			a.app.SetFocus(a.newGroup.MemberTable())
		} else {
			a.app.SetFocus(a.newGroup.NameField())
		}
	}
}

func (a *App) back() {
	if a.pages.Current() != pageMain {
		a.pages.Pop()
		a.focusCurrentPage()
		return
	}
	switch a.scope() {
	case scopeComposer:
		a.app.SetFocus(a.thread.Messages())
	case scopeContacts:
		if a.contactFilter != "" {
			a.contactFilter = ""
			a.refreshContacts()
		}
	case scopeGroups:
		if a.groupFilter != "" {
			a.groupFilter = ""
			a.refreshGroups()
		}
	}
	a.refreshChrome()
}

func (a *App) quitOrBack() {
	if a.pages.Current() != pageMain {
		a.back()
		return
	}
	a.app.Stop()
}

func (a *App) focusCurrentPage() {
	switch a.pages.Current() {
	case pageMain:
		a.app.SetFocus(a.contacts)
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	case pageNewGroup:
		a.app.SetFocus(a.newGroup.NameField())
	case pageGroup:
		a.app.SetFocus(a.groupInfo.Members())
	case pageHelp:
		a.app.SetFocus(a.help)
	case pageImage:
		a.app.SetFocus(a.lightbox)
	}
	a.refreshChrome()
}

func (a *App) push(page string, focus tview.Primitive) {
	a.pages.Push(page)
	a.app.SetFocus(focus)
	a.refreshChrome()
}

// do runs fn off the UI goroutine. Controller operations report their own
// failures as notices.
func (a *App) do(fn func(ctx context.Context)) {
	go fn(a.ctx)
}

func (a *App) notice(kind, text string) {
	a.bus.Emit(kind, text)
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 512)
	defer unsub()

	go a.consume(events)
	go a.tick()

	a.refreshAll()
	err := a.app.Run()
	a.cancel()
	return err
}

// Stop shuts the TUI down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func (a *App) consume(events <-chan bus.Event) {
	for {
		select {
		case evt := <-events:
			if strings.HasPrefix(evt.Kind, bus.NamespaceRealtime) {
				continue
			}
			a.app.QueueUpdateDraw(func() { a.apply(evt) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) tick() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			a.app.QueueUpdateDraw(a.refreshHeader)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) apply(evt bus.Event) {
	switch evt.Kind {
	case bus.KindContactsChanged:
		a.refreshContacts()
		a.refreshPaneTitle()
		a.refreshHeader()
	case bus.KindGroupsChanged:
		a.refreshGroups()
		a.refreshHeader()
	case bus.KindPaneChanged:
		a.refreshPane()
	case bus.KindMessagesChanged:
		a.refreshMessages()
	case bus.KindTypingChanged:
		text, _ := evt.Payload.(string)
		a.thread.SetTyping(text)
	case bus.KindComposerChanged:
		if s, ok := evt.Payload.(composer.State); ok {
			a.thread.SetComposer(s)
		}
	case bus.KindNoticeInfo, bus.KindNoticeError:
		text, _ := evt.Payload.(string)
		a.showFlash(evt.Kind == bus.KindNoticeError, text)
	case bus.KindStatusChanged:
		a.refreshHeader()
		if sc, ok := evt.Payload.(status.StatusChange); ok && sc.To == status.Reconnecting {
			a.showFlashLevel(ui.FlashWarn, "Connection lost, reconnecting...")
		}
	}
}

func (a *App) showFlash(isErr bool, text string) {
	if isErr {
		a.showFlashLevel(ui.FlashErr, text)
		return
	}
	a.showFlashLevel(ui.FlashInfo, text)
}

func (a *App) showFlashLevel(level ui.FlashLevel, text string) {
	var m ui.FlashMessage
	switch level {
	case ui.FlashErr:
		m = a.flash.Err(text)
	case ui.FlashWarn:
		m = a.flash.Warn(text)
	default:
		m = a.flash.Info(text)
	}
	a.flashBar.Update(&m)
	time.AfterFunc(ui.FlashDuration, func() {
		a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
	})
}

func (a *App) refreshAll() {
	a.refreshContacts()
	a.refreshGroups()
	a.refreshPane()
	a.thread.SetComposer(a.ctl.Composer())
	a.refreshHeader()
	a.refreshChrome()
}

func (a *App) refreshContacts() {
	r := a.ctl.Roster()
	a.contacts.Update(r.FilterContacts(a.contactFilter), len(r.Contacts()), a.contactFilter)
}

func (a *App) refreshGroups() {
	r := a.ctl.Roster()
	a.groups.Update(r.FilterGroups(a.groupFilter), len(r.Groups()), a.groupFilter)
}

func (a *App) refreshPane() {
	p := a.ctl.View().Pane()
	switch p.Kind {
	case conversation.ContactActive:
		a.contacts.SetActive(p.ID)
		a.groups.SetActive(0)
	case conversation.GroupActive:
		a.contacts.SetActive(0)
		a.groups.SetActive(p.ID)
	default:
		a.contacts.SetActive(0)
		a.groups.SetActive(0)
		a.thread.Close()
		if a.thread.Composer().HasFocus() || a.thread.Messages().HasFocus() {
			a.app.SetFocus(a.groups)
		}
		a.refreshChrome()
		return
	}
	a.refreshPaneTitle()
	a.refreshMessages()
	a.thread.SetTyping(a.ctl.View().Typing())
	a.refreshChrome()
}

func (a *App) paneTitle(p conversation.Pane) (string, string) {
	r := a.ctl.Roster()
	switch p.Kind {
	case conversation.ContactActive:
		if c, ok := r.Contact(p.ID); ok {
			presence := "offline"
			if c.Online() {
				presence = "online"
			}
			return c.Username, presence
		}
		return fmt.Sprintf("user %d", p.ID), ""
	case conversation.GroupActive:
		if g, ok := r.Group(p.ID); ok {
			return g.Name, fmt.Sprintf("%d members", g.MemberCount)
		}
		return fmt.Sprintf("group %d", p.ID), ""
	}
	return "", ""
}

// refreshPaneTitle keeps the thread title and presence current without
// resetting the thread.
func (a *App) refreshPaneTitle() {
	p := a.ctl.View().Pane()
	if p.Kind == conversation.Empty {
		return
	}
	a.thread.SetHeading(a.paneTitle(p))
}

func (a *App) refreshMessages() {
	v := a.ctl.View()
	p := v.Pane()
	if p.Kind == conversation.Empty {
		return
	}
	a.thread.Update(v.Messages(), p.Kind == conversation.GroupActive, v.Loading(), v.LoadErr())
}

func (a *App) refreshHeader() {
	r := a.ctl.Roster()
	online := 0
	for _, c := range r.Contacts() {
		if c.Online() {
			online++
		}
	}
	self := a.ctl.Self()
	a.info.Update(ui.SessionData{
		Profile:  a.opts.Profile,
		User:     fmt.Sprintf("%s (#%d)", self.Username, self.UserID),
		Server:   a.opts.Server,
		Status:   string(a.machine.Current()),
		Contacts: len(r.Contacts()),
		Online:   online,
		Groups:   len(r.Groups()),
		Uptime:   time.Since(a.started),
	})
}

// component returns the view that owns the current scope.
func (a *App) component() ui.Component {
	switch a.scope() {
	case scopeGroups:
		return a.groups
	case scopeThread, scopeComposer:
		return a.thread
	case scopeContacts:
		return a.contacts
	}
	return a.pageComponent(a.pages.Current())
}

func (a *App) pageComponent(page string) ui.Component {
	switch page {
	case pageSearch:
		return a.search
	case pageNewGroup:
		return a.newGroup
	case pageGroup:
		return a.groupInfo
	case pageHelp:
		return a.help
	case pageImage:
		return a.lightbox
	}
	return nil
}

func (a *App) refreshChrome() {
	var trail []string
	for _, page := range a.pages.Stack() {
		switch page {
		case pageMain:
			trail = append(trail, "chatterm")
			if name, _ := a.paneTitle(a.ctl.View().Pane()); name != "" {
				trail = append(trail, name)
			}
		case pageConfirm:
			trail = append(trail, "confirm")
		default:
			if c := a.pageComponent(page); c != nil {
				trail = append(trail, c.Name())
			}
		}
	}
	a.crumbs.Update(trail)

	var hints []ui.MenuHint
	if c := a.component(); c != nil {
		hints = c.Hints()
	}
	a.menu.Update(append(hints, a.registry.Hints("")...))
}

func (a *App) openContact(userID int64) {
	t, err := a.ctl.OpenContact(userID)
	if err != nil {
		a.notice(bus.KindNoticeError, "Cannot open conversation: "+err.Error())
		return
	}
	a.thread.Open(a.paneTitle(t.Pane))
	a.app.SetFocus(a.thread.Composer())
	a.do(func(ctx context.Context) { _ = a.ctl.FetchHistory(ctx, t) })
}

func (a *App) openGroup(groupID int64) {
	t, err := a.ctl.OpenGroup(groupID)
	if err != nil {
		a.notice(bus.KindNoticeError, "Cannot open group: "+err.Error())
		return
	}
	a.thread.Open(a.paneTitle(t.Pane))
	a.app.SetFocus(a.thread.Composer())
	a.do(func(ctx context.Context) { _ = a.ctl.FetchHistory(ctx, t) })
}

func (a *App) send(text string) {
	a.do(func(ctx context.Context) {
		sent, err := a.ctl.Send(ctx, text)
		if err != nil || !sent {
			return
		}
		a.app.QueueUpdateDraw(func() { a.thread.ClearInput(text) })
	})
}

func (a *App) retry() {
	t, err := a.ctl.ReopenPane()
	if err != nil {
		return
	}
	a.do(func(ctx context.Context) { _ = a.ctl.FetchHistory(ctx, t) })
}

func (a *App) selectedMessage() (int64, bool) {
	b, ok := a.thread.Selected()
	if !ok {
		a.notice(bus.KindNoticeInfo, "Select a message first (j/k)")
		return 0, false
	}
	return b.MsgID, true
}

func (a *App) editSelected() {
	id, ok := a.selectedMessage()
	if !ok {
		return
	}
	m, _ := a.ctl.View().Message(id)
	if !m.IsMine || m.Deleted {
		a.notice(bus.KindNoticeError, "Cannot edit message: "+chat.ErrNotMine.Error())
		return
	}
	a.ask("Edit message", m.Content, func(text string) {
		a.do(func(ctx context.Context) { _ = a.ctl.EditMessage(ctx, id, text) })
	})
}

func (a *App) deleteSelected() {
	id, ok := a.selectedMessage()
	if !ok {
		return
	}
	a.confirmThen("Delete this message for everyone?", func() {
		a.do(func(ctx context.Context) { _ = a.ctl.DeleteMessage(ctx, id) })
	})
}

func (a *App) downloadSelected() {
	id, ok := a.selectedMessage()
	if !ok {
		return
	}
	a.do(func(ctx context.Context) { _, _ = a.ctl.Download(ctx, id) })
}

func (a *App) viewSelected() {
	b, ok := a.thread.Selected()
	if !ok {
		a.notice(bus.KindNoticeInfo, "Select a message first (j/k)")
		return
	}
	if b.Attachment == nil || !b.Attachment.Image {
		a.downloadSelected()
		return
	}
	url, err := a.ctl.AttachmentURL(b.MsgID)
	if err != nil {
		a.notice(bus.KindNoticeError, "Cannot open image: "+err.Error())
		return
	}
	a.lightbox.Show(b.Attachment.Name, url)
	a.push(pageImage, a.lightbox)
}

func (a *App) showHelp() {
	sections := []views.HelpSection{{Title: "Everywhere", Hints: a.registry.Hints("")}}
	for _, c := range []ui.Component{a.contacts, a.groups, a.thread, a.groupInfo, a.search, a.newGroup} {
		sections = append(sections, views.HelpSection{Title: c.Name(), Hints: c.Hints()})
	}
	sections = append(sections, views.HelpSection{Title: "Commands", Hints: commandHints()})
	a.help.Update(sections)
	a.push(pageHelp, a.help)
}

func (a *App) showSearch(query string) {
	// Reset runs the query through the input's debounced search.
	a.search.Reset(query)
	a.push(pageSearch, a.search.Input())
}

// runSearch may run on any goroutine.
func (a *App) runSearch(query string) {
	if len([]rune(strings.TrimSpace(query))) < chat.MinSearchLen {
		a.app.QueueUpdateDraw(func() { a.search.ShowMessage("Type at least 2 characters") })
		return
	}
	a.do(func(ctx context.Context) {
		res, err := a.ctl.SearchUsers(ctx, query)
		a.app.QueueUpdateDraw(func() {
			// A newer query owns the table.
			if strings.TrimSpace(a.search.Input().GetText()) != strings.TrimSpace(query) {
				return
			}
			if err != nil {
				a.search.ShowMessage("Search failed")
				return
			}
			a.search.Update(res)
		})
	})
}

func (a *App) showNewGroup(name string) {
	a.newGroup.Reset(name, a.ctl.Roster().Contacts())
	a.push(pageNewGroup, a.newGroup.NameField())
}

func (a *App) showGroupInfo(groupID int64) {
	a.do(func(ctx context.Context) {
		d, err := a.ctl.GroupInfo(ctx, groupID)
		if err != nil {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.groupInfo.Update(d)
			a.push(pageGroup, a.groupInfo.Members())
		})
	})
}

func (a *App) kickSelected() {
	d := a.groupInfo.Group()
	m, ok := a.groupInfo.SelectedMember()
	if d == nil || !ok {
		return
	}
	a.kick(d.GroupID, m.UserID, m.Username)
}

func (a *App) kick(groupID, userID int64, name string) {
	a.confirmThen(fmt.Sprintf("Remove %s from the group?", name), func() {
		a.do(func(ctx context.Context) {
			if err := a.ctl.RemoveMember(ctx, groupID, userID); err != nil {
				return
			}
			d, err := a.ctl.GroupInfo(ctx, groupID)
			if err != nil {
				return
			}
			a.app.QueueUpdateDraw(func() { a.groupInfo.Update(d) })
		})
	})
}

func (a *App) exitShownGroup() {
	if d := a.groupInfo.Group(); d != nil {
		a.exitGroup(d.GroupID, d.CreatedBy == a.ctl.Self().UserID)
	}
}

func (a *App) exitGroup(groupID int64, creator bool) {
	question := "Leave this group?"
	if creator {
		question = "Delete this group for all members?"
	}
	a.confirmThen(question, func() {
		a.do(func(ctx context.Context) {
			if err := a.ctl.ExitGroup(ctx, groupID); err != nil {
				return
			}
			a.app.QueueUpdateDraw(func() {
				if a.pages.Current() == pageGroup {
					a.pages.Pop()
					a.focusCurrentPage()
				}
			})
		})
	})
}

// confirmThen shows a yes/no dialog and runs yes on confirmation.
func (a *App) confirmThen(question string, yes func()) {
	prev := a.app.GetFocus()
	a.confirm.SetText(question)
	a.confirm.SetFocus(1)
	a.confirm.SetDoneFunc(func(_ int, label string) {
		a.pages.Pop()
		a.app.SetFocus(prev)
		a.refreshChrome()
		if label == "Yes" {
			yes()
		}
	})
	a.push(pageConfirm, a.confirm)
}

// ask opens the prompt for free text.
func (a *App) ask(title, initial string, fn func(text string)) {
	a.returnFocus = a.app.GetFocus()
	a.prompt.Ask(title, initial, fn)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) showPrompt(mode ui.PromptMode, target string) {
	a.returnFocus = a.app.GetFocus()
	a.filterTarget = target
	a.prompt.Activate(mode)
	if mode == ui.PromptFilter {
		if target == scopeGroups {
			a.prompt.SetText(a.groupFilter)
		} else {
			a.prompt.SetText(a.contactFilter)
		}
	}
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	if a.returnFocus != nil {
		a.app.SetFocus(a.returnFocus)
	} else {
		a.focusCurrentPage()
	}
	a.refreshChrome()
}

func (a *App) applyFilter(text string) {
	if a.filterTarget == scopeGroups {
		a.groupFilter = text
		a.refreshGroups()
		return
	}
	a.contactFilter = text
	a.refreshContacts()
}

func (a *App) onPromptSubmit(mode ui.PromptMode, text string) {
	a.hidePrompt()
	if mode == ui.PromptFilter {
		a.applyFilter(text)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	cmd := ParseCommand(text)
	if err := cmd.Validate(); err != nil {
		a.notice(bus.KindNoticeError, err.Error())
		return
	}
	a.execute(cmd)
}

func (a *App) execute(cmd Command) {
	pane := a.ctl.View().Pane()
	switch cmd.Name {
	case "quit":
		a.app.Stop()
	case "help":
		a.showHelp()
	case "retry":
		a.retry()
	case "reload":
		a.do(func(ctx context.Context) { _ = a.ctl.Reload(ctx) })
	case "search":
		a.showSearch(cmd.Args)
	case "contact":
		if cs := a.ctl.Roster().FilterContacts(cmd.Args); len(cs) > 0 {
			a.openContact(cs[0].UserID)
			return
		}
		a.notice(bus.KindNoticeError, "No contact matches "+cmd.Args)
	case "group":
		if gs := a.ctl.Roster().FilterGroups(cmd.Args); len(gs) > 0 {
			a.openGroup(gs[0].GroupID)
			return
		}
		a.notice(bus.KindNoticeError, "No group matches "+cmd.Args)
	case "newgroup":
		a.showNewGroup(cmd.Args)
	case "info":
		if !a.requireGroup(pane) {
			return
		}
		a.showGroupInfo(pane.ID)
	case "leave":
		if !a.requireGroup(pane) {
			return
		}
		g, _ := a.ctl.Roster().Group(pane.ID)
		a.exitGroup(pane.ID, g.CreatedBy == a.ctl.Self().UserID)
	case "kick":
		if !a.requireGroup(pane) {
			return
		}
		id, _ := cmd.ID()
		a.kick(pane.ID, id, fmt.Sprintf("user %d", id))
	case "attach":
		if _, err := a.ctl.Attach(cmd.Args); err == nil {
			a.app.SetFocus(a.thread.Composer())
		}
	case "detach":
		a.ctl.Detach()
	case "edit":
		if cmd.Args == "" {
			a.editSelected()
			return
		}
		if id, ok := a.selectedMessage(); ok {
			a.do(func(ctx context.Context) { _ = a.ctl.EditMessage(ctx, id, cmd.Args) })
		}
	case "delete":
		a.deleteSelected()
	case "download":
		a.downloadSelected()
	case "view":
		a.viewSelected()
	default:
		a.logger.Warn("command without handler", zap.String("command", cmd.Name))
	}
}

var errNoGroup = errors.New("open a group first")

func (a *App) requireGroup(p conversation.Pane) bool {
	if p.Kind != conversation.GroupActive {
		a.notice(bus.KindNoticeError, errNoGroup.Error())
		return false
	}
	return true
}
