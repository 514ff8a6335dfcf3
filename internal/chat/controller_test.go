package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/chatterm/internal/api"
	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/conversation"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/roster"
)

type fakeAPI struct {
	mu       sync.Mutex
	contacts []domain.Contact
	groups   []domain.Group
	details  map[int64]*domain.GroupDetails
	history  map[int64][]domain.Message
	groupMsg map[int64][]domain.Message
	search   []domain.SearchResult
	files    map[string]string
	err      error
	calls    []string
	// during runs inside each call before it returns.
	during func(call string)
}

func (f *fakeAPI) record(call string) error {
	if f.during != nil {
		f.during(call)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListContacts(context.Context) ([]domain.Contact, error) {
	if err := f.record("contacts"); err != nil {
		return nil, err
	}
	return f.contacts, nil
}

func (f *fakeAPI) ListGroups(context.Context) ([]domain.Group, error) {
	if err := f.record("groups"); err != nil {
		return nil, err
	}
	return f.groups, nil
}

func (f *fakeAPI) GroupDetails(_ context.Context, id int64) (*domain.GroupDetails, error) {
	if err := f.record("details"); err != nil {
		return nil, err
	}
	d, ok := f.details[id]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "Group not found"}
	}
	return d, nil
}

func (f *fakeAPI) SearchUsers(context.Context, string) ([]domain.SearchResult, error) {
	if err := f.record("search"); err != nil {
		return nil, err
	}
	return f.search, nil
}

func (f *fakeAPI) AddContact(context.Context, int64) error { return f.record("add") }

func (f *fakeAPI) CreateGroup(_ context.Context, name string, members []int64, privacy string) (int64, error) {
	if err := f.record("create"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.groups = append(f.groups, domain.Group{GroupID: 99, Name: name, CreatedBy: me.UserID, Role: domain.RoleAdmin})
	f.mu.Unlock()
	return 99, nil
}

func (f *fakeAPI) LeaveGroup(context.Context, int64) error  { return f.record("leave") }
func (f *fakeAPI) DeleteGroup(context.Context, int64) error { return f.record("delete_group") }
func (f *fakeAPI) RemoveMember(context.Context, int64, int64) error {
	return f.record("remove")
}

func (f *fakeAPI) GroupMessages(_ context.Context, id int64) ([]domain.Message, error) {
	if err := f.record("group_messages"); err != nil {
		return nil, err
	}
	return append([]domain.Message(nil), f.groupMsg[id]...), nil
}

func (f *fakeAPI) History(_ context.Context, id int64) ([]domain.Message, error) {
	if err := f.record("history"); err != nil {
		return nil, err
	}
	return append([]domain.Message(nil), f.history[id]...), nil
}

func (f *fakeAPI) DeleteMessage(context.Context, int64) error { return f.record("delete_message") }
func (f *fakeAPI) EditMessage(context.Context, int64, string) error {
	return f.record("edit_message")
}

func (f *fakeAPI) Download(_ context.Context, stored, _ string, w io.Writer) (int64, error) {
	if err := f.record("download"); err != nil {
		return 0, err
	}
	n, err := io.Copy(w, strings.NewReader(f.files[stored]))
	return n, err
}

func (f *fakeAPI) DownloadURL(stored, name string) string {
	if name == "" {
		return "http://chat.test/download/" + stored
	}
	return "http://chat.test/download/" + stored + "/" + name
}

func (f *fakeAPI) UploadFile(_ context.Context, path string) (*domain.FileDescriptor, error) {
	if err := f.record("upload"); err != nil {
		return nil, err
	}
	return &domain.FileDescriptor{Filename: "s_" + filepath.Base(path), OriginalName: filepath.Base(path), Type: domain.CategoryDocuments, Size: 3}, nil
}

type fakeSocket struct {
	mu      sync.Mutex
	offline bool
	events  []event.Outbound

	// stalled, when set, receives each typing=false write, which then
	// blocks until release is closed.
	stalled chan event.Typing
	release chan struct{}
}

func (s *fakeSocket) Emit(o event.Outbound) error {
	if ty, ok := o.(event.Typing); ok && !ty.IsTyping && s.stalled != nil {
		s.stalled <- ty
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return errors.New("offline")
	}
	s.events = append(s.events, o)
	return nil
}

func (s *fakeSocket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.offline
}

func (s *fakeSocket) sent() []event.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Outbound(nil), s.events...)
}

var me = domain.Identity{UserID: 1, Username: "me"}

type harness struct {
	c      *Controller
	api    *fakeAPI
	socket *fakeSocket
	bus    *bus.Bus
	errs   <-chan bus.Event
	infos  <-chan bus.Event
}

func newHarness(t *testing.T, f *fakeAPI) *harness {
	t.Helper()
	if f == nil {
		f = &fakeAPI{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b := bus.New()
	errs, unsubErr := b.Subscribe(bus.KindNoticeError, 64)
	infos, unsubInfo := b.Subscribe(bus.KindNoticeInfo, 64)
	t.Cleanup(unsubErr)
	t.Cleanup(unsubInfo)

	s := &fakeSocket{}
	r := roster.New(ctx, f, b, nil)
	v := conversation.New(b)
	comp := composer.New(me, f, s, b, nil)
	typing := composer.NewTyping(me, s, time.Hour, nil)
	c := New(Options{Self: me, DownloadDir: t.TempDir()}, f, s, r, v, comp, typing, b, nil)
	return &harness{c: c, api: f, socket: s, bus: b, errs: errs, infos: infos}
}

func lastNotice(ch <-chan bus.Event) string {
	var s string
	for {
		select {
		case evt := <-ch:
			s, _ = evt.Payload.(string)
		default:
			return s
		}
	}
}

func TestReloadLoadsBothListsAndJoinsGroups(t *testing.T) {
	h := newHarness(t, &fakeAPI{
		contacts: []domain.Contact{{UserID: 2, Username: "ana"}},
		groups:   []domain.Group{{GroupID: 10, Name: "team"}, {GroupID: 11, Name: "ops"}},
	})

	require.NoError(t, h.c.Reload(context.Background()))
	assert.Len(t, h.c.Roster().Contacts(), 1)
	assert.Len(t, h.c.Roster().Groups(), 2)
	assert.Contains(t, h.socket.sent(), event.JoinGroup{UserID: 1, GroupID: 10})
	assert.Contains(t, h.socket.sent(), event.JoinGroup{UserID: 1, GroupID: 11})
}

func TestReloadFailureBecomesNotice(t *testing.T) {
	h := newHarness(t, &fakeAPI{err: api.ErrUnauthenticated})

	err := h.c.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthenticated)
	assert.Contains(t, lastNotice(h.errs), "session expired")
}

func TestSelectContactLoadsHistoryAndMarksRead(t *testing.T) {
	h := newHarness(t, &fakeAPI{history: map[int64][]domain.Message{
		2: {{MsgID: 1, SenderID: 2, ReceiverID: 1, Content: "hi"}},
	}})

	require.NoError(t, h.c.SelectContact(context.Background(), 2))
	assert.Equal(t, conversation.Pane{Kind: conversation.ContactActive, ID: 2}, h.c.View().Pane())
	assert.Len(t, h.c.View().Messages(), 1)
	assert.False(t, h.c.View().Loading())
	assert.Contains(t, h.socket.sent(), event.MarkRead{UserID: 1, ContactID: 2})
}

func TestSelectGroupClearsUnreadAndFlagsOwnMessages(t *testing.T) {
	h := newHarness(t, &fakeAPI{
		groups: []domain.Group{{GroupID: 10, Name: "team", UnreadCount: 3}},
		groupMsg: map[int64][]domain.Message{10: {
			{MsgID: 1, SenderID: 1, GroupID: 10, Content: "mine"},
			{MsgID: 2, SenderID: 5, GroupID: 10, Content: "theirs"},
		}},
	})
	require.NoError(t, h.c.LoadGroups(context.Background()))

	require.NoError(t, h.c.SelectGroup(context.Background(), 10))
	g, _ := h.c.Roster().Group(10)
	assert.Zero(t, g.UnreadCount)
	msgs := h.c.View().Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsMine)
	assert.False(t, msgs[1].IsMine)
}

func TestHistoryFailureKeepsPaneAndRetries(t *testing.T) {
	f := &fakeAPI{err: errors.New("boom")}
	h := newHarness(t, f)

	require.Error(t, h.c.SelectContact(context.Background(), 2))
	assert.Error(t, h.c.View().LoadErr())
	assert.Contains(t, lastNotice(h.errs), "Failed to load messages")

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	require.NoError(t, h.c.RetryHistory(context.Background()))
	assert.NoError(t, h.c.View().LoadErr())
}

func TestSelectionsApplyInOrder(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectContact(context.Background(), 5))
	h.c.typing.Keystroke(composer.Target{ID: 5})

	h.socket.stalled = make(chan event.Typing, 1)
	h.socket.release = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := h.c.OpenContact(2)
		assert.NoError(t, err)
	}()
	// the switch away from 5 is stuck writing typing=false
	assert.Equal(t, event.Typing{SenderID: 1, ReceiverID: 5}, <-h.socket.stalled)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := h.c.OpenContact(3)
		assert.NoError(t, err)
	}()
	assert.Never(t, func() bool {
		return h.c.View().Pane().ID == 3
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(h.socket.release)
	wg.Wait()
	assert.Equal(t, conversation.Pane{Kind: conversation.ContactActive, ID: 3}, h.c.View().Pane())
}

func TestFetchHistoryForSupersededTicket(t *testing.T) {
	h := newHarness(t, &fakeAPI{history: map[int64][]domain.Message{
		2: {{MsgID: 1, SenderID: 2, ReceiverID: 1, Content: "old"}},
	}})
	first, err := h.c.OpenContact(2)
	require.NoError(t, err)
	second, err := h.c.OpenContact(3)
	require.NoError(t, err)

	require.NoError(t, h.c.FetchHistory(context.Background(), first))
	assert.True(t, h.c.View().Loading())
	require.NoError(t, h.c.FetchHistory(context.Background(), second))
	assert.Empty(t, h.c.View().Messages())
	assert.False(t, h.c.View().Loading())
}

func TestRetryWithoutSelection(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.c.RetryHistory(context.Background()), ErrNoSelection)
}

func TestIncomingMessageForActiveContact(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectContact(context.Background(), 2))
	h.c.View().SetTyping("ana is typing...")

	h.c.handleEvent(bus.Event{Payload: event.NewMessage{Message: domain.Message{MsgID: 7, SenderID: 2, ReceiverID: 1, Content: "yo"}}})

	_, ok := h.c.View().Message(7)
	assert.True(t, ok)
	assert.Empty(t, h.c.View().Typing())
	sent := h.socket.sent()
	assert.Equal(t, event.MarkRead{UserID: 1, ContactID: 2}, sent[len(sent)-1])
}

func TestIncomingMessageElsewhereNotifies(t *testing.T) {
	h := newHarness(t, &fakeAPI{contacts: []domain.Contact{{UserID: 3, Username: "bob"}}})
	require.NoError(t, h.c.LoadContacts(context.Background()))
	require.NoError(t, h.c.SelectContact(context.Background(), 2))

	h.c.handleEvent(bus.Event{Payload: event.NewMessage{Message: domain.Message{MsgID: 7, SenderID: 3, ReceiverID: 1, Content: "yo"}}})

	_, ok := h.c.View().Message(7)
	assert.False(t, ok)
	assert.Equal(t, "New message from bob", lastNotice(h.infos))
}

func TestGroupMessageForInactiveGroupCountsUnread(t *testing.T) {
	h := newHarness(t, &fakeAPI{groups: []domain.Group{{GroupID: 10, Name: "team"}}})
	require.NoError(t, h.c.LoadGroups(context.Background()))

	h.c.handleEvent(bus.Event{Payload: event.NewGroupMessage{Message: domain.Message{MsgID: 1, SenderID: 5, GroupID: 10}}})
	h.c.handleEvent(bus.Event{Payload: event.NewGroupMessage{Message: domain.Message{MsgID: 2, SenderID: 1, GroupID: 10}}})

	g, _ := h.c.Roster().Group(10)
	assert.Equal(t, 1, g.UnreadCount)
	assert.Equal(t, "New message in team", lastNotice(h.infos))
}

func TestGroupMessageEchoIsMine(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))

	h.c.handleEvent(bus.Event{Payload: event.NewGroupMessage{Message: domain.Message{MsgID: 4, SenderID: 1, GroupID: 10}}})

	m, ok := h.c.View().Message(4)
	require.True(t, ok)
	assert.True(t, m.IsMine)
}

func TestReceiptsAndTyping(t *testing.T) {
	h := newHarness(t, &fakeAPI{contacts: []domain.Contact{{UserID: 2, Username: "ana"}}})
	require.NoError(t, h.c.LoadContacts(context.Background()))
	require.NoError(t, h.c.SelectContact(context.Background(), 2))

	h.c.handleEvent(bus.Event{Payload: event.MessageSent{Message: domain.Message{MsgID: 9, SenderID: 1, ReceiverID: 2, IsMine: true, Status: domain.StatusSent}}})
	h.c.handleEvent(bus.Event{Payload: event.MessageDelivered{MsgID: 9}})
	m, _ := h.c.View().Message(9)
	assert.Equal(t, domain.StatusDelivered, m.Status)

	h.c.handleEvent(bus.Event{Payload: event.MessagesRead{ReaderID: 2}})
	m, _ = h.c.View().Message(9)
	assert.Equal(t, domain.StatusRead, m.Status)

	h.c.handleEvent(bus.Event{Payload: event.UserTyping{UserID: 2, IsTyping: true}})
	assert.Equal(t, "ana is typing...", h.c.View().Typing())
	h.c.handleEvent(bus.Event{Payload: event.UserTyping{UserID: 2, IsTyping: false}})
	assert.Empty(t, h.c.View().Typing())
}

func TestGroupTypingIgnoresSelf(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))

	h.c.handleEvent(bus.Event{Payload: event.GroupUserTyping{GroupID: 10, UserID: 1, Username: "me", IsTyping: true}})
	assert.Empty(t, h.c.View().Typing())
	h.c.handleEvent(bus.Event{Payload: event.GroupUserTyping{GroupID: 10, UserID: 4, Username: "zoe", IsTyping: true}})
	assert.Equal(t, "zoe is typing...", h.c.View().Typing())
}

func TestPresenceUpdatesRoster(t *testing.T) {
	h := newHarness(t, &fakeAPI{contacts: []domain.Contact{
		{UserID: 2, Username: "ana", Status: domain.Offline},
		{UserID: 3, Username: "bia", Status: domain.Online},
	}})
	require.NoError(t, h.c.LoadContacts(context.Background()))

	h.c.handleEvent(bus.Event{Payload: event.Presence{UserID: 2, Status: domain.Online}})
	ct, _ := h.c.Roster().Contact(2)
	assert.True(t, ct.Online())

	h.c.handleEvent(bus.Event{Payload: event.Presence{UserID: 3, Status: domain.Offline}})
	ct, _ = h.c.Roster().Contact(3)
	assert.False(t, ct.Online())
	assert.Equal(t, 1, h.api.count("contacts"), "presence is applied in place")

	// the online list only ever adds
	h.c.handleEvent(bus.Event{Payload: event.OnlineUsers{Users: nil}})
	ct, _ = h.c.Roster().Contact(2)
	assert.True(t, ct.Online())
	h.c.handleEvent(bus.Event{Payload: event.OnlineUsers{Users: []int64{3}}})
	ct, _ = h.c.Roster().Contact(3)
	assert.True(t, ct.Online())
	assert.Equal(t, 1, h.api.count("contacts"))
}

func TestSendErrorEventsBecomeNotices(t *testing.T) {
	h := newHarness(t, nil)
	h.c.handleEvent(bus.Event{Payload: event.GroupMessageError{Error: "Not a member"}})
	assert.Equal(t, "Failed to send group message: Not a member", lastNotice(h.errs))
}

func TestSendRoutesToActivePane(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))

	sent, err := h.c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, sent)
	evts := h.socket.sent()
	assert.Equal(t, event.SendGroupMessage{SenderID: 1, GroupID: 10, Content: "hello"}, evts[len(evts)-1])
}

func TestSendWithoutPane(t *testing.T) {
	h := newHarness(t, nil)

	sent, err := h.c.Send(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, sent)

	_, err = h.c.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSendOfflineKeepsAttachment(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.NoError(t, h.c.SelectContact(context.Background(), 2))
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	_, err := h.c.Attach(path)
	require.NoError(t, err)

	h.socket.mu.Lock()
	h.socket.offline = true
	h.socket.mu.Unlock()

	_, err = h.c.Send(context.Background(), "file")
	require.Error(t, err)
	assert.NotNil(t, h.c.Composer().Pending)
	assert.Contains(t, lastNotice(h.errs), "Failed to send message")
}

func TestDeleteOwnMessage(t *testing.T) {
	h := newHarness(t, &fakeAPI{history: map[int64][]domain.Message{
		2: {
			{MsgID: 1, SenderID: 1, ReceiverID: 2, IsMine: true, Content: "mine"},
			{MsgID: 2, SenderID: 2, ReceiverID: 1, Content: "theirs"},
		},
	}})
	require.NoError(t, h.c.SelectContact(context.Background(), 2))

	require.NoError(t, h.c.DeleteMessage(context.Background(), 1))
	m, _ := h.c.View().Message(1)
	assert.True(t, m.Deleted)
	assert.True(t, h.api.called("delete_message"))
	assert.Contains(t, h.socket.sent(), event.DeleteMessage{SenderID: 1, MsgID: 1, ReceiverID: 2})

	err := h.c.DeleteMessage(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotMine)

	// the server's own broadcast back to the sender is a no-op
	h.c.handleEvent(bus.Event{Payload: event.MessageDeleted{MsgID: 1}})
	m, _ = h.c.View().Message(1)
	assert.True(t, m.Deleted)
}

func TestBroadcastTargetsPaneOfTheChangedMessage(t *testing.T) {
	f := &fakeAPI{groupMsg: map[int64][]domain.Message{
		10: {
			{MsgID: 3, SenderID: 1, GroupID: 10, Content: "a"},
			{MsgID: 4, SenderID: 1, GroupID: 10, Content: "b"},
		},
	}}
	h := newHarness(t, f)
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))

	// the user moves to another pane while the HTTP call is in flight
	f.during = func(call string) {
		if call == "delete_message" {
			_, err := h.c.OpenContact(2)
			assert.NoError(t, err)
		}
	}
	require.NoError(t, h.c.DeleteMessage(context.Background(), 3))
	assert.Contains(t, h.socket.sent(), event.DeleteMessage{SenderID: 1, MsgID: 3, GroupID: 10})

	f.during = nil
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))
	f.during = func(call string) {
		if call == "edit_message" {
			_, err := h.c.OpenContact(2)
			assert.NoError(t, err)
		}
	}
	require.NoError(t, h.c.EditMessage(context.Background(), 4, "c"))
	assert.Contains(t, h.socket.sent(), event.EditMessage{SenderID: 1, MsgID: 4, Content: "c", GroupID: 10})
}

func TestDeleteFailureLeavesMessage(t *testing.T) {
	f := &fakeAPI{history: map[int64][]domain.Message{2: {{MsgID: 1, SenderID: 1, IsMine: true}}}}
	h := newHarness(t, f)
	require.NoError(t, h.c.SelectContact(context.Background(), 2))
	f.mu.Lock()
	f.err = &api.Error{Status: 403, Message: "Forbidden"}
	f.mu.Unlock()

	require.Error(t, h.c.DeleteMessage(context.Background(), 1))
	m, _ := h.c.View().Message(1)
	assert.False(t, m.Deleted)
	assert.Equal(t, "Failed to delete message: Forbidden", lastNotice(h.errs))
}

func TestEditOwnGroupMessage(t *testing.T) {
	h := newHarness(t, &fakeAPI{groupMsg: map[int64][]domain.Message{10: {{MsgID: 3, SenderID: 1, GroupID: 10, Content: "old"}}}})
	require.NoError(t, h.c.SelectGroup(context.Background(), 10))

	require.ErrorIs(t, h.c.EditMessage(context.Background(), 3, "  "), ErrEmptyEdit)
	require.NoError(t, h.c.EditMessage(context.Background(), 3, " new "))

	m, _ := h.c.View().Message(3)
	assert.Equal(t, "new", m.Content)
	assert.True(t, m.Edited)
	assert.Contains(t, h.socket.sent(), event.EditMessage{SenderID: 1, MsgID: 3, Content: "new", GroupID: 10})
}

func TestSearchUsersRequiresTwoChars(t *testing.T) {
	h := newHarness(t, &fakeAPI{search: []domain.SearchResult{{UserID: 4, Username: "zoe"}}})

	_, err := h.c.SearchUsers(context.Background(), " z ")
	assert.ErrorIs(t, err, ErrQueryTooShort)
	assert.False(t, h.api.called("search"))

	res, err := h.c.SearchUsers(context.Background(), "zo")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestAddContactReloads(t *testing.T) {
	h := newHarness(t, &fakeAPI{contacts: []domain.Contact{{UserID: 4, Username: "zoe"}}})

	require.NoError(t, h.c.AddContact(context.Background(), 4))
	assert.True(t, h.api.called("contacts"))
	assert.Len(t, h.c.Roster().Contacts(), 1)
	assert.Equal(t, "Contact added successfully", lastNotice(h.infos))
}

func TestCreateGroupValidation(t *testing.T) {
	h := newHarness(t, &fakeAPI{})

	_, err := h.c.CreateGroup(context.Background(), "  ", []int64{2})
	assert.ErrorIs(t, err, ErrGroupName)
	_, err = h.c.CreateGroup(context.Background(), "team", []int64{1})
	assert.ErrorIs(t, err, ErrNoMembers)

	id, err := h.c.CreateGroup(context.Background(), "team", []int64{2, 2, 3})
	require.NoError(t, err)
	assert.EqualValues(t, 99, id)
	_, ok := h.c.Roster().Group(99)
	assert.True(t, ok)
}

func TestExitGroupLeavesOrDeletes(t *testing.T) {
	h := newHarness(t, &fakeAPI{groups: []domain.Group{
		{GroupID: 10, Name: "mine", CreatedBy: 1},
		{GroupID: 11, Name: "theirs", CreatedBy: 5},
	}})
	require.NoError(t, h.c.LoadGroups(context.Background()))

	require.ErrorIs(t, h.c.LeaveGroup(context.Background(), 10), ErrCreatorLeave)
	require.ErrorIs(t, h.c.DeleteGroup(context.Background(), 11), ErrNotCreator)

	require.NoError(t, h.c.SelectGroup(context.Background(), 10))
	require.NoError(t, h.c.ExitGroup(context.Background(), 10))
	assert.True(t, h.api.called("delete_group"))
	assert.Equal(t, conversation.Empty, h.c.View().Pane().Kind)

	require.NoError(t, h.c.ExitGroup(context.Background(), 11))
	assert.True(t, h.api.called("leave"))
}

func TestRemoveMemberRules(t *testing.T) {
	h := newHarness(t, &fakeAPI{details: map[int64]*domain.GroupDetails{
		10: {GroupID: 10, CreatedBy: 1, UserRole: domain.RoleAdmin},
		11: {GroupID: 11, CreatedBy: 5, UserRole: domain.RoleMember},
	}})

	assert.ErrorIs(t, h.c.RemoveMember(context.Background(), 11, 6), ErrNotAdmin)
	assert.ErrorIs(t, h.c.RemoveMember(context.Background(), 10, 1), ErrIsCreator)
	require.NoError(t, h.c.RemoveMember(context.Background(), 10, 6))
	assert.True(t, h.api.called("remove"))
}

func TestDownloadNeverOverwrites(t *testing.T) {
	h := newHarness(t, &fakeAPI{
		history: map[int64][]domain.Message{2: {{MsgID: 1, SenderID: 2, AttachmentPath: "abc_report.pdf", AttachmentName: "../report.pdf"}}},
		files:   map[string]string{"abc_report.pdf": "PDF"},
	})
	require.NoError(t, h.c.SelectContact(context.Background(), 2))

	first, err := h.c.Download(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", filepath.Base(first))
	second, err := h.c.Download(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "report (1).pdf", filepath.Base(second))

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))
}

func TestAttachmentURL(t *testing.T) {
	h := newHarness(t, &fakeAPI{history: map[int64][]domain.Message{2: {
		{MsgID: 1, AttachmentPath: "x.png", AttachmentName: "x.png", AttachmentType: domain.CategoryImages},
		{MsgID: 2, AttachmentPath: "y.pdf", AttachmentName: "y.pdf", AttachmentType: domain.CategoryDocuments},
		{MsgID: 3, Content: "plain"},
		{MsgID: 4, AttachmentPath: "a1b2_cat.jpg", AttachmentName: "cat.jpg"},
		{MsgID: 5, AttachmentPath: "c3d4_notes.txt", AttachmentName: "notes.txt"},
	}}})
	require.NoError(t, h.c.SelectContact(context.Background(), 2))

	u, err := h.c.AttachmentURL(1)
	require.NoError(t, err)
	assert.Equal(t, "http://chat.test/download/x.png", u)
	u, err = h.c.AttachmentURL(2)
	require.NoError(t, err)
	assert.Equal(t, "http://chat.test/download/y.pdf/y.pdf", u)
	_, err = h.c.AttachmentURL(3)
	assert.ErrorIs(t, err, ErrNoAttachment)

	// history rows carry no attachment type
	u, err = h.c.AttachmentURL(4)
	require.NoError(t, err)
	assert.Equal(t, "http://chat.test/download/a1b2_cat.jpg", u)
	u, err = h.c.AttachmentURL(5)
	require.NoError(t, err)
	assert.Equal(t, "http://chat.test/download/c3d4_notes.txt/notes.txt", u)
}

func TestStartRoutesBusEvents(t *testing.T) {
	h := newHarness(t, &fakeAPI{groups: []domain.Group{{GroupID: 10, Name: "team"}}})
	h.c.Start(context.Background())
	defer h.c.Stop()

	assert.Eventually(t, func() bool {
		_, ok := h.c.Roster().Group(10)
		return ok
	}, time.Second, 5*time.Millisecond)

	h.bus.Emit(bus.Realtime(event.NameNewGroupMessage), event.NewGroupMessage{Message: domain.Message{MsgID: 1, SenderID: 5, GroupID: 10}})
	assert.Eventually(t, func() bool {
		g, _ := h.c.Roster().Group(10)
		return g.UnreadCount == 1
	}, time.Second, 5*time.Millisecond)

	before := len(h.socket.sent())
	h.bus.Emit(bus.KindConnected, "sid")
	assert.Eventually(t, func() bool {
		return len(h.socket.sent()) > before
	}, time.Second, 5*time.Millisecond)
}
