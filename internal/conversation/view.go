// Package conversation holds the active pane: which contact or group is open,
// its message list, and its typing indicator.
package conversation

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
)

// Kind is the state of the active pane.
type Kind int

const (
	Empty Kind = iota
	ContactActive
	GroupActive
)

func (k Kind) String() string {
	switch k {
	case ContactActive:
		return "contact"
	case GroupActive:
		return "group"
	default:
		return "empty"
	}
}

// ErrInvalidTransition is returned for pane changes the state machine forbids.
var ErrInvalidTransition = errors.New("invalid pane transition")

// Selecting a contact or group is allowed from any state; returning to Empty
// only happens when the open group goes away.
var transitions = map[Kind][]Kind{
	Empty:         {ContactActive, GroupActive},
	ContactActive: {ContactActive, GroupActive},
	GroupActive:   {ContactActive, GroupActive, Empty},
}

// Pane identifies what is open.
type Pane struct {
	Kind Kind
	ID   int64
}

// IsContact reports whether the pane shows the direct conversation with id.
func (p Pane) IsContact(id int64) bool { return p.Kind == ContactActive && p.ID == id }

// IsGroup reports whether the pane shows group id.
func (p Pane) IsGroup(id int64) bool { return p.Kind == GroupActive && p.ID == id }

// Ticket ties a history request to the selection that issued it.
type Ticket struct {
	Gen  uint64
	Pane Pane
}

// View is the active pane state. All methods are safe for concurrent use.
type View struct {
	bus *bus.Bus

	mu       sync.RWMutex
	pane     Pane
	gen      uint64
	messages []domain.Message
	index    map[int64]int
	loading  bool
	loadErr  error
	typing   string
}

// New returns an empty view.
func New(b *bus.Bus) *View {
	return &View{bus: b, index: map[int64]int{}}
}

func (v *View) publish(kind string, payload any) {
	if v.bus != nil {
		v.bus.Emit(kind, payload)
	}
}

// SelectContact opens the direct conversation with userID.
func (v *View) SelectContact(userID int64) (Ticket, error) {
	return v.open(Pane{Kind: ContactActive, ID: userID})
}

// SelectGroup opens group groupID.
func (v *View) SelectGroup(groupID int64) (Ticket, error) {
	return v.open(Pane{Kind: GroupActive, ID: groupID})
}

func (v *View) open(to Pane) (Ticket, error) {
	if to.ID <= 0 {
		return Ticket{}, fmt.Errorf("%w: %s id %d", ErrInvalidTransition, to.Kind, to.ID)
	}
	v.mu.Lock()
	if !slices.Contains(transitions[v.pane.Kind], to.Kind) {
		from := v.pane.Kind
		v.mu.Unlock()
		return Ticket{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to.Kind)
	}
	t := v.resetLocked(to)
	v.loading = true
	v.mu.Unlock()

	v.publish(bus.KindPaneChanged, to)
	v.publish(bus.KindMessagesChanged, nil)
	return t, nil
}

// resetLocked tears down the pane content and bumps the generation.
func (v *View) resetLocked(to Pane) Ticket {
	v.pane = to
	v.gen++
	v.messages = nil
	v.index = map[int64]int{}
	v.loading = false
	v.loadErr = nil
	v.typing = ""
	return Ticket{Gen: v.gen, Pane: to}
}

// Clear returns to Empty. It is only valid while groupID is the open group.
func (v *View) Clear(groupID int64) error {
	v.mu.Lock()
	if !v.pane.IsGroup(groupID) {
		from := v.pane
		v.mu.Unlock()
		return fmt.Errorf("%w: clear group %d while %s %d is open", ErrInvalidTransition, groupID, from.Kind, from.ID)
	}
	v.resetLocked(Pane{})
	v.mu.Unlock()

	v.publish(bus.KindPaneChanged, Pane{})
	v.publish(bus.KindMessagesChanged, nil)
	return nil
}

// Current reports whether t still matches the open selection.
func (v *View) Current(t Ticket) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return t.Gen == v.gen
}

// ApplyHistory installs a history response. Responses for a selection that
// is no longer current are discarded and false is returned.
func (v *View) ApplyHistory(t Ticket, msgs []domain.Message, err error) bool {
	v.mu.Lock()
	if t.Gen != v.gen {
		v.mu.Unlock()
		return false
	}
	v.loading = false
	v.loadErr = err
	if err == nil {
		// Live messages that arrived while loading are kept after the history.
		live := v.messages
		v.messages = make([]domain.Message, 0, len(msgs)+len(live))
		v.index = map[int64]int{}
		for _, m := range msgs {
			v.appendLocked(m)
		}
		for _, m := range live {
			v.appendLocked(m)
		}
	}
	v.mu.Unlock()

	v.publish(bus.KindMessagesChanged, nil)
	return true
}

// Pane returns the open pane.
func (v *View) Pane() Pane {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pane
}

// Messages returns a copy of the message list, oldest first.
func (v *View) Messages() []domain.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.messages)
}

// Message looks a message of the open pane up by id.
func (v *View) Message(msgID int64) (domain.Message, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i, ok := v.index[msgID]
	if !ok {
		return domain.Message{}, false
	}
	return v.messages[i], true
}

// Loading reports whether the history fetch for the open pane is pending.
func (v *View) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// LoadErr returns the error of the last history fetch.
func (v *View) LoadErr() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}

// Append adds a live message to the open pane. A message whose id is already
// listed is ignored.
func (v *View) Append(m domain.Message) bool {
	v.mu.Lock()
	ok := v.pane.Kind != Empty && v.appendLocked(m)
	v.mu.Unlock()
	if ok {
		v.publish(bus.KindMessagesChanged, nil)
	}
	return ok
}

func (v *View) appendLocked(m domain.Message) bool {
	if _, dup := v.index[m.MsgID]; dup && m.MsgID != 0 {
		return false
	}
	v.index[m.MsgID] = len(v.messages)
	v.messages = append(v.messages, m)
	return true
}

func (v *View) mutate(msgID int64, fn func(*domain.Message) bool) bool {
	v.mu.Lock()
	i, ok := v.index[msgID]
	changed := ok && fn(&v.messages[i])
	v.mu.Unlock()
	if changed {
		v.publish(bus.KindMessagesChanged, nil)
	}
	return changed
}

// MarkDelivered upgrades a sent message to delivered. Read messages stay read.
func (v *View) MarkDelivered(msgID int64) bool {
	return v.mutate(msgID, func(m *domain.Message) bool {
		if m.Status == domain.StatusDelivered || m.Status == domain.StatusRead {
			return false
		}
		m.Status = domain.StatusDelivered
		return true
	})
}

// MarkAllMineRead flags every message sent by the current user as read.
func (v *View) MarkAllMineRead() bool {
	v.mu.Lock()
	changed := false
	for i := range v.messages {
		if v.messages[i].IsMine && v.messages[i].Status != domain.StatusRead {
			v.messages[i].Status = domain.StatusRead
			changed = true
		}
	}
	v.mu.Unlock()
	if changed {
		v.publish(bus.KindMessagesChanged, nil)
	}
	return changed
}

// Delete flags a message deleted. Deletion is final.
func (v *View) Delete(msgID int64) bool {
	return v.mutate(msgID, func(m *domain.Message) bool {
		if m.Deleted {
			return false
		}
		m.Deleted = true
		return true
	})
}

// Edit replaces a message's content and flags it edited. Deleted messages
// are left alone.
func (v *View) Edit(msgID int64, content string) bool {
	return v.mutate(msgID, func(m *domain.Message) bool {
		if m.Deleted || (m.Edited && m.Content == content) {
			return false
		}
		m.Content = content
		m.Edited = true
		return true
	})
}

// SetTyping sets the typing indicator text; empty hides it.
func (v *View) SetTyping(text string) {
	v.mu.Lock()
	changed := v.typing != text
	v.typing = text
	v.mu.Unlock()
	if changed {
		v.publish(bus.KindTypingChanged, text)
	}
}

// Typing returns the typing indicator text.
func (v *View) Typing() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.typing
}
