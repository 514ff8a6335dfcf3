package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
)

func msg(id int64, mine bool) domain.Message {
	return domain.Message{MsgID: id, SenderID: 2, Content: "m", IsMine: mine, Status: domain.StatusSent}
}

func TestPaneTransitions(t *testing.T) {
	v := New(nil)
	assert.Equal(t, Empty, v.Pane().Kind)

	// Empty cannot be cleared.
	assert.ErrorIs(t, v.Clear(1), ErrInvalidTransition)

	_, err := v.SelectContact(2)
	require.NoError(t, err)
	assert.True(t, v.Pane().IsContact(2))

	// Contact to contact is a self-loop.
	_, err = v.SelectContact(3)
	require.NoError(t, err)
	assert.True(t, v.Pane().IsContact(3))

	// Contact cannot go back to Empty.
	assert.ErrorIs(t, v.Clear(3), ErrInvalidTransition)

	_, err = v.SelectGroup(9)
	require.NoError(t, err)
	assert.True(t, v.Pane().IsGroup(9))

	// Only the open group can be cleared.
	assert.ErrorIs(t, v.Clear(8), ErrInvalidTransition)
	require.NoError(t, v.Clear(9))
	assert.Equal(t, Pane{}, v.Pane())

	_, err = v.SelectGroup(0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelectionTearsDown(t *testing.T) {
	v := New(nil)
	tk, _ := v.SelectContact(2)
	require.True(t, v.ApplyHistory(tk, []domain.Message{msg(1, false)}, nil))
	v.SetTyping("typing...")

	_, _ = v.SelectGroup(5)
	assert.Empty(t, v.Messages())
	assert.Empty(t, v.Typing())
	assert.True(t, v.Loading())
}

func TestStaleHistoryDiscarded(t *testing.T) {
	v := New(nil)
	first, _ := v.SelectContact(2)
	second, _ := v.SelectContact(3)

	assert.False(t, v.Current(first))
	assert.True(t, v.Current(second))

	require.True(t, v.ApplyHistory(second, []domain.Message{msg(20, false)}, nil))
	assert.False(t, v.ApplyHistory(first, []domain.Message{msg(10, false)}, nil))

	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(20), msgs[0].MsgID)
	assert.False(t, v.Loading())
}

func TestHistoryError(t *testing.T) {
	v := New(nil)
	tk, _ := v.SelectGroup(4)
	require.True(t, v.ApplyHistory(tk, nil, errors.New("down")))
	assert.Error(t, v.LoadErr())
	assert.False(t, v.Loading())
}

func TestAppendDeduplicates(t *testing.T) {
	v := New(nil)
	assert.False(t, v.Append(msg(1, false)), "nothing is open")

	tk, _ := v.SelectContact(2)
	assert.True(t, v.Append(msg(5, false)))
	assert.False(t, v.Append(msg(5, false)))

	// History arriving after a live message keeps both, without duplicates.
	require.True(t, v.ApplyHistory(tk, []domain.Message{msg(4, false), msg(5, false)}, nil))
	ids := []int64{}
	for _, m := range v.Messages() {
		ids = append(ids, m.MsgID)
	}
	assert.Equal(t, []int64{4, 5}, ids)
}

func TestMutations(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.KindMessagesChanged, 16)
	defer unsub()

	v := New(b)
	tk, _ := v.SelectContact(2)
	v.ApplyHistory(tk, []domain.Message{msg(1, true), msg(2, false), msg(3, true)}, nil)
	for len(ch) > 0 {
		<-ch
	}

	assert.True(t, v.MarkDelivered(1))
	assert.False(t, v.MarkDelivered(1))
	assert.False(t, v.MarkDelivered(99))
	assert.Len(t, ch, 1)

	assert.True(t, v.MarkAllMineRead())
	m, _ := v.Message(1)
	assert.Equal(t, domain.StatusRead, m.Status)
	m, _ = v.Message(3)
	assert.Equal(t, domain.StatusRead, m.Status)
	m, _ = v.Message(2)
	assert.Equal(t, domain.StatusSent, m.Status)

	// Read never regresses to delivered.
	assert.False(t, v.MarkDelivered(3))

	assert.True(t, v.Edit(2, "new"))
	assert.False(t, v.Edit(2, "new"), "same edit twice is a no-op")
	m, _ = v.Message(2)
	assert.Equal(t, "new", m.Content)
	assert.True(t, m.Edited)

	assert.True(t, v.Delete(2))
	assert.False(t, v.Delete(2))
	assert.False(t, v.Edit(2, "after delete"))
	m, _ = v.Message(2)
	assert.True(t, m.Deleted)
	assert.Equal(t, "new", m.Content)
}

func TestTypingIndicator(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.KindTypingChanged, 4)
	defer unsub()

	v := New(b)
	v.SetTyping("bob is typing...")
	v.SetTyping("bob is typing...")
	v.SetTyping("")
	assert.Len(t, ch, 2)
	assert.Equal(t, "bob is typing...", (<-ch).Payload)
}
