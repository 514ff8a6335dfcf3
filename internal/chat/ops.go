package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/conversation"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/media"
)

// MinSearchLen is the shortest accepted user search query.
const MinSearchLen = 2

var (
	ErrQueryTooShort = errors.New("type at least 2 characters to search")
	ErrGroupName     = errors.New("group name is required")
	ErrNoMembers     = errors.New("select at least one member")
	ErrNoSelection   = errors.New("no conversation selected")
	ErrNotMine       = errors.New("only your own messages can be changed")
	ErrEmptyEdit     = errors.New("message content required")
	ErrNotAdmin      = errors.New("only admins can remove members")
	ErrIsCreator     = errors.New("cannot remove group creator")
	ErrCreatorLeave  = errors.New("creator cannot leave, delete the group instead")
	ErrNotCreator    = errors.New("only the creator can delete the group")
	ErrUnknownMsg    = errors.New("message not found")
	ErrNoAttachment  = errors.New("message has no attachment")
)

// OpenContact switches the pane to the direct conversation with userID and
// marks it read. The returned ticket is passed to FetchHistory.
func (c *Controller) OpenContact(userID int64) (conversation.Ticket, error) {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()
	c.typing.Stop()
	t, err := c.view.SelectContact(userID)
	if err != nil {
		return t, err
	}
	if err := c.socket.Emit(event.MarkRead{UserID: c.self.UserID, ContactID: userID}); err != nil {
		c.logger.Debug("mark_read not sent", zap.Error(err))
	}
	return t, nil
}

// OpenGroup switches the pane to group groupID and clears its unread
// counter. The returned ticket is passed to FetchHistory.
func (c *Controller) OpenGroup(groupID int64) (conversation.Ticket, error) {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()
	c.typing.Stop()
	t, err := c.view.SelectGroup(groupID)
	if err != nil {
		return t, err
	}
	c.roster.ClearUnread(groupID)
	return t, nil
}

// ReopenPane re-issues a ticket for the open pane so its history can be
// fetched again.
func (c *Controller) ReopenPane() (conversation.Ticket, error) {
	p := c.view.Pane()
	switch p.Kind {
	case conversation.ContactActive:
		return c.OpenContact(p.ID)
	case conversation.GroupActive:
		return c.OpenGroup(p.ID)
	}
	return conversation.Ticket{}, c.fail("Cannot retry", ErrNoSelection)
}

// SelectContact opens the direct conversation with userID and fetches its
// history.
func (c *Controller) SelectContact(ctx context.Context, userID int64) error {
	t, err := c.OpenContact(userID)
	if err != nil {
		return err
	}
	return c.FetchHistory(ctx, t)
}

// SelectGroup opens group groupID and fetches its history.
func (c *Controller) SelectGroup(ctx context.Context, groupID int64) error {
	t, err := c.OpenGroup(groupID)
	if err != nil {
		return err
	}
	return c.FetchHistory(ctx, t)
}

// RetryHistory refetches the open pane's history.
func (c *Controller) RetryHistory(ctx context.Context) error {
	t, err := c.ReopenPane()
	if err != nil {
		return err
	}
	return c.FetchHistory(ctx, t)
}

// FetchHistory loads the history for ticket t. A response for a pane that
// is no longer current is dropped.
func (c *Controller) FetchHistory(ctx context.Context, t conversation.Ticket) error {
	var (
		msgs []domain.Message
		err  error
	)
	if t.Pane.Kind == conversation.GroupActive {
		msgs, err = c.api.GroupMessages(ctx, t.Pane.ID)
		for i := range msgs {
			msgs[i].IsMine = msgs[i].SenderID == c.self.UserID
		}
	} else {
		msgs, err = c.api.History(ctx, t.Pane.ID)
	}
	if !c.view.ApplyHistory(t, msgs, err) {
		c.logger.Debug("discarding stale history", zap.Uint64("gen", t.Gen))
		return nil
	}
	if err != nil {
		return c.fail("Failed to load messages", err)
	}
	return nil
}

func (c *Controller) target() (composer.Target, bool) {
	p := c.view.Pane()
	switch p.Kind {
	case conversation.ContactActive:
		return composer.Target{ID: p.ID}, true
	case conversation.GroupActive:
		return composer.Target{Group: true, ID: p.ID}, true
	}
	return composer.Target{}, false
}

// Keystroke reports composer input for the typing indicator.
func (c *Controller) Keystroke() {
	if to, ok := c.target(); ok {
		c.typing.Keystroke(to)
	}
}

// Attach selects a file for the next send.
func (c *Controller) Attach(path string) (*media.Info, error) {
	info, err := c.composer.Attach(path)
	if err != nil {
		return nil, c.fail("Cannot attach file", err)
	}
	return info, nil
}

// Detach drops the pending attachment.
func (c *Controller) Detach() { c.composer.Detach() }

// Send sends text and the pending attachment to the open pane. It reports
// whether anything was sent; on error the caller keeps the typed text.
func (c *Controller) Send(ctx context.Context, text string) (bool, error) {
	to, ok := c.target()
	if !ok {
		if strings.TrimSpace(text) == "" && c.composer.Pending() == nil {
			return false, nil
		}
		return false, c.fail("Cannot send", ErrNoSelection)
	}
	sent, err := c.composer.Send(ctx, to, text)
	if err != nil {
		return false, c.fail("Failed to send message", err)
	}
	if sent {
		c.typing.Stop()
	}
	return sent, nil
}

// ownMessage checks that msgID is a live message of the user in the open
// pane and returns the pane's target, so a later broadcast goes to the
// conversation the message belongs to.
func (c *Controller) ownMessage(msgID int64) (composer.Target, error) {
	to, _ := c.target()
	m, ok := c.view.Message(msgID)
	if !ok {
		return to, ErrUnknownMsg
	}
	if !m.IsMine || m.Deleted {
		return to, ErrNotMine
	}
	return to, nil
}

// DeleteMessage deletes one of the user's messages in the open pane: the
// HTTP call first, then the real-time broadcast.
func (c *Controller) DeleteMessage(ctx context.Context, msgID int64) error {
	to, err := c.ownMessage(msgID)
	if err != nil {
		return c.fail("Cannot delete message", err)
	}
	if err := c.api.DeleteMessage(ctx, msgID); err != nil {
		return c.fail("Failed to delete message", err)
	}
	out := event.DeleteMessage{SenderID: c.self.UserID, MsgID: msgID}
	if to.Group {
		out.GroupID = to.ID
	} else {
		out.ReceiverID = to.ID
	}
	c.view.Delete(msgID)
	if err := c.socket.Emit(out); err != nil {
		c.logger.Warn("delete broadcast not sent", zap.Error(err))
	}
	return nil
}

// EditMessage replaces the content of one of the user's messages.
func (c *Controller) EditMessage(ctx context.Context, msgID int64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return c.fail("Cannot edit message", ErrEmptyEdit)
	}
	to, err := c.ownMessage(msgID)
	if err != nil {
		return c.fail("Cannot edit message", err)
	}
	if err := c.api.EditMessage(ctx, msgID, content); err != nil {
		return c.fail("Failed to edit message", err)
	}
	out := event.EditMessage{SenderID: c.self.UserID, MsgID: msgID, Content: content}
	if to.Group {
		out.GroupID = to.ID
	} else {
		out.ReceiverID = to.ID
	}
	c.view.Edit(msgID, content)
	if err := c.socket.Emit(out); err != nil {
		c.logger.Warn("edit broadcast not sent", zap.Error(err))
	}
	return nil
}

// SearchUsers looks users up for the add-contact dialog.
func (c *Controller) SearchUsers(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLen {
		return nil, ErrQueryTooShort
	}
	res, err := c.api.SearchUsers(ctx, query)
	if err != nil {
		return nil, c.fail("Failed to search users", err)
	}
	return res, nil
}

// AddContact adds userID to the contacts and reloads the list.
func (c *Controller) AddContact(ctx context.Context, userID int64) error {
	if err := c.api.AddContact(ctx, userID); err != nil {
		return c.fail("Failed to add contact", err)
	}
	c.info("Contact added successfully")
	return c.LoadContacts(ctx)
}
