package chat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
)

// TypingSuffix follows the name in the typing indicator.
const TypingSuffix = " is typing..."

func (c *Controller) handleEvent(evt bus.Event) {
	switch e := evt.Payload.(type) {
	case event.Presence:
		c.roster.SetPresence(e.UserID, e.Status)

	case event.OnlineUsers:
		c.roster.ApplyOnlineUsers(e.Users)

	case event.NewMessage:
		c.onNewMessage(e.Message)

	case event.MessageSent:
		if c.view.Pane().IsContact(e.Message.ReceiverID) {
			c.view.Append(e.Message)
		}

	case event.NewGroupMessage:
		c.onGroupMessage(e.Message)

	case event.MessageDelivered:
		c.view.MarkDelivered(e.MsgID)

	case event.MessagesRead:
		if c.view.Pane().IsContact(e.ReaderID) {
			c.view.MarkAllMineRead()
		}

	case event.MessageDeleted:
		c.view.Delete(e.MsgID)

	case event.MessageEdited:
		c.view.Edit(e.MsgID, e.Content)

	case event.UserTyping:
		if c.view.Pane().IsContact(e.UserID) {
			c.view.SetTyping(typingText(c.contactName(e.UserID), e.IsTyping))
		}

	case event.GroupUserTyping:
		if e.UserID != c.self.UserID && c.view.Pane().IsGroup(e.GroupID) {
			c.view.SetTyping(typingText(e.Username, e.IsTyping))
		}

	case event.MessageError:
		c.logger.Warn("send rejected", zap.String("error", e.Error))
		c.bus.Emit(bus.KindNoticeError, "Failed to send message: "+e.Error)

	case event.GroupMessageError:
		c.logger.Warn("group send rejected", zap.String("error", e.Error))
		c.bus.Emit(bus.KindNoticeError, "Failed to send group message: "+e.Error)

	case event.JoinedGroup:
		c.logger.Debug("joined group room", zap.Int64("group_id", e.GroupID))

	default:
		c.logger.Debug("unhandled event", zap.String("kind", evt.Kind))
	}
}

func (c *Controller) onNewMessage(m domain.Message) {
	m.IsMine = false
	if c.view.Pane().IsContact(m.SenderID) {
		c.view.Append(m)
		c.view.SetTyping("")
		if err := c.socket.Emit(event.MarkRead{UserID: c.self.UserID, ContactID: m.SenderID}); err != nil {
			c.logger.Debug("mark_read not sent", zap.Error(err))
		}
		return
	}
	name := m.SenderUsername
	if name == "" {
		name = c.contactName(m.SenderID)
	}
	c.info("New message from " + name)
}

func (c *Controller) onGroupMessage(m domain.Message) {
	m.IsMine = m.SenderID == c.self.UserID
	if c.view.Pane().IsGroup(m.GroupID) {
		c.view.Append(m)
		return
	}
	if m.IsMine {
		return
	}
	c.roster.IncrementUnread(m.GroupID)
	name := "group"
	if g, ok := c.roster.Group(m.GroupID); ok {
		name = g.Name
	}
	c.info("New message in " + name)
}

func (c *Controller) contactName(userID int64) string {
	if ct, ok := c.roster.Contact(userID); ok && ct.Username != "" {
		return ct.Username
	}
	return fmt.Sprintf("user %d", userID)
}

func typingText(name string, typing bool) string {
	if !typing {
		return ""
	}
	return name + TypingSuffix
}
