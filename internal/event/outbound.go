// Package event defines the real-time event contract as explicit Go types:
// one struct per outbound event the client emits and per inbound event the
// server pushes. Inbound payloads are validated when decoded.
package event

import "github.com/matheus3301/chatterm/internal/domain"

// Outbound event names.
const (
	NameGetOnlineUsers   = "get_online_users"
	NameTyping           = "typing"
	NameGroupTyping      = "group_typing"
	NameMarkRead         = "mark_read"
	NameSendMessage      = "send_message"
	NameSendGroupMessage = "send_group_message"
	NameDeleteMessage    = "delete_message"
	NameEditMessage      = "edit_message"
	NameJoinGroup        = "join_group"
)

// Outbound is an event the client emits on the socket.
type Outbound interface {
	EventName() string
}

// GetOnlineUsers requests a presence snapshot. It carries no payload.
type GetOnlineUsers struct{}

// Typing signals the typing state of a direct conversation.
type Typing struct {
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
	IsTyping   bool  `json:"is_typing"`
}

// GroupTyping signals the typing state inside a group.
type GroupTyping struct {
	SenderID       int64  `json:"sender_id"`
	GroupID        int64  `json:"group_id"`
	SenderUsername string `json:"sender_username"`
	IsTyping       bool   `json:"is_typing"`
}

// MarkRead is the read receipt for a direct conversation.
type MarkRead struct {
	UserID    int64 `json:"user_id"`
	ContactID int64 `json:"contact_id"`
}

// Attachment holds the attachment_* fields shared by both send events.
type Attachment struct {
	Path string          `json:"attachment_path,omitempty"`
	Name string          `json:"attachment_name,omitempty"`
	Type domain.Category `json:"attachment_type,omitempty"`
	Size int64           `json:"attachment_size,omitempty"`
}

// AttachmentFrom converts an upload descriptor into send-event fields.
func AttachmentFrom(fd *domain.FileDescriptor) Attachment {
	if fd == nil {
		return Attachment{}
	}
	return Attachment{Path: fd.Filename, Name: fd.OriginalName, Type: fd.Type, Size: fd.Size}
}

// SendMessage sends a direct message.
type SendMessage struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
	Attachment
}

// SendGroupMessage sends a message to a group.
type SendGroupMessage struct {
	SenderID int64  `json:"sender_id"`
	GroupID  int64  `json:"group_id"`
	Content  string `json:"content"`
	Attachment
}

// DeleteMessage broadcasts a deletion already accepted by the HTTP API.
// Exactly one of ReceiverID or GroupID is set.
type DeleteMessage struct {
	SenderID   int64 `json:"sender_id"`
	MsgID      int64 `json:"msg_id"`
	ReceiverID int64 `json:"receiver_id,omitempty"`
	GroupID    int64 `json:"group_id,omitempty"`
}

// EditMessage broadcasts an edit already accepted by the HTTP API.
type EditMessage struct {
	SenderID   int64  `json:"sender_id"`
	MsgID      int64  `json:"msg_id"`
	Content    string `json:"content"`
	ReceiverID int64  `json:"receiver_id,omitempty"`
	GroupID    int64  `json:"group_id,omitempty"`
}

// JoinGroup subscribes the connection to a group room.
type JoinGroup struct {
	UserID  int64 `json:"user_id"`
	GroupID int64 `json:"group_id"`
}

func (GetOnlineUsers) EventName() string   { return NameGetOnlineUsers }
func (Typing) EventName() string           { return NameTyping }
func (GroupTyping) EventName() string      { return NameGroupTyping }
func (MarkRead) EventName() string         { return NameMarkRead }
func (SendMessage) EventName() string      { return NameSendMessage }
func (SendGroupMessage) EventName() string { return NameSendGroupMessage }
func (DeleteMessage) EventName() string    { return NameDeleteMessage }
func (EditMessage) EventName() string      { return NameEditMessage }
func (JoinGroup) EventName() string        { return NameJoinGroup }

// Payload returns the value to serialize after the event name, or nil for
// events that carry no payload.
func Payload(o Outbound) any {
	if _, ok := o.(GetOnlineUsers); ok {
		return nil
	}
	return o
}
