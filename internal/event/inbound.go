package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matheus3301/chatterm/internal/domain"
)

// Inbound event names.
const (
	NameUserOnline        = "user_online"
	NameUserOffline       = "user_offline"
	NameOnlineUsersList   = "online_users_list"
	NameNewMessage        = "new_message"
	NameMessageSent       = "message_sent"
	NameMessageDelivered  = "message_delivered"
	NameMessagesRead      = "messages_read"
	NameMessageDeleted    = "message_deleted"
	NameMessageEdited     = "message_edited"
	NameNewGroupMessage   = "new_group_message"
	NameUserTyping        = "user_typing"
	NameGroupUserTyping   = "group_user_typing"
	NameMessageError      = "message_error"
	NameGroupMessageError = "group_message_error"
	NameJoinedGroup       = "joined_group"
)

// ErrUnknownEvent is returned by Decode for names outside the contract.
var ErrUnknownEvent = errors.New("unknown event")

// ValidationError reports a payload that does not satisfy the contract.
type ValidationError struct {
	Event string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event %s: %v", e.Event, e.Err)
	}
	return fmt.Sprintf("event %s: missing or invalid %s", e.Event, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Inbound is an event pushed by the server.
type Inbound interface {
	EventName() string
}

// Presence reports a single user going online or offline.
type Presence struct {
	UserID int64
	Status domain.Presence
}

// OnlineUsers is the presence snapshot answering get_online_users.
type OnlineUsers struct {
	Users []int64 `json:"users"`
}

// NewMessage is a direct message addressed to the current user.
type NewMessage struct{ Message domain.Message }

// MessageSent is the server's echo of a direct message the current user sent.
type MessageSent struct{ Message domain.Message }

// NewGroupMessage is a message broadcast to a group room, including the sender.
type NewGroupMessage struct{ Message domain.Message }

// MessageDelivered reports that the receiver of a direct message was online.
type MessageDelivered struct {
	MsgID      int64 `json:"msg_id"`
	ReceiverID int64 `json:"receiver_id,omitempty"`
}

// MessagesRead reports that ReaderID read the current user's messages.
type MessagesRead struct {
	ReaderID int64 `json:"reader_id"`
	SenderID int64 `json:"sender_id,omitempty"`
}

// MessageDeleted flags a message as deleted.
type MessageDeleted struct {
	MsgID int64 `json:"msg_id"`
}

// MessageEdited replaces a message's content.
type MessageEdited struct {
	MsgID   int64  `json:"msg_id"`
	Content string `json:"content"`
}

// UserTyping is a typing signal from a direct contact.
type UserTyping struct {
	UserID   int64 `json:"user_id"`
	IsTyping bool  `json:"is_typing"`
}

// GroupUserTyping is a typing signal from a group member.
type GroupUserTyping struct {
	GroupID  int64  `json:"group_id"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// MessageError reports a failed direct send.
type MessageError struct {
	Error string `json:"error"`
}

// GroupMessageError reports a failed group send.
type GroupMessageError struct {
	Error string `json:"error"`
}

// JoinedGroup acknowledges a join_group.
type JoinedGroup struct {
	GroupID int64 `json:"group_id"`
}

// EventName returns user_online or user_offline depending on Status.
func (p Presence) EventName() string {
	if p.Status == domain.Online {
		return NameUserOnline
	}
	return NameUserOffline
}
func (OnlineUsers) EventName() string       { return NameOnlineUsersList }
func (NewMessage) EventName() string        { return NameNewMessage }
func (MessageSent) EventName() string       { return NameMessageSent }
func (NewGroupMessage) EventName() string   { return NameNewGroupMessage }
func (MessageDelivered) EventName() string  { return NameMessageDelivered }
func (MessagesRead) EventName() string      { return NameMessagesRead }
func (MessageDeleted) EventName() string    { return NameMessageDeleted }
func (MessageEdited) EventName() string     { return NameMessageEdited }
func (UserTyping) EventName() string        { return NameUserTyping }
func (GroupUserTyping) EventName() string   { return NameGroupUserTyping }
func (MessageError) EventName() string      { return NameMessageError }
func (GroupMessageError) EventName() string { return NameGroupMessageError }
func (JoinedGroup) EventName() string       { return NameJoinedGroup }

// Decode converts a named socket payload into its typed event and validates
// the fields the client relies on.
func Decode(name string, data json.RawMessage) (Inbound, error) {
	switch name {
	case NameUserOnline, NameUserOffline:
		var p struct {
			UserID int64 `json:"user_id"`
		}
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		if p.UserID <= 0 {
			return nil, &ValidationError{Event: name, Field: "user_id"}
		}
		status := domain.Offline
		if name == NameUserOnline {
			status = domain.Online
		}
		return Presence{UserID: p.UserID, Status: status}, nil

	case NameOnlineUsersList:
		var e OnlineUsers
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		return e, nil

	case NameNewMessage, NameMessageSent, NameNewGroupMessage:
		var m domain.Message
		if err := unmarshal(name, data, &m); err != nil {
			return nil, err
		}
		if err := validateMessage(name, m); err != nil {
			return nil, err
		}
		switch name {
		case NameNewMessage:
			return NewMessage{Message: m}, nil
		case NameMessageSent:
			m.IsMine = true
			return MessageSent{Message: m}, nil
		default:
			return NewGroupMessage{Message: m}, nil
		}

	case NameMessageDelivered:
		var e MessageDelivered
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.MsgID <= 0 {
			return nil, &ValidationError{Event: name, Field: "msg_id"}
		}
		return e, nil

	case NameMessagesRead:
		var e MessagesRead
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.ReaderID <= 0 {
			return nil, &ValidationError{Event: name, Field: "reader_id"}
		}
		return e, nil

	case NameMessageDeleted:
		var e MessageDeleted
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.MsgID <= 0 {
			return nil, &ValidationError{Event: name, Field: "msg_id"}
		}
		return e, nil

	case NameMessageEdited:
		var e MessageEdited
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.MsgID <= 0 {
			return nil, &ValidationError{Event: name, Field: "msg_id"}
		}
		return e, nil

	case NameUserTyping:
		var e UserTyping
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.UserID <= 0 {
			return nil, &ValidationError{Event: name, Field: "user_id"}
		}
		return e, nil

	case NameGroupUserTyping:
		var e GroupUserTyping
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		if e.GroupID <= 0 {
			return nil, &ValidationError{Event: name, Field: "group_id"}
		}
		return e, nil

	case NameMessageError:
		var e MessageError
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		return e, nil

	case NameGroupMessageError:
		var e GroupMessageError
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		return e, nil

	case NameJoinedGroup:
		var e JoinedGroup
		if err := unmarshal(name, data, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func unmarshal(name string, data json.RawMessage, v any) error {
	if len(data) == 0 {
		return &ValidationError{Event: name, Err: errors.New("empty payload")}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ValidationError{Event: name, Err: err}
	}
	return nil
}

func validateMessage(name string, m domain.Message) error {
	if m.MsgID <= 0 {
		return &ValidationError{Event: name, Field: "msg_id"}
	}
	if m.SenderID <= 0 {
		return &ValidationError{Event: name, Field: "sender_id"}
	}
	if name == NameNewGroupMessage && m.GroupID <= 0 {
		return &ValidationError{Event: name, Field: "group_id"}
	}
	if name == NameMessageSent && m.ReceiverID <= 0 {
		return &ValidationError{Event: name, Field: "receiver_id"}
	}
	return nil
}
