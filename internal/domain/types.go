package domain

import (
	"strings"
	"time"
)

// Presence is the online/offline status of a user.
type Presence string

const (
	Online  Presence = "online"
	Offline Presence = "offline"
)

// Role is a member's role inside a group.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// DeliveryStatus tracks a direct message through sent/delivered/read.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Category is the coarse attachment type used to pick an icon.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryAudio     Category = "audio"
	CategoryVideo     Category = "video"
	CategoryArchives  Category = "archives"
	CategoryOther     Category = "other"
)

// Identity is the signed-in user.
type Identity struct {
	UserID   int64
	Username string
}

// Contact is an entry of the user's contact list.
type Contact struct {
	UserID     int64    `json:"user_id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Status     Presence `json:"status"`
	LastActive string   `json:"last_active,omitempty"`
}

// Online reports whether the contact is currently online.
func (c Contact) Online() bool { return c.Status == Online }

// Group is an entry of the user's group list.
type Group struct {
	GroupID       int64  `json:"group_id"`
	Name          string `json:"name"`
	CreatedBy     int64  `json:"created_by"`
	CreatedAt     string `json:"created_at,omitempty"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	Privacy       string `json:"privacy,omitempty"`
	Role          Role   `json:"role"`
	MemberCount   int    `json:"member_count"`
	UnreadCount   int    `json:"unread_count"`
}

// Member is a participant listed in group details.
type Member struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Status   Presence `json:"status"`
	Role     Role     `json:"role"`
	JoinedAt string   `json:"joined_at,omitempty"`
}

// GroupDetails is the full description of a group returned by the group info endpoint.
type GroupDetails struct {
	GroupID         int64    `json:"group_id"`
	Name            string   `json:"name"`
	CreatedBy       int64    `json:"created_by"`
	CreatorUsername string   `json:"creator_username"`
	CreatedAt       string   `json:"created_at,omitempty"`
	Privacy         string   `json:"privacy,omitempty"`
	UserRole        Role     `json:"user_role"`
	Members         []Member `json:"members"`
}

// SearchResult is a user found by the contact search.
type SearchResult struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsContact bool   `json:"is_contact"`
}

// FileDescriptor describes an uploaded file.
type FileDescriptor struct {
	Filename     string   `json:"filename"`
	OriginalName string   `json:"original_name"`
	Type         Category `json:"type"`
	Size         int64    `json:"size"`
}

// Message is a direct or group chat message. Attachment fields are flat to
// match the wire payloads.
type Message struct {
	MsgID          int64          `json:"msg_id"`
	SenderID       int64          `json:"sender_id"`
	ReceiverID     int64          `json:"receiver_id,omitempty"`
	GroupID        int64          `json:"group_id,omitempty"`
	SenderUsername string         `json:"sender_username"`
	Content        string         `json:"content"`
	Timestamp      string         `json:"timestamp"`
	Status         DeliveryStatus `json:"status,omitempty"`
	AttachmentPath string         `json:"attachment_path,omitempty"`
	AttachmentName string         `json:"attachment_name,omitempty"`
	AttachmentType Category       `json:"attachment_type,omitempty"`
	AttachmentSize int64          `json:"attachment_size,omitempty"`
	IsMine         bool           `json:"is_mine,omitempty"`
	Edited         bool           `json:"edited,omitempty"`
	Deleted        bool           `json:"deleted,omitempty"`
}

// HasAttachment reports whether the message references an uploaded file.
func (m Message) HasAttachment() bool { return m.AttachmentPath != "" }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// Time parses the backend timestamp. Naive timestamps are read as local time.
// Returns the zero time when the value is empty or unparseable.
func (m Message) Time() time.Time {
	return ParseTimestamp(m.Timestamp)
}

// ParseTimestamp parses the timestamp formats emitted by the backend.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
