package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Namespaces used by the client. Subscribers filter by these prefixes.
const (
	// NamespaceRealtime carries decoded inbound socket events, "rt.<event name>".
	NamespaceRealtime = "rt."
	// NamespaceConn carries connection lifecycle events.
	NamespaceConn = "conn."
	// NamespaceUI carries state-change signals for the views.
	NamespaceUI = "ui."
	// NamespaceNotice carries transient user-visible notices.
	NamespaceNotice = "notice."
)

// Kinds published outside the rt. namespace.
const (
	KindStatusChanged = "conn.status_changed"
	KindConnected     = "conn.connected"
	KindDisconnected  = "conn.disconnected"

	KindContactsChanged = "ui.contacts"
	KindGroupsChanged   = "ui.groups"
	KindPaneChanged     = "ui.pane"
	KindMessagesChanged = "ui.messages"
	KindTypingChanged   = "ui.typing"
	KindComposerChanged = "ui.composer"

	KindNoticeInfo  = "notice.info"
	KindNoticeError = "notice.error"
)

// Realtime returns the bus kind for an inbound socket event name.
func Realtime(name string) string {
	return NamespaceRealtime + name
}
