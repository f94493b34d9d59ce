package bus

import "time"

// Event kinds published by the session layer. Subscribers filter by prefix,
// e.g. "message." or "chat.".
const (
	KindStatusChanged    = "session.status_changed"
	KindProfileUpdated   = "session.profile_updated"
	KindChatCreated      = "chat.created"
	KindChatUpdated      = "chat.updated"
	KindChatDeleted      = "chat.deleted"
	KindMessageSent      = "message.sent"
	KindMessageDelivered = "message.delivered"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// MessageRef identifies a message in message.* event payloads.
type MessageRef struct {
	ChatID    string
	MessageID string
}
