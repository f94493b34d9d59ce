package model

import "time"

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// ChatType distinguishes one-to-one chats from groups.
type ChatType string

const (
	ChatIndividual ChatType = "individual"
	ChatGroup      ChatType = "group"
)

// CallType is the media kind of a call.
type CallType string

const (
	CallVoice CallType = "voice"
	CallVideo CallType = "video"
)

// CallDirection records who placed a call.
type CallDirection string

const (
	CallIncoming CallDirection = "incoming"
	CallOutgoing CallDirection = "outgoing"
)

// CallStatus records whether a call was picked up.
type CallStatus string

const (
	CallMissed   CallStatus = "missed"
	CallAnswered CallStatus = "answered"
)

// User is either the logged-in account or a contact.
type User struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Avatar   int        `json:"avatar"`
	Status   string     `json:"status"`
	Phone    string     `json:"phone,omitempty"`
	IsOnline bool       `json:"isOnline,omitempty"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// Message is a single text message in a chat.
type Message struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chatId"`
	SenderID  string        `json:"senderId"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
	Status    MessageStatus `json:"status"`
}

// Chat is a conversation. LastMessage mirrors the tail of the chat's
// message list.
type Chat struct {
	ID           string   `json:"id"`
	Type         ChatType `json:"type"`
	Participants []string `json:"participants"`
	Name         string   `json:"name,omitempty"`
	// Avatar is set for groups only.
	Avatar      *int      `json:"avatar,omitempty"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	UnreadCount int       `json:"unreadCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsGroup reports whether the chat is a group conversation.
func (c *Chat) IsGroup() bool {
	return c.Type == ChatGroup
}

// HasParticipant reports whether id is one of the chat's participants.
func (c *Chat) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Call is an immutable call log entry. Duration is in seconds and zero for
// missed calls.
type Call struct {
	ID            string        `json:"id"`
	ParticipantID string        `json:"participantId"`
	Type          CallType      `json:"type"`
	Direction     CallDirection `json:"direction"`
	Status        CallStatus    `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      int           `json:"duration,omitempty"`
}

// Status is an ephemeral status update posted by a contact.
type Status struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Views     []string  `json:"views"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the status is still visible at now.
func (s *Status) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	if c.Avatar != nil {
		a := *c.Avatar
		out.Avatar = &a
	}
	if c.LastMessage != nil {
		m := *c.LastMessage
		out.LastMessage = &m
	}
	return out
}
