// Package fixture generates the seed dataset a new account starts with.
// Content and ordering are fixed; timestamps are relative to the now passed in.
package fixture

import (
	"sort"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
)

const (
	minute = time.Minute
	hour   = time.Hour
	day    = 24 * time.Hour
)

// DefaultStatus is the status line given to freshly created accounts.
const DefaultStatus = "Hey there! I am using ChatApp"

// Contacts returns the fixed six-person roster.
func Contacts(now time.Time) []model.User {
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	return []model.User{
		{ID: "contact_1", Name: "Ahmed Mohamed", Avatar: 0, Status: "Available", Phone: "+20 100 123 4567", IsOnline: true},
		{ID: "contact_2", Name: "Fatima Hassan", Avatar: 1, Status: "Busy", Phone: "+20 101 234 5678", LastSeen: ago(hour)},
		{ID: "contact_3", Name: "Omar Ali", Avatar: 2, Status: "At work", Phone: "+20 102 345 6789", IsOnline: true},
		{ID: "contact_4", Name: "Sara Ibrahim", Avatar: 3, Status: DefaultStatus, Phone: "+20 103 456 7890", LastSeen: ago(2 * hour)},
		{ID: "contact_5", Name: "Youssef Khaled", Avatar: 4, Status: "In a meeting", Phone: "+20 104 567 8901", LastSeen: ago(day)},
		{ID: "contact_6", Name: "Nour Hassan", Avatar: 5, Status: "Available", Phone: "+20 105 678 9012", IsOnline: true},
	}
}

// Chats returns five chats owned by userID, most recently updated first.
func Chats(userID string, now time.Time) []model.Chat {
	avatar := func(i int) *int { return &i }
	last := func(id, chatID, sender, text string, at time.Time, st model.MessageStatus) *model.Message {
		return &model.Message{ID: id, ChatID: chatID, SenderID: sender, Text: text, Timestamp: at, Status: st}
	}

	chats := []model.Chat{
		{
			ID:           "chat_1",
			Type:         model.ChatIndividual,
			Participants: []string{userID, "contact_1"},
			UnreadCount:  2,
			CreatedAt:    now.Add(-7 * day),
			UpdatedAt:    now.Add(-minute),
			LastMessage:  last("msg_1", "chat_1", "contact_1", "See you tomorrow!", now.Add(-minute), model.MessageDelivered),
		},
		{
			ID:           "chat_2",
			Type:         model.ChatIndividual,
			Participants: []string{userID, "contact_2"},
			CreatedAt:    now.Add(-3 * day),
			UpdatedAt:    now.Add(-hour),
			LastMessage:  last("msg_2", "chat_2", userID, "Thanks for the help!", now.Add(-hour), model.MessageRead),
		},
		{
			ID:           "chat_3",
			Type:         model.ChatGroup,
			Participants: []string{userID, "contact_1", "contact_3", "contact_4"},
			Name:         "Project Team",
			Avatar:       avatar(2),
			UnreadCount:  5,
			CreatedAt:    now.Add(-14 * day),
			UpdatedAt:    now.Add(-30 * minute),
			LastMessage:  last("msg_3", "chat_3", "contact_3", "Meeting at 3 PM", now.Add(-30*minute), model.MessageDelivered),
		},
		{
			ID:           "chat_4",
			Type:         model.ChatIndividual,
			Participants: []string{userID, "contact_5"},
			CreatedAt:    now.Add(-2 * day),
			UpdatedAt:    now.Add(-day),
			LastMessage:  last("msg_4", "chat_4", "contact_5", "Good morning!", now.Add(-day), model.MessageRead),
		},
		{
			ID:           "chat_5",
			Type:         model.ChatGroup,
			Participants: []string{userID, "contact_2", "contact_6"},
			Name:         "Family",
			Avatar:       avatar(1),
			UnreadCount:  1,
			CreatedAt:    now.Add(-30 * day),
			UpdatedAt:    now.Add(-2 * hour),
			LastMessage:  last("msg_5", "chat_5", "contact_6", "Happy birthday!", now.Add(-2*hour), model.MessageDelivered),
		},
	}
	SortByRecency(chats)
	return chats
}

// SortByRecency orders chats by UpdatedAt, newest first. Ties keep their
// relative order.
func SortByRecency(chats []model.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
}

var dialogue = []struct {
	fromUser bool
	text     string
}{
	{false, "Hello! How are you?"},
	{true, "Hi! I'm doing great, thanks for asking."},
	{false, "That's wonderful to hear!"},
	{true, "How about you?"},
	{false, "I'm good too. Just finished work."},
	{true, "Nice! Any plans for the evening?"},
	{false, "Not really, maybe watch a movie."},
	{true, "Sounds relaxing!"},
	{false, "Yes, I need some rest."},
	{true, "Take care then!"},
	{false, "Thanks! Talk to you later."},
	{true, "See you!"},
}

// Messages returns the scripted 12-message history between userID and
// otherID, starting 24h before now and spaced two minutes apart. newID
// supplies message ids.
func Messages(chatID, userID, otherID string, now time.Time, newID func() string) []model.Message {
	base := now.Add(-day)
	msgs := make([]model.Message, 0, len(dialogue))
	for i, line := range dialogue {
		sender, st := otherID, model.MessageDelivered
		if line.fromUser {
			sender, st = userID, model.MessageRead
		}
		msgs = append(msgs, model.Message{
			ID:        newID(),
			ChatID:    chatID,
			SenderID:  sender,
			Text:      line.text,
			Timestamp: base.Add(time.Duration(i) * 2 * minute),
			Status:    st,
		})
	}
	return msgs
}

// Calls returns the five-entry call log.
func Calls(now time.Time) []model.Call {
	return []model.Call{
		{ID: "call_1", ParticipantID: "contact_1", Type: model.CallVoice, Direction: model.CallIncoming, Status: model.CallAnswered, Timestamp: now.Add(-hour), Duration: 320},
		{ID: "call_2", ParticipantID: "contact_2", Type: model.CallVideo, Direction: model.CallOutgoing, Status: model.CallAnswered, Timestamp: now.Add(-day), Duration: 1245},
		{ID: "call_3", ParticipantID: "contact_3", Type: model.CallVoice, Direction: model.CallIncoming, Status: model.CallMissed, Timestamp: now.Add(-2 * day)},
		{ID: "call_4", ParticipantID: "contact_4", Type: model.CallVideo, Direction: model.CallOutgoing, Status: model.CallMissed, Timestamp: now.Add(-3 * day)},
		{ID: "call_5", ParticipantID: "contact_1", Type: model.CallVoice, Direction: model.CallOutgoing, Status: model.CallAnswered, Timestamp: now.Add(-4 * day), Duration: 560},
	}
}

// Statuses returns three statuses, each expiring 24h after it was posted.
func Statuses(now time.Time) []model.Status {
	status := func(id, user, content string, age time.Duration) model.Status {
		ts := now.Add(-age)
		return model.Status{ID: id, UserID: user, Content: content, Timestamp: ts, Views: []string{}, ExpiresAt: ts.Add(day)}
	}
	return []model.Status{
		status("status_1", "contact_1", "Having a great day!", hour),
		status("status_2", "contact_3", "Working on a new project", 2*hour),
		status("status_3", "contact_6", "Beautiful sunset today!", 4*hour),
	}
}
