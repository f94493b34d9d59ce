package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/fixture"
	"github.com/aboucelia/chatapp/internal/model"
	"go.uber.org/zap"
)

// groupAvatars is the size of the palette group avatars are drawn from.
var groupAvatars = len(model.AvatarColors)

// Session is one logged-in user's working set. It owns the canonical
// in-memory copies and mirrors every change to storage. All methods are
// safe for concurrent use.
type Session struct {
	*deps

	mu       sync.Mutex
	closed   bool
	user     model.User
	contacts []model.User
	chats    []model.Chat
	calls    []model.Call
	statuses []model.Status
}

// ProfileUpdate carries the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	Name   *string
	Avatar *int
	Status *string
	Phone  *string
}

func newSession(d *deps, user model.User, contacts []model.User, chats []model.Chat, calls []model.Call, statuses []model.Status) *Session {
	return &Session{
		deps:     d,
		user:     user,
		contacts: contacts,
		chats:    chats,
		calls:    calls,
		statuses: statuses,
	}
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the session has been logged out.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user
	if u.LastSeen != nil {
		ls := *u.LastSeen
		u.LastSeen = &ls
	}
	return u
}

func (s *Session) Contacts() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

// Chats returns the chats newest first.
func (s *Session) Chats() []model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = c.Clone()
	}
	return out
}

// Chat looks up a chat by id.
func (s *Session) Chat(id string) (model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.chatIndex(id); i >= 0 {
		return s.chats[i].Clone(), true
	}
	return model.Chat{}, false
}

func (s *Session) Calls() []model.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *Session) Statuses() []model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.statuses)
}

// ActiveStatuses returns the statuses that have not expired at now.
func (s *Session) ActiveStatuses(now time.Time) []model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		if st.Active(now) {
			out = append(out, st)
		}
	}
	return out
}

// SearchContacts returns contacts whose name contains query, ignoring case.
func (s *Session) SearchContacts(query string) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.User, 0, len(s.contacts))
	for _, c := range s.contacts {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// ContactByID looks up a contact.
func (s *Session) ContactByID(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contactByID(id)
}

func (s *Session) contactByID(id string) (model.User, bool) {
	for _, c := range s.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return model.User{}, false
}

// ChatParticipants resolves the chat's participants to contacts, excluding
// the current user. Ids with no contact record are dropped.
func (s *Session) ChatParticipants(chat model.Chat) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		if id == s.user.ID {
			continue
		}
		if c, ok := s.contactByID(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// ChatTitle is the group name, or the other participant's name for an
// individual chat.
func (s *Session) ChatTitle(chat model.Chat) string {
	if chat.Name != "" {
		return chat.Name
	}
	if chat.IsGroup() {
		return "Group"
	}
	if ps := s.ChatParticipants(chat); len(ps) > 0 {
		return ps[0].Name
	}
	return "Unknown"
}

// UpdateProfile merges the set fields into the user and persists it.
func (s *Session) UpdateProfile(ctx context.Context, upd ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	u := s.user
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	s.facade.SetUser(ctx, &u)
	s.user = u
	s.bus.Emit(bus.KindProfileUpdated, u.ID)
}

// Messages returns the stored history of chatID, oldest first. Unknown
// chats have no messages.
func (s *Session) Messages(ctx context.Context, chatID string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facade.Messages(ctx, chatID)
}

// SendMessage appends a message from the current user to chatID and
// schedules its delivered transition. Blank text and a closed session are
// no-ops returning nil.
func (s *Session) SendMessage(ctx context.Context, chatID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil
	}

	msg := model.Message{
		ID:        s.opts.NewID(),
		ChatID:    chatID,
		SenderID:  s.user.ID,
		Text:      text,
		Timestamp: s.opts.Now(),
		Status:    model.MessageSent,
	}
	s.applyMessage(ctx, chatID, msg.ID, func(m *model.Message, exists bool) bool {
		if exists {
			return false
		}
		*m = msg
		return true
	})
	s.bus.Emit(bus.KindMessageSent, bus.MessageRef{ChatID: chatID, MessageID: msg.ID})
	s.logger.Debug("message sent", zap.String("chat_id", chatID), zap.String("message_id", msg.ID))

	s.sched.Schedule(msg.ID, chatID, s.opts.DeliveryDelay, func() {
		s.markDelivered(context.Background(), chatID, msg.ID)
	})
	return &msg, nil
}

func (s *Session) markDelivered(ctx context.Context, chatID, msgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	ok := s.applyMessage(ctx, chatID, msgID, func(m *model.Message, exists bool) bool {
		if !exists || m.Status != model.MessageSent {
			return false
		}
		m.Status = model.MessageDelivered
		return true
	})
	if !ok {
		s.logger.Debug("delivery skipped", zap.String("chat_id", chatID), zap.String("message_id", msgID))
		return
	}
	s.bus.Emit(bus.KindMessageDelivered, bus.MessageRef{ChatID: chatID, MessageID: msgID})
}

// applyMessage is the only writer of message lists and of the chats'
// lastMessage mirror. edit receives the stored message with id msgID (or a
// zero value and exists=false) and reports whether it changed it. A new
// message is appended and becomes the chat's lastMessage, bumping the chat to
// the top. A changed existing message refreshes lastMessage only while the
// chat still mirrors it. Callers hold s.mu.
func (s *Session) applyMessage(ctx context.Context, chatID, msgID string, edit func(m *model.Message, exists bool) bool) bool {
	msgs := s.facade.Messages(ctx, chatID)
	idx := slices.IndexFunc(msgs, func(m model.Message) bool { return m.ID == msgID })

	var m model.Message
	if idx >= 0 {
		m = msgs[idx]
	}
	if !edit(&m, idx >= 0) {
		return false
	}
	if idx >= 0 {
		msgs[idx] = m
	} else {
		msgs = append(msgs, m)
	}
	s.facade.SetMessages(ctx, chatID, msgs)

	ci := s.chatIndex(chatID)
	if ci < 0 {
		return true
	}
	chat := &s.chats[ci]
	switch {
	case idx < 0:
		last := m
		chat.LastMessage = &last
		chat.UpdatedAt = m.Timestamp
		fixture.SortByRecency(s.chats)
	case chat.LastMessage != nil && chat.LastMessage.ID == m.ID:
		last := m
		chat.LastMessage = &last
	default:
		return true
	}
	s.facade.SetChats(ctx, s.chats)
	s.bus.Emit(bus.KindChatUpdated, chatID)
	return true
}

// CreateChat opens a chat with the given contacts. One participant and no
// name makes an individual chat; if one already exists with that contact
// it is returned instead. Anything else makes a group.
func (s *Session) CreateChat(ctx context.Context, participantIDs []string, groupName string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNotLoggedIn
	}
	if len(participantIDs) == 0 && groupName == "" {
		return nil, ErrNoParticipants
	}

	isGroup := len(participantIDs) > 1 || groupName != ""
	if !isGroup {
		other := participantIDs[0]
		for _, c := range s.chats {
			if c.Type == model.ChatIndividual && len(c.Participants) == 2 &&
				c.HasParticipant(s.user.ID) && c.HasParticipant(other) {
				existing := c.Clone()
				return &existing, nil
			}
		}
	}

	now := s.opts.Now()
	chat := model.Chat{
		ID:           s.opts.NewID(),
		Type:         model.ChatIndividual,
		Participants: append([]string{s.user.ID}, participantIDs...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if isGroup {
		chat.Type = model.ChatGroup
		chat.Name = groupName
		avatar := s.opts.Intn(groupAvatars)
		chat.Avatar = &avatar
	}

	s.chats = append([]model.Chat{chat}, s.chats...)
	s.facade.SetChats(ctx, s.chats)
	s.bus.Emit(bus.KindChatCreated, chat.ID)
	s.logger.Info("chat created",
		zap.String("chat_id", chat.ID),
		zap.String("type", string(chat.Type)),
		zap.Int("participants", len(chat.Participants)),
	)
	out := chat.Clone()
	return &out, nil
}

// MarkChatAsRead resets the chat's unread count. Unknown ids are ignored.
func (s *Session) MarkChatAsRead(ctx context.Context, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	i := s.chatIndex(chatID)
	if i < 0 {
		return
	}
	s.chats[i].UnreadCount = 0
	s.facade.SetChats(ctx, s.chats)
	s.bus.Emit(bus.KindChatUpdated, chatID)
}

// DeleteChat removes the chat and its history and cancels its pending
// deliveries. Unknown ids are ignored.
func (s *Session) DeleteChat(ctx context.Context, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	i := s.chatIndex(chatID)
	if i < 0 {
		return
	}
	if n := s.sched.CancelGroup(chatID); n > 0 {
		s.logger.Debug("cancelled pending deliveries", zap.String("chat_id", chatID), zap.Int("count", n))
	}
	s.chats = slices.Delete(s.chats, i, i+1)
	s.facade.SetChats(ctx, s.chats)
	s.facade.RemoveMessages(ctx, chatID)
	s.bus.Emit(bus.KindChatDeleted, chatID)
	s.logger.Info("chat deleted", zap.String("chat_id", chatID))
}

func (s *Session) chatIndex(id string) int {
	return slices.IndexFunc(s.chats, func(c model.Chat) bool { return c.ID == id })
}
