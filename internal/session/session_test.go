package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/delivery"
	"github.com/aboucelia/chatapp/internal/kv"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/persist"
	"github.com/aboucelia/chatapp/internal/status"
	"go.uber.org/zap"
)

type env struct {
	mgr    *Manager
	mem    *kv.Memory
	facade *persist.Facade
	bus    *bus.Bus
	sched  *delivery.Scheduler
}

func newEnv(t *testing.T, mem *kv.Memory, delay time.Duration) *env {
	t.Helper()
	if mem == nil {
		mem = kv.NewMemory()
	}
	logger := zap.NewNop()
	b := bus.New()
	sched := delivery.NewScheduler(logger)
	t.Cleanup(sched.Stop)

	var n atomic.Int64
	f := persist.New(mem, logger)
	mgr := NewManager(f, status.NewMachine(b), sched, b, logger, Options{
		DeliveryDelay: delay,
		NewID:         func() string { return fmt.Sprintf("id-%d", n.Add(1)) },
	})
	return &env{mgr: mgr, mem: mem, facade: f, bus: b, sched: sched}
}

func loggedIn(t *testing.T, delay time.Duration) (*env, *Session) {
	t.Helper()
	e := newEnv(t, nil, delay)
	ctx := context.Background()
	if err := e.mgr.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := e.mgr.Login(ctx, "Mona", 3)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return e, s
}

func waitFor(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	for {
		select {
		case evt := <-ch:
			if evt.Kind == kind {
				return evt
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", kind)
		}
	}
}

func TestInitWithoutUser(t *testing.T) {
	e := newEnv(t, nil, time.Second)
	if err := e.mgr.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := e.mgr.State(); got != status.LoggedOut {
		t.Errorf("State() = %s, want %s", got, status.LoggedOut)
	}
	if e.mgr.Current() != nil {
		t.Error("Current() should be nil when logged out")
	}
}

func TestLoginSeedsStorage(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()

	if got := e.mgr.State(); got != status.LoggedIn {
		t.Fatalf("State() = %s, want %s", got, status.LoggedIn)
	}
	u := s.User()
	if u.Name != "Mona" || u.Avatar != 3 || u.Status != "Hey there! I am using ChatApp" {
		t.Errorf("User() = %+v", u)
	}
	if stored := e.facade.User(ctx); stored == nil || stored.ID != u.ID {
		t.Errorf("persisted user = %+v", stored)
	}

	chats := e.facade.Chats(ctx)
	if len(chats) != 5 {
		t.Fatalf("persisted %d chats, want 5", len(chats))
	}
	for _, c := range chats {
		if c.Participants[0] != u.ID {
			t.Errorf("%s first participant = %q, want current user", c.ID, c.Participants[0])
		}
	}

	tests := []struct {
		chatID string
		want   int
	}{
		{"chat_1", 12},
		{"chat_2", 12},
		{"chat_4", 12},
		{"chat_3", 0},
		{"chat_5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.chatID, func(t *testing.T) {
			if got := len(s.Messages(ctx, tt.chatID)); got != tt.want {
				t.Errorf("%d messages, want %d", got, tt.want)
			}
		})
	}

	if got := len(e.facade.Contacts(ctx)); got != 6 {
		t.Errorf("persisted %d contacts, want 6", got)
	}
	if got := len(e.facade.Calls(ctx)); got != 5 {
		t.Errorf("persisted %d calls, want 5", got)
	}
	if got := len(e.facade.Statuses(ctx)); got != 3 {
		t.Errorf("persisted %d statuses, want 3", got)
	}
}

func TestInitRestoresPersistedSession(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()
	if _, err := s.SendMessage(ctx, "chat_4", "back again"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	// Contacts missing from storage fall back to fixtures.
	if err := e.mem.Remove(ctx, persist.KeyContacts); err != nil {
		t.Fatal(err)
	}

	e2 := newEnv(t, e.mem, time.Second)
	if err := e2.mgr.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := e2.mgr.State(); got != status.LoggedIn {
		t.Fatalf("State() = %s, want %s", got, status.LoggedIn)
	}
	restored := e2.mgr.Current()
	if restored.User().ID != s.User().ID {
		t.Errorf("restored user %q, want %q", restored.User().ID, s.User().ID)
	}
	chats := restored.Chats()
	if chats[0].ID != "chat_4" || chats[0].LastMessage.Text != "back again" {
		t.Errorf("first restored chat = %s %+v", chats[0].ID, chats[0].LastMessage)
	}
	if got := len(restored.Contacts()); got != 6 {
		t.Errorf("restored %d contacts, want 6 from fixtures", got)
	}
}

func TestCreateChatIndividualIsIdempotent(t *testing.T) {
	_, s := loggedIn(t, time.Second)
	ctx := context.Background()

	first, err := s.CreateChat(ctx, []string{"contact_3"}, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	second, err := s.CreateChat(ctx, []string{"contact_3"}, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second CreateChat id = %q, want %q", second.ID, first.ID)
	}
	if first.Type != model.ChatIndividual || len(first.Participants) != 2 {
		t.Errorf("chat = %+v, want individual with 2 participants", first)
	}
	if got := s.Chats()[0].ID; got != first.ID {
		t.Errorf("new chat not prepended, first is %q", got)
	}
	if got := len(s.Chats()); got != 6 {
		t.Errorf("%d chats, want 6", got)
	}

	existing, err := s.CreateChat(ctx, []string{"contact_1"}, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if existing.ID != "chat_1" {
		t.Errorf("CreateChat(contact_1) = %q, want fixture chat_1", existing.ID)
	}
}

func TestCreateChatGroup(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()
	ch, unsub := e.bus.Subscribe("chat.", 10)
	defer unsub()

	tests := []struct {
		name         string
		participants []string
		groupName    string
	}{
		{"several participants", []string{"contact_1", "contact_2"}, ""},
		{"named with one participant", []string{"contact_3"}, "Book club"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.CreateChat(ctx, tt.participants, tt.groupName)
			if err != nil {
				t.Fatalf("CreateChat: %v", err)
			}
			if !c.IsGroup() {
				t.Errorf("type = %s, want group", c.Type)
			}
			if c.Name != tt.groupName {
				t.Errorf("name = %q, want %q", c.Name, tt.groupName)
			}
			if c.Avatar == nil || *c.Avatar < 0 || *c.Avatar >= 6 {
				t.Errorf("avatar = %v, want index in [0,6)", c.Avatar)
			}
			if c.Participants[0] != s.User().ID || len(c.Participants) != len(tt.participants)+1 {
				t.Errorf("participants = %v", c.Participants)
			}
			if evt := waitFor(t, ch, bus.KindChatCreated); evt.Payload != c.ID {
				t.Errorf("chat.created payload = %v, want %s", evt.Payload, c.ID)
			}
		})
	}
}

func TestCreateChatErrors(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()

	if _, err := s.CreateChat(ctx, nil, ""); !errors.Is(err, ErrNoParticipants) {
		t.Errorf("CreateChat(nil) err = %v, want ErrNoParticipants", err)
	}
	if err := e.mgr.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.CreateChat(ctx, []string{"contact_1"}, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("CreateChat after logout err = %v, want ErrNotLoggedIn", err)
	}
}

func TestSendMessageBlankIsNoop(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()
	before := s.Messages(ctx, "chat_1")
	beforeChat, _ := s.Chat("chat_1")

	for _, text := range []string{"", "  ", "\n\t"} {
		msg, err := s.SendMessage(ctx, "chat_1", text)
		if msg != nil || err != nil {
			t.Errorf("SendMessage(%q) = %v, %v; want nil, nil", text, msg, err)
		}
	}
	if got := len(s.Messages(ctx, "chat_1")); got != len(before) {
		t.Errorf("%d messages after blank sends, want %d", got, len(before))
	}
	after, _ := s.Chat("chat_1")
	if after.LastMessage.ID != beforeChat.LastMessage.ID {
		t.Errorf("lastMessage changed to %q", after.LastMessage.ID)
	}
	if n := e.sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
}

func TestSendMessageDelivers(t *testing.T) {
	e, s := loggedIn(t, 20*time.Millisecond)
	ctx := context.Background()
	ch, unsub := e.bus.Subscribe("message.", 10)
	defer unsub()

	msg, err := s.SendMessage(ctx, "chat_4", "  hi  ")
	if err != nil || msg == nil {
		t.Fatalf("SendMessage = %v, %v", msg, err)
	}
	if msg.Text != "hi" || msg.Status != model.MessageSent || msg.SenderID != s.User().ID {
		t.Errorf("message = %+v", msg)
	}

	msgs := s.Messages(ctx, "chat_4")
	if last := msgs[len(msgs)-1]; last.ID != msg.ID || last.Status != model.MessageSent {
		t.Errorf("stored tail = %+v, want sent %s", last, msg.ID)
	}
	chats := s.Chats()
	if chats[0].ID != "chat_4" {
		t.Errorf("chat_4 not moved to the top, order starts with %s", chats[0].ID)
	}
	if chats[0].LastMessage.ID != msg.ID || chats[0].LastMessage.Status != model.MessageSent {
		t.Errorf("lastMessage = %+v", chats[0].LastMessage)
	}
	if !chats[0].UpdatedAt.Equal(msg.Timestamp) {
		t.Errorf("updatedAt = %v, want %v", chats[0].UpdatedAt, msg.Timestamp)
	}

	evt := waitFor(t, ch, bus.KindMessageDelivered)
	if ref := evt.Payload.(bus.MessageRef); ref.MessageID != msg.ID {
		t.Errorf("delivered ref = %+v", ref)
	}

	msgs = s.Messages(ctx, "chat_4")
	if last := msgs[len(msgs)-1]; last.Status != model.MessageDelivered {
		t.Errorf("stored status = %s, want delivered", last.Status)
	}
	c, _ := s.Chat("chat_4")
	if c.LastMessage.Status != model.MessageDelivered {
		t.Errorf("lastMessage status = %s, want delivered", c.LastMessage.Status)
	}
	persisted := e.facade.Chats(ctx)
	if persisted[0].ID != "chat_4" || persisted[0].LastMessage.Status != model.MessageDelivered {
		t.Errorf("persisted chat = %s %+v", persisted[0].ID, persisted[0].LastMessage)
	}
}

func TestDeliveryKeepsNewerLastMessage(t *testing.T) {
	e, s := loggedIn(t, 30*time.Millisecond)
	ctx := context.Background()
	ch, unsub := e.bus.Subscribe("message.", 10)
	defer unsub()

	first, _ := s.SendMessage(ctx, "chat_2", "one")
	second, _ := s.SendMessage(ctx, "chat_2", "two")

	got := map[string]bool{}
	for len(got) < 2 {
		evt := waitFor(t, ch, bus.KindMessageDelivered)
		got[evt.Payload.(bus.MessageRef).MessageID] = true
	}
	for _, m := range s.Messages(ctx, "chat_2") {
		if (m.ID == first.ID || m.ID == second.ID) && m.Status != model.MessageDelivered {
			t.Errorf("%s status = %s, want delivered", m.Text, m.Status)
		}
	}
	c, _ := s.Chat("chat_2")
	if c.LastMessage.ID != second.ID || c.LastMessage.Status != model.MessageDelivered {
		t.Errorf("lastMessage = %+v, want delivered %s", c.LastMessage, second.ID)
	}
}

func TestDeliveredNeverResurrects(t *testing.T) {
	e, s := loggedIn(t, time.Hour)
	ctx := context.Background()

	msg, _ := s.SendMessage(ctx, "chat_1", "gone soon")
	e.facade.RemoveMessages(ctx, "chat_1")

	s.markDelivered(ctx, "chat_1", msg.ID)

	if got := s.Messages(ctx, "chat_1"); len(got) != 0 {
		t.Errorf("delivery recreated %d messages", len(got))
	}
	c, _ := s.Chat("chat_1")
	if c.LastMessage.Status != model.MessageSent {
		t.Errorf("lastMessage status = %s, want sent", c.LastMessage.Status)
	}
}

func TestDeleteChatCancelsDelivery(t *testing.T) {
	e, s := loggedIn(t, 30*time.Millisecond)
	ctx := context.Background()
	ch, unsub := e.bus.Subscribe("message.", 10)
	defer unsub()

	if _, err := s.SendMessage(ctx, "chat_1", "bye"); err != nil {
		t.Fatal(err)
	}
	s.DeleteChat(ctx, "chat_1")

	if n := e.sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d after delete, want 0", n)
	}
	if _, ok := s.Chat("chat_1"); ok {
		t.Error("chat_1 still present")
	}
	for _, c := range e.facade.Chats(ctx) {
		if c.ID == "chat_1" {
			t.Error("chat_1 still persisted")
		}
	}

	waitFor(t, ch, bus.KindMessageSent)
	select {
	case evt := <-ch:
		t.Errorf("unexpected event after delete: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
	if keys, _ := e.mem.Keys(ctx); contains(keys, persist.MessagesKey("chat_1")) {
		t.Error("message key for chat_1 survived delete")
	}

	s.DeleteChat(ctx, "nope")
	if got := len(s.Chats()); got != 4 {
		t.Errorf("%d chats, want 4", got)
	}
}

func TestMarkChatAsRead(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()

	s.MarkChatAsRead(ctx, "chat_3")
	c, _ := s.Chat("chat_3")
	if c.UnreadCount != 0 {
		t.Errorf("unreadCount = %d, want 0", c.UnreadCount)
	}
	for _, pc := range e.facade.Chats(ctx) {
		if pc.ID == "chat_3" && pc.UnreadCount != 0 {
			t.Errorf("persisted unreadCount = %d", pc.UnreadCount)
		}
	}

	before := s.Chats()
	s.MarkChatAsRead(ctx, "missing")
	after := s.Chats()
	for i := range before {
		if before[i].ID != after[i].ID || before[i].UnreadCount != after[i].UnreadCount {
			t.Errorf("chat %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	e, s := loggedIn(t, time.Hour)
	ctx := context.Background()
	if err := e.mem.Set(ctx, "other_app_key", "keep"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendMessage(ctx, "chat_1", "pending"); err != nil {
		t.Fatal(err)
	}

	if err := e.mgr.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got := e.mgr.State(); got != status.LoggedOut {
		t.Errorf("State() = %s, want %s", got, status.LoggedOut)
	}
	if e.mgr.Current() != nil {
		t.Error("Current() not nil after logout")
	}
	if n := e.sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}

	keys, err := e.mem.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "other_app_key" {
		t.Errorf("keys after logout = %v, want only other_app_key", keys)
	}
	if e.facade.User(ctx) != nil || len(e.facade.Chats(ctx)) != 0 || len(e.facade.Messages(ctx, "chat_1")) != 0 {
		t.Error("collections readable after logout")
	}
}

func TestClosedSessionIsInert(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()
	if err := e.mgr.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if !s.Closed() {
		t.Fatal("session not closed")
	}

	if msg, err := s.SendMessage(ctx, "chat_1", "hello"); msg != nil || err != nil {
		t.Errorf("SendMessage on closed session = %v, %v", msg, err)
	}
	name := "Ghost"
	s.UpdateProfile(ctx, ProfileUpdate{Name: &name})
	s.MarkChatAsRead(ctx, "chat_1")
	s.DeleteChat(ctx, "chat_1")

	if keys, _ := e.mem.Keys(ctx); len(keys) != 0 {
		t.Errorf("closed session wrote keys %v", keys)
	}
}

func TestLoginReplacesSession(t *testing.T) {
	e, first := loggedIn(t, time.Hour)
	ctx := context.Background()
	if _, err := first.SendMessage(ctx, "chat_1", "pending"); err != nil {
		t.Fatal(err)
	}

	second, err := e.mgr.Login(ctx, "Karim", 1)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !first.Closed() {
		t.Error("previous session still open")
	}
	if e.mgr.Current() != second {
		t.Error("Current() is not the new session")
	}
	if n := e.sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
	if u := e.facade.User(ctx); u == nil || u.Name != "Karim" {
		t.Errorf("persisted user = %+v", u)
	}
}

func TestUpdateProfile(t *testing.T) {
	e, s := loggedIn(t, time.Second)
	ctx := context.Background()

	st, phone := "Out for lunch", "+20 111"
	s.UpdateProfile(ctx, ProfileUpdate{Status: &st, Phone: &phone})

	u := s.User()
	if u.Name != "Mona" || u.Status != st || u.Phone != phone {
		t.Errorf("User() = %+v", u)
	}
	if p := e.facade.User(ctx); p == nil || p.Status != st || p.Name != "Mona" {
		t.Errorf("persisted user = %+v", p)
	}
}

func TestLookups(t *testing.T) {
	_, s := loggedIn(t, time.Second)

	if c, ok := s.ContactByID("contact_3"); !ok || c.Name != "Omar Ali" {
		t.Errorf("ContactByID(contact_3) = %+v, %v", c, ok)
	}
	if _, ok := s.ContactByID("nobody"); ok {
		t.Error("ContactByID(nobody) found a contact")
	}

	chat := model.Chat{Type: model.ChatGroup, Participants: []string{s.User().ID, "contact_1", "ghost", "contact_6"}}
	ps := s.ChatParticipants(chat)
	if len(ps) != 2 || ps[0].ID != "contact_1" || ps[1].ID != "contact_6" {
		t.Errorf("ChatParticipants = %+v", ps)
	}

	c1, _ := s.Chat("chat_1")
	c3, _ := s.Chat("chat_3")
	if got := s.ChatTitle(c1); got != "Ahmed Mohamed" {
		t.Errorf("ChatTitle(chat_1) = %q", got)
	}
	if got := s.ChatTitle(c3); got != "Project Team" {
		t.Errorf("ChatTitle(chat_3) = %q", got)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 6},
		{"hassan", 2},
		{"OMAR", 1},
		{"zzz", 0},
	}
	for _, tt := range tests {
		t.Run("search "+tt.query, func(t *testing.T) {
			if got := len(s.SearchContacts(tt.query)); got != tt.want {
				t.Errorf("SearchContacts(%q) = %d results, want %d", tt.query, got, tt.want)
			}
		})
	}

	now := time.Now()
	if got := len(s.ActiveStatuses(now)); got != 3 {
		t.Errorf("ActiveStatuses(now) = %d, want 3", got)
	}
	if got := len(s.ActiveStatuses(now.Add(21 * time.Hour))); got != 2 {
		t.Errorf("ActiveStatuses(+21h) = %d, want 2", got)
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
