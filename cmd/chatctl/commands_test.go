package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/card"
	"github.com/aboucelia/chatapp/internal/delivery"
	"github.com/aboucelia/chatapp/internal/kv"
	"github.com/aboucelia/chatapp/internal/lock"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/persist"
	"github.com/aboucelia/chatapp/internal/profile"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/status"
	"go.uber.org/zap"
)

func newCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	logger := zap.NewNop()
	b := bus.New()
	sched := delivery.NewScheduler(logger)
	t.Cleanup(sched.Stop)
	mgr := session.NewManager(persist.New(kv.NewMemory(), logger), status.NewMachine(b), sched, b, logger,
		session.Options{DeliveryDelay: 10 * time.Millisecond})
	if err := mgr.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &cli{mgr: mgr, bus: b, profile: "test", out: &out}, &out
}

func run(t *testing.T, c *cli, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.run(ctx, args); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestCommandsRequireLogin(t *testing.T) {
	c, _ := newCLI(t)
	for _, args := range [][]string{{"chats"}, {"profile"}, {"send", "chat_1", "hi"}, {"contacts"}} {
		err := c.run(context.Background(), args)
		if !errors.Is(err, session.ErrNotLoggedIn) {
			t.Errorf("%v err = %v, want ErrNotLoggedIn", args, err)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	c, out := newCLI(t)
	run(t, c, out, "login", "Mona")

	tests := [][]string{
		{"bogus"},
		{"login"},
		{"login", "Mona", "9"},
		{"messages"},
		{"send", "chat_1"},
		{"send", "chat_1", "   "},
		{"new-group", "Only name"},
		{"profile", "--avatar", "-1"},
	}
	for _, args := range tests {
		if err := c.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Errorf("%v err = %v, want usage error", args, err)
		}
	}
}

func TestLoginStatusLogout(t *testing.T) {
	c, out := newCLI(t)

	if got := run(t, c, out, "status"); !strings.Contains(got, "LOGGED_OUT") {
		t.Errorf("status before login = %q", got)
	}
	if got := run(t, c, out, "login", "Mona", "2"); !strings.Contains(got, "Logged in as Mona") {
		t.Errorf("login output = %q", got)
	}

	c.json = true
	var st struct {
		State string      `json:"state"`
		User  *model.User `json:"user"`
	}
	if err := json.Unmarshal([]byte(run(t, c, out, "status")), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "LOGGED_IN" || st.User == nil || st.User.Avatar != 2 {
		t.Errorf("status = %+v", st)
	}
	c.json = false

	run(t, c, out, "logout")
	if c.mgr.Current() != nil {
		t.Error("session still open after logout")
	}
}

func TestChatFlow(t *testing.T) {
	c, out := newCLI(t)
	run(t, c, out, "login", "Mona")

	chats := run(t, c, out, "chats")
	if lines := strings.Split(strings.TrimSpace(chats), "\n"); len(lines) != 5 || !strings.HasPrefix(lines[0], "chat_1") {
		t.Errorf("chats output:\n%s", chats)
	}

	c.json = true
	var msg model.Message
	if err := json.Unmarshal([]byte(run(t, c, out, "send", "chat_4", "hello", "there")), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Text != "hello there" || msg.Status != model.MessageDelivered {
		t.Errorf("sent message = %+v", msg)
	}
	var chatList []model.Chat
	if err := json.Unmarshal([]byte(run(t, c, out, "chats")), &chatList); err != nil {
		t.Fatal(err)
	}
	if chatList[0].ID != "chat_4" {
		t.Errorf("first chat = %s, want chat_4", chatList[0].ID)
	}

	var created model.Chat
	if err := json.Unmarshal([]byte(run(t, c, out, "new-chat", "contact_3")), &created); err != nil {
		t.Fatal(err)
	}
	var again model.Chat
	if err := json.Unmarshal([]byte(run(t, c, out, "new-chat", "contact_3")), &again); err != nil {
		t.Fatal(err)
	}
	if created.ID != again.ID {
		t.Errorf("new-chat not idempotent: %s vs %s", created.ID, again.ID)
	}
	var scanned model.Chat
	uri := card.URI(model.User{ID: "contact_3", Name: "Omar Ali", Avatar: 2})
	if err := json.Unmarshal([]byte(run(t, c, out, "new-chat", uri)), &scanned); err != nil {
		t.Fatal(err)
	}
	if scanned.ID != created.ID {
		t.Errorf("new-chat by card = %s, want %s", scanned.ID, created.ID)
	}

	var group model.Chat
	if err := json.Unmarshal([]byte(run(t, c, out, "new-group", "Weekend", "contact_1", "contact_2")), &group); err != nil {
		t.Fatal(err)
	}
	if group.Type != model.ChatGroup || group.Name != "Weekend" || len(group.Participants) != 3 {
		t.Errorf("group = %+v", group)
	}
	c.json = false

	if err := c.run(context.Background(), []string{"new-chat", "contact_99"}); err == nil {
		t.Error("new-chat with unknown contact succeeded")
	}

	run(t, c, out, "read", "chat_1")
	if ch, _ := c.mgr.Current().Chat("chat_1"); ch.UnreadCount != 0 {
		t.Errorf("chat_1 unread = %d", ch.UnreadCount)
	}

	run(t, c, out, "delete", created.ID)
	if _, ok := c.mgr.Current().Chat(created.ID); ok {
		t.Error("chat still present after delete")
	}
}

func TestProfileCommands(t *testing.T) {
	c, out := newCLI(t)
	run(t, c, out, "login", "Mona")

	got := run(t, c, out, "profile", "--status", "Busy", "--phone", "+20 1")
	if !strings.Contains(got, "Status: Busy") || !strings.Contains(got, "Phone:  +20 1") || !strings.Contains(got, "Name:   Mona") {
		t.Errorf("profile output:\n%s", got)
	}

	if got := run(t, c, out, "profile", "qr"); !strings.Contains(got, "chatapp://contact/") {
		t.Errorf("profile qr output missing URI:\n%s", got)
	}
	png := filepath.Join(t.TempDir(), "me.png")
	if got := run(t, c, out, "profile", "qr", "--png", png); !strings.Contains(got, png) {
		t.Errorf("profile qr --png output = %q", got)
	}
}

func TestListings(t *testing.T) {
	c, out := newCLI(t)
	run(t, c, out, "login", "Mona")

	if got := run(t, c, out, "contacts", "hassan"); strings.Count(got, "\n") != 2 {
		t.Errorf("contacts hassan:\n%s", got)
	}
	if got := run(t, c, out, "calls"); strings.Count(got, "\n") != 5 || !strings.Contains(got, "5:20") {
		t.Errorf("calls:\n%s", got)
	}
	if got := run(t, c, out, "statuses"); strings.Count(got, "\n") != 3 {
		t.Errorf("statuses:\n%s", got)
	}
	if got := run(t, c, out, "messages", "chat_1"); strings.Count(got, "\n") != 12 || !strings.Contains(got, "Ahmed Mohamed: Hello! How are you?") {
		t.Errorf("messages:\n%s", got)
	}
}

func TestListProfiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATAPP_HOME", home)

	var out bytes.Buffer
	if err := listProfiles(&out, "default", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No profiles found") {
		t.Fatalf("empty home output = %q", out.String())
	}

	for _, name := range []string{"default", "work"} {
		if err := profile.EnsureDir(name); err != nil {
			t.Fatal(err)
		}
	}
	l, err := lock.Acquire(profile.Dir("work"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = l.Release() }()

	out.Reset()
	if err := listProfiles(&out, "default", true); err != nil {
		t.Fatal(err)
	}
	var infos []profileInfo
	if err := json.Unmarshal(out.Bytes(), &infos); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d profiles, want 2", len(infos))
	}
	if infos[0].Name != "default" || !infos[0].Active || infos[0].InUse {
		t.Errorf("default = %+v", infos[0])
	}
	if infos[1].Name != "work" || infos[1].Active || !infos[1].InUse {
		t.Errorf("work = %+v", infos[1])
	}
	if infos[1].Path != filepath.Join(home, "profiles", "work") {
		t.Errorf("work path = %s", infos[1].Path)
	}
}
