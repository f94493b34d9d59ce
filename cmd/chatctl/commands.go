package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/card"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/profile"
	"github.com/aboucelia/chatapp/internal/session"
)

var errUsage = errors.New("invalid usage")

func usage(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, a...)...)
}

type cli struct {
	mgr     *session.Manager
	bus     *bus.Bus
	profile string
	json    bool
	out     io.Writer
	now     func() time.Time
}

func (c *cli) run(ctx context.Context, args []string) error {
	if c.now == nil {
		c.now = time.Now
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return c.cmdStatus()
	case "login":
		return c.cmdLogin(ctx, rest)
	case "logout":
		return c.cmdLogout(ctx)
	case "profile":
		if len(rest) > 0 && rest[0] == "qr" {
			return c.cmdProfileQR(rest[1:])
		}
		return c.cmdProfile(ctx, rest)
	case "chats":
		return c.cmdChats()
	case "messages":
		return c.cmdMessages(ctx, rest)
	case "send":
		return c.cmdSend(ctx, rest)
	case "new-chat":
		return c.cmdNewChat(ctx, rest)
	case "new-group":
		return c.cmdNewGroup(ctx, rest)
	case "read":
		return c.cmdRead(ctx, rest)
	case "delete":
		return c.cmdDelete(ctx, rest)
	case "contacts":
		return c.cmdContacts(rest)
	case "calls":
		return c.cmdCalls()
	case "statuses":
		return c.cmdStatuses()
	default:
		return usage("unknown command: %s", cmd)
	}
}

func (c *cli) session() (*session.Session, error) {
	s := c.mgr.Current()
	if s == nil {
		return nil, fmt.Errorf("%w (run: chatctl login <name>)", session.ErrNotLoggedIn)
	}
	return s, nil
}

func (c *cli) cmdStatus() error {
	type statusOut struct {
		Profile string      `json:"profile"`
		State   string      `json:"state"`
		User    *model.User `json:"user,omitempty"`
	}
	out := statusOut{Profile: c.profile, State: string(c.mgr.State())}
	if s := c.mgr.Current(); s != nil {
		u := s.User()
		out.User = &u
	}
	if c.json {
		return c.outputJSON(out)
	}
	c.printf("Profile: %s\n", out.Profile)
	c.printf("State:   %s\n", out.State)
	if out.User != nil {
		c.printf("User:    %s (%s)\n", out.User.Name, out.User.ID)
	}
	return nil
}

func (c *cli) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return usage("login <name> [avatar]")
	}
	avatar := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n >= len(model.AvatarColors) {
			return usage("avatar must be 0-%d", len(model.AvatarColors)-1)
		}
		avatar = n
	}
	s, err := c.mgr.Login(ctx, args[0], avatar)
	if err != nil {
		return err
	}
	u := s.User()
	if c.json {
		return c.outputJSON(u)
	}
	c.printf("Logged in as %s (%s)\n", u.Name, u.ID)
	return nil
}

func (c *cli) cmdLogout(ctx context.Context) error {
	if err := c.mgr.Logout(ctx); err != nil {
		return err
	}
	c.printf("Logged out. Local data for profile %q erased.\n", c.profile)
	return nil
}

func (c *cli) cmdProfile(ctx context.Context, args []string) error {
	s, err := c.session()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	about := fs.String("status", "", "status text")
	phone := fs.String("phone", "", "phone number")
	avatar := fs.Int("avatar", 0, "avatar palette index")
	if err := fs.Parse(args); err != nil {
		return usage("profile: %v", err)
	}

	var upd session.ProfileUpdate
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "name":
			upd.Name = name
		case "status":
			upd.Status = about
		case "phone":
			upd.Phone = phone
		case "avatar":
			upd.Avatar = avatar
		}
	})
	if upd.Avatar != nil && (*upd.Avatar < 0 || *upd.Avatar >= len(model.AvatarColors)) {
		return usage("avatar must be 0-%d", len(model.AvatarColors)-1)
	}
	if changed {
		s.UpdateProfile(ctx, upd)
	}

	u := s.User()
	if c.json {
		return c.outputJSON(u)
	}
	c.printf("ID:     %s\n", u.ID)
	c.printf("Name:   %s\n", u.Name)
	c.printf("Status: %s\n", u.Status)
	if u.Phone != "" {
		c.printf("Phone:  %s\n", u.Phone)
	}
	c.printf("Avatar: %d (%s)\n", u.Avatar, model.AvatarColor(u.Avatar))
	return nil
}

func (c *cli) cmdProfileQR(args []string) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("profile qr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	png := fs.String("png", "", "write a PNG to this path instead of printing")
	size := fs.Int("size", 256, "PNG size in pixels")
	if err := fs.Parse(args); err != nil {
		return usage("profile qr: %v", err)
	}

	uri := card.URI(s.User())
	if *png != "" {
		if err := card.WritePNG(uri, *png, *size); err != nil {
			return fmt.Errorf("write QR: %w", err)
		}
		c.printf("Wrote %s\n", *png)
		return nil
	}
	if c.json {
		return c.outputJSON(map[string]string{"uri": uri})
	}
	qr, err := card.Render(uri)
	if err != nil {
		return fmt.Errorf("render QR: %w", err)
	}
	c.printf("%s\n  %s\n", qr, uri)
	return nil
}

func (c *cli) cmdChats() error {
	s, err := c.session()
	if err != nil {
		return err
	}
	chats := s.Chats()
	if c.json {
		return c.outputJSON(chats)
	}
	if len(chats) == 0 {
		c.printf("No chats.\n")
		return nil
	}
	for _, ch := range chats {
		kind := "DM"
		if ch.IsGroup() {
			kind = "GROUP"
		}
		preview := ""
		if ch.LastMessage != nil {
			preview = ch.LastMessage.Text
		}
		unread := ""
		if ch.UnreadCount > 0 {
			unread = fmt.Sprintf("(%d)", ch.UnreadCount)
		}
		c.printf("%-38s %-5s %-20s %-4s %-8s %s\n",
			ch.ID, kind, truncate(s.ChatTitle(ch), 20), unread, c.formatTime(ch.UpdatedAt), truncate(preview, 40))
	}
	return nil
}

func (c *cli) cmdMessages(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("messages <chatId>")
	}
	s, err := c.session()
	if err != nil {
		return err
	}
	msgs := s.Messages(ctx, args[0])
	if c.json {
		return c.outputJSON(msgs)
	}
	if len(msgs) == 0 {
		c.printf("No messages.\n")
		return nil
	}
	me := s.User().ID
	for _, m := range msgs {
		sender := m.SenderID
		if m.SenderID == me {
			sender = "You"
		} else if u, ok := s.ContactByID(m.SenderID); ok {
			sender = u.Name
		}
		c.printf("[%s] %s: %s (%s)\n", c.formatTime(m.Timestamp), sender, m.Text, m.Status)
	}
	return nil
}

func (c *cli) cmdSend(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("send <chatId> <text>")
	}
	s, err := c.session()
	if err != nil {
		return err
	}

	events, unsub := c.bus.Subscribe("message.", 16)
	defer unsub()

	msg, err := s.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if msg == nil {
		return usage("message text is empty")
	}

	for {
		select {
		case evt := <-events:
			ref, ok := evt.Payload.(bus.MessageRef)
			if evt.Kind != bus.KindMessageDelivered || !ok || ref.MessageID != msg.ID {
				continue
			}
			msg.Status = model.MessageDelivered
			if c.json {
				return c.outputJSON(msg)
			}
			c.printf("Sent %s (%s)\n", msg.ID, msg.Status)
			return nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for delivery of %s: %w", msg.ID, ctx.Err())
		}
	}
}

func (c *cli) cmdNewChat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("new-chat <contactId|%s://contact/...>", card.Scheme)
	}
	s, err := c.session()
	if err != nil {
		return err
	}
	id := args[0]
	if strings.HasPrefix(id, card.Scheme+"://") {
		u, err := card.Parse(id)
		if err != nil {
			return err
		}
		id = u.ID
	}
	if _, ok := s.ContactByID(id); !ok {
		return fmt.Errorf("unknown contact %q", id)
	}
	ch, err := s.CreateChat(ctx, []string{id}, "")
	if err != nil {
		return err
	}
	return c.printChat(s, ch)
}

func (c *cli) cmdNewGroup(ctx context.Context, args []string) error {
	if len(args) < 2 || strings.TrimSpace(args[0]) == "" {
		return usage("new-group <name> <contactId>...")
	}
	s, err := c.session()
	if err != nil {
		return err
	}
	for _, id := range args[1:] {
		if _, ok := s.ContactByID(id); !ok {
			return fmt.Errorf("unknown contact %q", id)
		}
	}
	ch, err := s.CreateChat(ctx, args[1:], args[0])
	if err != nil {
		return err
	}
	return c.printChat(s, ch)
}

func (c *cli) printChat(s *session.Session, ch *model.Chat) error {
	if c.json {
		return c.outputJSON(ch)
	}
	c.printf("%s %s\n", ch.ID, s.ChatTitle(*ch))
	return nil
}

func (c *cli) cmdRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("read <chatId>")
	}
	s, err := c.session()
	if err != nil {
		return err
	}
	s.MarkChatAsRead(ctx, args[0])
	return nil
}

func (c *cli) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <chatId>")
	}
	s, err := c.session()
	if err != nil {
		return err
	}
	if _, ok := s.Chat(args[0]); !ok {
		return fmt.Errorf("unknown chat %q", args[0])
	}
	s.DeleteChat(ctx, args[0])
	c.printf("Deleted %s\n", args[0])
	return nil
}

func (c *cli) cmdContacts(args []string) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	contacts := s.SearchContacts(strings.Join(args, " "))
	if c.json {
		return c.outputJSON(contacts)
	}
	if len(contacts) == 0 {
		c.printf("No contacts found.\n")
		return nil
	}
	for _, u := range contacts {
		presence := "online"
		if !u.IsOnline {
			presence = "offline"
			if u.LastSeen != nil {
				presence = "seen " + c.formatTime(*u.LastSeen)
			}
		}
		c.printf("%-10s %-16s %-18s %-14s %s\n", u.ID, u.Name, u.Phone, presence, u.Status)
	}
	return nil
}

func (c *cli) cmdCalls() error {
	s, err := c.session()
	if err != nil {
		return err
	}
	calls := s.Calls()
	if c.json {
		return c.outputJSON(calls)
	}
	for _, call := range calls {
		name := call.ParticipantID
		if u, ok := s.ContactByID(call.ParticipantID); ok {
			name = u.Name
		}
		dur := "-"
		if call.Duration > 0 {
			dur = formatDuration(call.Duration)
		}
		c.printf("%-16s %-5s %-8s %-8s %-8s %s\n",
			name, call.Type, call.Direction, call.Status, dur, c.formatTime(call.Timestamp))
	}
	return nil
}

func (c *cli) cmdStatuses() error {
	s, err := c.session()
	if err != nil {
		return err
	}
	statuses := s.ActiveStatuses(c.now())
	if c.json {
		return c.outputJSON(statuses)
	}
	if len(statuses) == 0 {
		c.printf("No recent updates.\n")
		return nil
	}
	for _, st := range statuses {
		name := st.UserID
		if u, ok := s.ContactByID(st.UserID); ok {
			name = u.Name
		}
		c.printf("%-16s %-8s %s\n", name, c.formatTime(st.Timestamp), st.Content)
	}
	return nil
}

func (c *cli) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}

func (c *cli) outputJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTime shows the clock time for today and the date otherwise.
func (c *cli) formatTime(t time.Time) string {
	now := c.now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

type profileInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	InUse  bool   `json:"inUse"`
	Active bool   `json:"active"`
}

// listProfiles runs without opening a profile, so it never takes a lock.
func listProfiles(w io.Writer, current string, jsonOut bool) error {
	names, err := profile.List()
	if err != nil {
		return err
	}
	infos := make([]profileInfo, 0, len(names))
	for _, name := range names {
		_, statErr := os.Stat(profile.LockPath(name))
		infos = append(infos, profileInfo{
			Name:   name,
			Path:   profile.Dir(name),
			InUse:  statErr == nil,
			Active: name == current,
		})
	}
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(w, "No profiles found.")
		return nil
	}
	for _, p := range infos {
		mark := " "
		if p.Active {
			mark = "*"
		}
		state := "idle"
		if p.InUse {
			state = "in use"
		}
		_, _ = fmt.Fprintf(w, "%s %-20s %s (%s)\n", mark, p.Name, p.Path, state)
	}
	return nil
}
