package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/rivo/tview"
)

type stubComponent struct {
	*tview.Box
	name string
}

func (s stubComponent) Name() string      { return s.name }
func (s stubComponent) Hints() []MenuHint { return nil }

func newStub(name string) stubComponent {
	return stubComponent{Box: tview.NewBox(), name: name}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, k := range []string{"chats", "chat", "details"} {
		p.Register(k, newStub("title:"+k))
	}
	var changes []string
	p.SetOnChange(func(top Component) { changes = append(changes, top.Name()) })

	p.Reset("chats")
	p.Push("chat")
	p.Push("chat")
	p.Push("details")

	if got := p.Depth(); got != 3 {
		t.Fatalf("Depth() = %d, want 3", got)
	}
	titles := p.Titles()
	if len(titles) != 3 || titles[2] != "title:details" {
		t.Errorf("Titles() = %v", titles)
	}

	if top := p.Pop(); top != "details" {
		t.Errorf("Pop() = %q, want details", top)
	}
	if p.Pop(); p.CurrentKey() != "chats" {
		t.Errorf("CurrentKey() = %q, want chats", p.CurrentKey())
	}
	if top := p.Pop(); top != "" {
		t.Errorf("Pop() on last page = %q, want empty", top)
	}
	if p.Current().Name() != "title:chats" {
		t.Errorf("Current() = %q", p.Current().Name())
	}
	if len(changes) != 5 {
		t.Errorf("onChange fired %d times (%v), want 5", len(changes), changes)
	}
}

func TestFlashExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlash()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("new flash should be empty")
	}
	f.Info("saved")
	if m := f.Current(); m == nil || m.Text != "saved" || m.Level != FlashInfo {
		t.Fatalf("Current() = %+v", m)
	}

	f.Err(errors.New("boom"))
	now = now.Add(5 * time.Second)
	if m := f.Current(); m == nil || m.Level != FlashErr {
		t.Errorf("error flash expired too early: %+v", m)
	}
	now = now.Add(6 * time.Second)
	if m := f.Current(); m != nil {
		t.Errorf("Current() after expiry = %+v", m)
	}

	f.Warn("careful")
	f.Clear()
	if f.Current() != nil {
		t.Error("Current() after Clear should be nil")
	}
}
