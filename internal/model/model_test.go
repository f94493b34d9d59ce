package model

import (
	"testing"
	"time"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ahmed Mohamed", "AM"},
		{"omar", "O"},
		{"Nour El Hassan", "NE"},
		{"", ""},
		{"  sara  ibrahim ", "SI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Initials(tt.name); got != tt.want {
				t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestAvatarColorWraps(t *testing.T) {
	if AvatarColor(0) != "#25D366" {
		t.Errorf("AvatarColor(0) = %q", AvatarColor(0))
	}
	if AvatarColor(6) != AvatarColor(0) {
		t.Error("AvatarColor(6) should wrap to index 0")
	}
	if AvatarColor(-1) != AvatarColor(5) {
		t.Error("AvatarColor(-1) should wrap to index 5")
	}
}

func TestStatusActive(t *testing.T) {
	now := time.Now()
	s := Status{ExpiresAt: now.Add(time.Minute)}
	if !s.Active(now) {
		t.Error("status expiring in the future should be active")
	}
	if s.Active(now.Add(time.Hour)) {
		t.Error("status should be inactive after expiry")
	}
}

func TestChatCloneIsDeep(t *testing.T) {
	avatar := 2
	c := Chat{
		ID:           "c1",
		Participants: []string{"a", "b"},
		Avatar:       &avatar,
		LastMessage:  &Message{ID: "m1", Status: MessageSent},
	}
	cp := c.Clone()
	cp.Participants[0] = "z"
	*cp.Avatar = 5
	cp.LastMessage.Status = MessageDelivered

	if c.Participants[0] != "a" || *c.Avatar != 2 || c.LastMessage.Status != MessageSent {
		t.Errorf("Clone shares state with original: %+v", c)
	}
}
