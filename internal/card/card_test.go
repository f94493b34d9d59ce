package card

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aboucelia/chatapp/internal/model"
)

func TestURIRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		user model.User
	}{
		{"plain", model.User{ID: "u1", Name: "Mona", Avatar: 2}},
		{"phone and spaces", model.User{ID: "8f0c", Name: "Omar Ali", Avatar: 5, Phone: "+20 102 345 6789"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := URI(tt.user)
			if !strings.HasPrefix(uri, "chatapp://contact/"+tt.user.ID) {
				t.Errorf("URI = %q", uri)
			}
			got, err := Parse(uri)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.ID != tt.user.ID || got.Name != tt.user.Name || got.Avatar != tt.user.Avatar || got.Phone != tt.user.Phone {
				t.Errorf("Parse(URI(u)) = %+v, want %+v", got, tt.user)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{"https://example.com/u1", "chatapp://contact/", "chatapp://group/u1"} {
		var fe *FormatError
		if _, err := Parse(raw); !errors.As(err, &fe) {
			t.Errorf("Parse(%q) err = %v, want *FormatError", raw, err)
		}
	}
}

func TestRender(t *testing.T) {
	out, err := Render(URI(model.User{ID: "u1", Name: "Mona"}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Errorf("rendered %d lines, want a full QR block", len(lines))
	}
	if !strings.ContainsRune(out, '█') {
		t.Error("no filled blocks in output")
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	if err := WritePNG("chatapp://contact/u1", path, 128); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("file does not look like a PNG (%d bytes)", len(data))
	}
}
