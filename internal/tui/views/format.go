package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

// clean prepares user text for a tview cell: it drops code points tcell
// lays out badly and escapes color tags.
func clean(s string) string {
	return tview.Escape(strings.Map(func(r rune) rune {
		if problematicRune(r) {
			return -1
		}
		return r
	}, s))
}

// problematicRune matches emoji modifiers that turn one glyph into a
// multi-code-point sequence: skin tones, zero width joiner, and variation
// selectors. Dropping them leaves the base emoji, which renders two cells
// wide as tcell expects.
func problematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}

// listTime formats a timestamp for list rows: clock time today,
// "Yesterday", the weekday within a week, then the date.
func listTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	today := startOfDay(now)
	switch day := startOfDay(t); {
	case !day.Before(today):
		return t.Format("15:04")
	case !day.Before(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case !day.Before(today.AddDate(0, 0, -6)):
		return t.Format("Monday")
	default:
		return t.Format("02/01/2006")
	}
}

// dayLabel names the day t falls on for conversation separators.
func dayLabel(t, now time.Time) string {
	today := startOfDay(now)
	switch day := startOfDay(t); {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("2 January 2006")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Presence describes a contact's online state.
func Presence(u model.User, now time.Time) string {
	switch {
	case u.IsOnline:
		return "online"
	case u.LastSeen == nil:
		return ""
	}
	seen := *u.LastSeen
	switch startOfDay(seen) {
	case startOfDay(now):
		return "last seen today at " + seen.Format("15:04")
	case startOfDay(now).AddDate(0, 0, -1):
		return "last seen yesterday at " + seen.Format("15:04")
	}
	return "last seen " + seen.Format("02/01/2006")
}

// callDuration renders seconds as m:ss.
func callDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ticks is the delivery indicator shown after outgoing messages.
func ticks(st model.MessageStatus, theme *ui.Theme) string {
	switch st {
	case model.MessageDelivered:
		return "✓✓"
	case model.MessageRead:
		return fmt.Sprintf("[%s]✓✓[-]", ui.Tag(theme.TickReadColor))
	default:
		return "✓"
	}
}

// avatar renders a colored initials badge.
func avatar(index int, name string) string {
	initials := model.Initials(name)
	if initials == "" {
		initials = "?"
	}
	return fmt.Sprintf("[%s::b]%-2s[-:-:-]", model.AvatarColor(index), clean(initials))
}

// chatAvatar picks the badge for a chat: the group's own avatar, or the
// other participant's.
func chatAvatar(chat model.Chat, title string, others []model.User) string {
	switch {
	case chat.Avatar != nil:
		return avatar(*chat.Avatar, title)
	case len(others) > 0:
		return avatar(others[0].Avatar, title)
	default:
		return avatar(0, title)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
