package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays details about a chat and its members.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{TextView: tv, theme: theme}
}

func (ci *ConversationInfo) Name() string { return "Details" }

func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":delete", Description: "Delete chat"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders the chat. members excludes the current user.
func (ci *ConversationInfo) Update(chat model.Chat, title string, members []model.User, now time.Time) {
	ci.Clear()
	fg, ct, muted := ui.Tag(ci.theme.FgColor), ui.Tag(ci.theme.CounterColor), ui.Tag(ci.theme.MutedColor)

	kind := "Direct message"
	if chat.IsGroup() {
		kind = fmt.Sprintf("Group · %d participants", len(chat.Participants))
	}
	lastActive := listTime(chat.UpdatedAt, now)
	if lastActive == "" {
		lastActive = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n %s [%s::b]%s[-:-:-]\n\n", chatAvatar(chat, title, members), fg, clean(title))
	row := func(label, value string) {
		fmt.Fprintf(&b, " [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, value)
	}
	row("Type", kind)
	row("Created", chat.CreatedAt.Format("02/01/2006 15:04"))
	row("Last active", lastActive)
	row("Unread", fmt.Sprint(chat.UnreadCount))
	if chat.LastMessage != nil {
		row("Last message", clean(chat.LastMessage.Text))
	}

	heading := "Contact"
	if chat.IsGroup() {
		heading = "Members"
	}
	fmt.Fprintf(&b, "\n [%s::b]%s[-:-:-]\n", fg, heading)
	if chat.IsGroup() {
		fmt.Fprintf(&b, "  [%s]You[-]\n", ct)
	}
	for _, m := range members {
		fmt.Fprintf(&b, "  %s [%s]%s[-]  [%s]%s[-]\n", avatar(m.Avatar, m.Name), ct, clean(m.Name), muted, clean(m.Status))
		if line := Presence(m, now); line != "" || m.Phone != "" {
			fmt.Fprintf(&b, "     [%s]%s %s[-]\n", muted, clean(m.Phone), line)
		}
	}

	_, _ = fmt.Fprint(ci, b.String())
	ci.SetTitle(fmt.Sprintf(" %s ", clean(title)))
}
