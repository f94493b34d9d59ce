package views

import (
	"fmt"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MessageThread displays one chat's messages above a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	title    string
	onSend   func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("Type a message")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Message (i to focus, Esc to leave) ")
	composer.SetTitleColor(theme.MutedColor)

	mt := &MessageThread{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(messages, 0, 1, true).
			AddItem(composer, 3, 0, false),
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil {
			return
		}
		if text := composer.GetText(); text != "" {
			mt.onSend(text)
			composer.SetText("")
		}
	})
	return mt
}

func (mt *MessageThread) Name() string {
	if mt.title != "" {
		return mt.title
	}
	return "Chat"
}

func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// SetChat sets the title line: the chat name and a subtitle such as
// presence or the member list.
func (mt *MessageThread) SetChat(title, subtitle string) {
	mt.title = title
	if subtitle == "" {
		mt.messages.SetTitle(fmt.Sprintf(" %s ", clean(title)))
		return
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s [%s]%s[-] ", clean(title), ui.Tag(mt.theme.MutedColor), clean(subtitle)))
}

// SetOnSend sets the callback run when the composer submits text.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Update renders msgs oldest first. me is the current user's id and
// senderName resolves other senders.
func (mt *MessageThread) Update(msgs []model.Message, me string, senderName func(id string) string, now time.Time) {
	mt.messages.Clear()
	if len(msgs) == 0 {
		_, _ = fmt.Fprintf(mt.messages, "\n  [%s]No messages yet. Say hello![-]", ui.Tag(mt.theme.MutedColor))
		return
	}

	var lastDay time.Time
	for _, m := range msgs {
		if day := startOfDay(m.Timestamp); !day.Equal(lastDay) {
			lastDay = day
			_, _ = fmt.Fprintf(mt.messages, "[%s]── %s ──[-]\n\n", ui.Tag(mt.theme.MutedColor), dayLabel(m.Timestamp, now))
		}

		ts := m.Timestamp.Format("15:04")
		if m.SenderID == me {
			_, _ = fmt.Fprintf(mt.messages, "[%s::b]You[-:-:-] [%s]%s[-] %s\n%s\n\n",
				ui.Tag(mt.theme.OutgoingColor), ui.Tag(mt.theme.MutedColor), ts,
				ticks(m.Status, mt.theme), clean(m.Text))
			continue
		}
		_, _ = fmt.Fprintf(mt.messages, "[%s::b]%s[-:-:-] [%s]%s[-]\n%s\n\n",
			ui.Tag(mt.theme.IncomingColor), clean(senderName(m.SenderID)),
			ui.Tag(mt.theme.MutedColor), ts, clean(m.Text))
	}
	mt.messages.ScrollToEnd()
}

// Messages returns the message pane (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
