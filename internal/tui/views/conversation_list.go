package views

import (
	"fmt"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ChatRow is one chat as the list shows it.
type ChatRow struct {
	Chat   model.Chat
	Title  string
	Others []model.User
}

// ConversationList is the main chat list.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	rows    []ChatRow
	visible []ChatRow
	me      string
	filter  string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{Table: table, theme: theme}
}

func (cl *ConversationList) Name() string { return "Chats" }

func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "n", Description: "New chat"},
		{Key: "r", Description: "Mark read"},
		{Key: "c", Description: "Calls"},
		{Key: "t", Description: "Status"},
		{Key: "p", Description: "Settings"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the rows, keeping the filter and the selected chat.
func (cl *ConversationList) Update(rows []ChatRow, me string, now time.Time) {
	selected := cl.SelectedChat()
	cl.rows = rows
	cl.me = me
	cl.render(now)
	cl.selectChat(selected)
}

// SetFilter narrows the list to chats whose title or last message contains
// filter.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render(time.Now())
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string {
	return cl.filter
}

func (cl *ConversationList) render(now time.Time) {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{"  ", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" ", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, r := range cl.rows {
		preview := ""
		if r.Chat.LastMessage != nil {
			preview = r.Chat.LastMessage.Text
		}
		if cl.filter != "" && !containsFold(r.Title, cl.filter) && !containsFold(preview, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, r)
		row := len(cl.visible)

		if lm := r.Chat.LastMessage; lm != nil && lm.SenderID == cl.me {
			preview = ticks(lm.Status, cl.theme) + " " + clean(preview)
		} else {
			preview = clean(preview)
		}
		unread := ""
		if r.Chat.UnreadCount > 0 {
			unread = fmt.Sprintf("[%s::b]%d[-:-:-]", ui.Tag(cl.theme.UnreadColor), r.Chat.UnreadCount)
		}
		var ts string
		if r.Chat.LastMessage != nil {
			ts = listTime(r.Chat.LastMessage.Timestamp, now)
		} else {
			ts = listTime(r.Chat.UpdatedAt, now)
		}

		cl.SetCell(row, 0, tview.NewTableCell(chatAvatar(r.Chat, r.Title, r.Others)))
		cl.SetCell(row, 1, tview.NewTableCell(" "+clean(r.Title)).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+preview).SetExpansion(2).SetMaxWidth(48).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 3, tview.NewTableCell(ts).SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 4, tview.NewTableCell(unread).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Chats (%d/%d) filter: %s ", len(cl.visible), len(cl.rows), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(cl.rows)))
	}
}

// SelectedChat returns the id of the highlighted chat, or "".
func (cl *ConversationList) SelectedChat() string {
	row, _ := cl.GetSelection()
	return cl.ChatByIndex(row)
}

// ChatByIndex returns the id of the nth visible chat (1-based), or "".
func (cl *ConversationList) ChatByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].Chat.ID
}

func (cl *ConversationList) selectChat(id string) {
	for i, r := range cl.visible {
		if r.Chat.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
	if len(cl.visible) > 0 {
		cl.Select(1, 0)
	}
}
