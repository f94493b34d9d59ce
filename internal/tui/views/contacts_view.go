package views

import (
	"fmt"
	"slices"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ContactsView lists contacts with a search box. Enter starts a chat with
// the highlighted contact; Space marks contacts for a new group.
type ContactsView struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	table    *tview.Table
	contacts []model.User
	marked   map[string]bool
	onQuery  func(query string)
	onOpen   func(contactID string)
	onDone   func()
}

// NewContactsView creates the contacts page.
func NewContactsView(theme *ui.Theme) *ContactsView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	cv := &ContactsView{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(input, 1, 0, false).
			AddItem(table, 0, 1, true),
		theme:  theme,
		input:  input,
		table:  table,
		marked: make(map[string]bool),
	}

	input.SetChangedFunc(func(text string) {
		if cv.onQuery != nil {
			cv.onQuery(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if (key == tcell.KeyEnter || key == tcell.KeyTab) && cv.onDone != nil {
			cv.onDone()
		}
	})
	table.SetSelectedFunc(func(row, _ int) {
		if id := cv.contactAt(row); id != "" && cv.onOpen != nil {
			cv.onOpen(id)
		}
	})
	return cv
}

func (cv *ContactsView) Name() string { return "Contacts" }

func (cv *ContactsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Chat"},
		{Key: "Space", Description: "Mark"},
		{Key: "/", Description: "Search"},
		{Key: ":group <name>", Description: "Group"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnQuery sets the callback run as the search text changes.
func (cv *ContactsView) SetOnQuery(fn func(query string)) {
	cv.onQuery = fn
}

// SetOnSearchDone sets the callback run when the user leaves the search
// field with Enter or Tab.
func (cv *ContactsView) SetOnSearchDone(fn func()) {
	cv.onDone = fn
}

// SetOnOpen sets the callback run when a contact is chosen.
func (cv *ContactsView) SetOnOpen(fn func(contactID string)) {
	cv.onOpen = fn
}

// Update renders contacts. Marks survive filtering.
func (cv *ContactsView) Update(contacts []model.User, now time.Time) {
	cv.contacts = contacts
	cv.table.Clear()

	for col, h := range []string{"  ", "  ", " NAME", " ABOUT", " PRESENCE"} {
		cv.table.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(cv.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
	}
	for i, c := range contacts {
		row := i + 1
		mark := " "
		if cv.marked[c.ID] {
			mark = fmt.Sprintf("[%s::b]✓[-:-:-]", ui.Tag(cv.theme.UnreadColor))
		}
		cv.table.SetCell(row, 0, tview.NewTableCell(mark))
		cv.table.SetCell(row, 1, tview.NewTableCell(avatar(c.Avatar, c.Name)))
		cv.table.SetCell(row, 2, tview.NewTableCell(" "+clean(c.Name)).SetExpansion(1).SetTextColor(cv.theme.FgColor))
		cv.table.SetCell(row, 3, tview.NewTableCell(" "+clean(c.Status)).SetExpansion(2).SetTextColor(cv.theme.MutedColor))
		cv.table.SetCell(row, 4, tview.NewTableCell(" "+Presence(c, now)).SetTextColor(cv.theme.MutedColor))
	}

	title := fmt.Sprintf(" Contacts (%d) ", len(contacts))
	if n := len(cv.Marked()); n > 0 {
		title = fmt.Sprintf(" Contacts (%d) · %d marked ", len(contacts), n)
	}
	cv.table.SetTitle(title)
}

// ToggleMark marks or unmarks the highlighted contact.
func (cv *ContactsView) ToggleMark() {
	row, _ := cv.table.GetSelection()
	id := cv.contactAt(row)
	if id == "" {
		return
	}
	if cv.marked[id] {
		delete(cv.marked, id)
	} else {
		cv.marked[id] = true
	}
	cv.Update(cv.contacts, time.Now())
	if row+1 <= len(cv.contacts) {
		cv.table.Select(row+1, 0)
	}
}

// Marked returns the marked contact ids, sorted.
func (cv *ContactsView) Marked() []string {
	var ids []string
	for id := range cv.marked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reset clears the search and the marks.
func (cv *ContactsView) Reset() {
	cv.marked = make(map[string]bool)
	cv.input.SetText("")
}

func (cv *ContactsView) contactAt(row int) string {
	if row < 1 || row > len(cv.contacts) {
		return ""
	}
	return cv.contacts[row-1].ID
}

// Input returns the search field.
func (cv *ContactsView) Input() *tview.InputField {
	return cv.input
}

// Table returns the contact table.
func (cv *ContactsView) Table() *tview.Table {
	return cv.table
}
