package views

import (
	"fmt"
	"strings"

	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Back, or quit from the chat list"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Chat List", [][2]string{
		{"Enter", "Open chat"},
		{"/", "Filter chats"},
		{"1-9", "Open Nth chat"},
		{"n", "Contacts (new chat or group)"},
		{"r", "Mark highlighted chat read"},
		{"c", "Calls"},
		{"t", "Status updates"},
		{"p", "Settings and profile"},
	}},
	{"Chat", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"Esc", "Leave composer"},
		{"d", "Chat details"},
	}},
	{"Contacts", [][2]string{
		{"/", "Search contacts"},
		{"Enter", "Chat with contact"},
		{"Space", "Mark contact for a group"},
	}},
	{"Commands (: mode)", [][2]string{
		{":chats :contacts :calls :status :settings", "Go to page"},
		{":chat <name>", "Open chat with a contact"},
		{":group <name>", "Create group from marked contacts"},
		{":read", "Mark chat read"},
		{":delete", "Delete the open chat"},
		{":name <text>", "Change display name"},
		{":about <text>", "Change about line"},
		{":phone <text>", "Change phone"},
		{":avatar <0-5>", "Change avatar color"},
		{":logout", "Log out and erase local data"},
		{":help :h", "Show this help"},
		{":quit :q", "Quit application"},
	}},
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

func (hv *HelpView) Name() string { return "Help" }

func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := ui.Tag(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-44s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
