package views

import (
	"fmt"

	"github.com/aboucelia/chatapp/internal/card"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

// SettingsView shows the profile and its contact card QR code.
type SettingsView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewSettingsView creates the settings page.
func NewSettingsView(theme *ui.Theme) *SettingsView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Settings ")
	tv.SetTitleColor(theme.TitleColor)
	return &SettingsView{TextView: tv, theme: theme}
}

func (sv *SettingsView) Name() string { return "Settings" }

func (sv *SettingsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: ":name <n>", Description: "Rename"},
		{Key: ":about <s>", Description: "Status"},
		{Key: ":phone <p>", Description: "Phone"},
		{Key: ":avatar <0-5>", Description: "Avatar"},
		{Key: ":logout", Description: "Log out"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders u's profile and QR code.
func (sv *SettingsView) Update(u model.User, profile string) {
	sv.Clear()
	fg, ct, muted := ui.Tag(sv.theme.FgColor), ui.Tag(sv.theme.CounterColor), ui.Tag(sv.theme.MutedColor)

	phone := u.Phone
	if phone == "" {
		phone = "-"
	}
	_, _ = fmt.Fprintf(sv,
		"\n  %s [%s::b]%s[-:-:-]\n  [%s]%s[-]\n\n"+
			"  [%s::b]Phone:[-:-:-]   [%s]%s[-]\n"+
			"  [%s::b]Avatar:[-:-:-]  [%s]%d[-] [%s]███[-]\n"+
			"  [%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"  [%s::b]User ID:[-:-:-] [%s]%s[-]\n\n",
		avatar(u.Avatar, u.Name), fg, clean(u.Name), muted, clean(u.Status),
		fg, ct, clean(phone),
		fg, ct, u.Avatar, model.AvatarColor(u.Avatar),
		fg, ct, clean(profile),
		fg, ct, u.ID,
	)

	uri := card.URI(u)
	qr, err := card.Render(uri)
	if err != nil {
		_, _ = fmt.Fprintf(sv, "  [%s](QR generation failed: %s)[-]\n", ui.Tag(sv.theme.FlashErrColor), clean(err.Error()))
		return
	}
	_, _ = fmt.Fprintf(sv, "  [%s]Scan to add me as a contact:[-]\n\n%s\n  [%s]%s[-]\n", muted, qr, muted, tview.Escape(uri))
}
