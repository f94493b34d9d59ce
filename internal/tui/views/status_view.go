package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusView shows the user's own status line and contacts' updates that
// have not expired.
type StatusView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewStatusView creates the status page.
func NewStatusView(theme *ui.Theme) *StatusView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Status ")
	tv.SetTitleColor(theme.TitleColor)
	return &StatusView{TextView: tv, theme: theme}
}

func (sv *StatusView) Name() string { return "Status" }

func (sv *StatusView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: ":about <text>", Description: "Set status"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders me and the active statuses, newest first as given.
func (sv *StatusView) Update(me model.User, statuses []model.Status, contact func(id string) (model.User, bool), now time.Time) {
	sv.Clear()
	fg, muted := ui.Tag(sv.theme.FgColor), ui.Tag(sv.theme.MutedColor)

	var b strings.Builder
	fmt.Fprintf(&b, "\n [%s::b]My status[-:-:-]\n\n", fg)
	fmt.Fprintf(&b, "  %s [%s]%s[-]\n  [%s]%s[-]\n", avatar(me.Avatar, me.Name), fg, clean(me.Name), muted, clean(me.Status))

	fmt.Fprintf(&b, "\n [%s::b]Recent updates[-:-:-]\n\n", fg)
	if len(statuses) == 0 {
		fmt.Fprintf(&b, "  [%s]No recent updates[-]\n", muted)
	}
	for _, st := range statuses {
		u, ok := contact(st.UserID)
		if !ok {
			u = model.User{Name: st.UserID}
		}
		fmt.Fprintf(&b, "  %s [%s]%s[-]  [%s]%s · %d views · expires in %s[-]\n  %s\n\n",
			avatar(u.Avatar, u.Name), fg, clean(u.Name),
			muted, listTime(st.Timestamp, now), len(st.Views), remaining(st.ExpiresAt.Sub(now)),
			clean(st.Content))
	}
	_, _ = fmt.Fprint(sv, b.String())
}

func remaining(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
