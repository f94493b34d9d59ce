package views

import (
	"fmt"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// CallsView shows the call log.
type CallsView struct {
	*tview.Table
	theme *ui.Theme
}

// NewCallsView creates the calls page.
func NewCallsView(theme *ui.Theme) *CallsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	return &CallsView{Table: table, theme: theme}
}

func (cv *CallsView) Name() string { return "Calls" }

func (cv *CallsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// Update renders calls; contact resolves participant ids.
func (cv *CallsView) Update(calls []model.Call, contact func(id string) (model.User, bool), now time.Time) {
	cv.Clear()
	for col, h := range []string{"  ", " NAME", " ", " CALL", " DURATION", " WHEN"} {
		cv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(cv.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
	}

	for i, call := range calls {
		row := i + 1
		u, ok := contact(call.ParticipantID)
		if !ok {
			u = model.User{ID: call.ParticipantID, Name: call.ParticipantID}
		}

		arrow, color := "↙", cv.theme.IncomingColor
		if call.Direction == model.CallOutgoing {
			arrow, color = "↗", cv.theme.OutgoingColor
		}
		if call.Status == model.CallMissed {
			color = cv.theme.MissedColor
		}
		kind := "Voice"
		if call.Type == model.CallVideo {
			kind = "Video"
		}

		cv.SetCell(row, 0, tview.NewTableCell(avatar(u.Avatar, u.Name)))
		cv.SetCell(row, 1, tview.NewTableCell(" "+clean(u.Name)).SetExpansion(1).SetTextColor(cv.theme.FgColor))
		cv.SetCell(row, 2, tview.NewTableCell(" "+arrow).SetTextColor(color))
		cv.SetCell(row, 3, tview.NewTableCell(" "+kind).SetTextColor(cv.theme.MutedColor))
		cv.SetCell(row, 4, tview.NewTableCell(" "+callDuration(call.Duration)).SetTextColor(cv.theme.MutedColor))
		cv.SetCell(row, 5, tview.NewTableCell(" "+listTime(call.Timestamp, now)+" "+call.Timestamp.Format("15:04")).
			SetAlign(tview.AlignRight).SetTextColor(cv.theme.FgColor))
	}
	cv.SetTitle(fmt.Sprintf(" Calls (%d) ", len(calls)))
}
