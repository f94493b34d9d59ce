package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for display in the menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // 1-9 jump keys, drawn in a different color
}

// Component is implemented by every page of the app.
type Component interface {
	tview.Primitive
	Name() string
	Hints() []MenuHint
}

// ProfileData is what the header shows about the session.
type ProfileData struct {
	Profile string
	User    string
	Phone   string
	State   string
	Chats   int
	Unread  int
}

// Header is the top bar: profile summary, key hints and the logo.
type Header struct {
	*tview.Flex
	theme *Theme
	info  *tview.TextView
	menu  *tview.TextView
	logo  *tview.TextView
}

// NewHeader creates the header.
func NewHeader(theme *Theme) *Header {
	text := func() *tview.TextView {
		tv := tview.NewTextView().SetDynamicColors(true)
		tv.SetBackgroundColor(theme.BgColor)
		return tv
	}
	h := &Header{theme: theme, info: text(), menu: text(), logo: text()}
	h.info.SetBorderPadding(0, 0, 1, 1)
	h.menu.SetBorderPadding(0, 0, 2, 0)
	h.logo.SetTextAlign(tview.AlignRight)

	h.Flex = tview.NewFlex().
		AddItem(h.info, 34, 0, false).
		AddItem(h.menu, 0, 1, false).
		AddItem(h.logo, 26, 0, false)
	h.renderLogo()
	return h
}

// SetProfile renders the session summary. Nil clears it.
func (h *Header) SetProfile(d *ProfileData) {
	h.info.Clear()
	if d == nil {
		return
	}
	fg, ct := Tag(h.theme.FgColor), Tag(h.theme.CounterColor)
	phone := d.Phone
	if phone == "" {
		phone = "-"
	}
	user := d.User
	if user == "" {
		user = "-"
	}
	_, _ = fmt.Fprintf(h.info,
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Phone:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]State:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-] ([%s]%d unread[-])",
		fg, ct, tview.Escape(d.Profile),
		fg, ct, tview.Escape(d.User),
		fg, ct, tview.Escape(phone),
		fg, ct, d.State,
		fg, ct, d.Chats, Tag(h.theme.UnreadColor), d.Unread,
	)
}

// SetHints renders key hints in two columns.
func (h *Header) SetHints(hints []MenuHint) {
	h.menu.Clear()
	keyColor, numColor := Tag(h.theme.MenuKeyColor), Tag(h.theme.NumericKeyColor)
	half := (len(hints) + 1) / 2
	for i := 0; i < half; i++ {
		line := hintCell(hints[i], keyColor, numColor)
		if j := i + half; j < len(hints) {
			line += hintCell(hints[j], keyColor, numColor)
		}
		_, _ = fmt.Fprintln(h.menu, line)
	}
}

func hintCell(hint MenuHint, keyColor, numColor string) string {
	kc := keyColor
	if hint.Numeric {
		kc = numColor
	}
	cell := fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", kc, hint.Key, hint.Description)
	if pad := 24 - len(hint.Key) - len(hint.Description) - 3; pad > 0 {
		cell += fmt.Sprintf("%*s", pad, "")
	}
	return cell
}

func (h *Header) renderLogo() {
	title, muted := Tag(h.theme.TitleColor), Tag(h.theme.MutedColor)
	_, _ = fmt.Fprintf(h.logo,
		"[%s::b] ┏━╸╻ ╻┏━┓╺┳╸┏━┓┏━┓┏━┓[-:-:-]\n"+
			"[%s::b] ┃  ┣━┫┣━┫ ┃ ┣━┫┣━┛┣━┛[-:-:-]\n"+
			"[%s::b] ┗━╸╹ ╹╹ ╹ ╹ ╹ ╹╹  ╹  [-:-:-]\n"+
			"[%s]local messaging shell[-:-:-]",
		title, title, title, muted,
	)
}
