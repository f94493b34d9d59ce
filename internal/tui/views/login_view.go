package views

import (
	"strings"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/rivo/tview"
)

var avatarNames = []string{"Green", "Teal", "Dark teal", "Blue", "Emerald", "Grey"}

// LoginView is the sign-up form shown while logged out.
type LoginView struct {
	*tview.Flex
	theme   *ui.Theme
	form    *tview.Form
	avatar  int
	onLogin func(name string, avatar int)
}

// NewLoginView creates the login page.
func NewLoginView(theme *ui.Theme) *LoginView {
	lv := &LoginView{theme: theme}

	options := make([]string, len(model.AvatarColors))
	for i, c := range model.AvatarColors {
		options[i] = "[" + c + "]██[-] " + avatarNames[i]
	}

	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Welcome ")
	form.SetTitleColor(theme.TitleColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)

	form.AddInputField("Your name", "", 32, nil, nil)
	form.AddDropDown("Avatar", options, 0, func(_ string, index int) {
		lv.avatar = index
	})
	form.AddButton("Start messaging", lv.submit)
	lv.form = form

	intro := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("\n[::b]Enter your name to get started[::-]\nEverything stays on this machine.")
	intro.SetBackgroundColor(theme.BgColor)
	intro.SetTextColor(theme.MutedColor)

	column := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(intro, 4, 0, false).
		AddItem(form, 9, 0, true).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(column, 52, 0, true).
		AddItem(nil, 0, 1, false)
	return lv
}

func (lv *LoginView) Name() string { return "Login" }

func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnLogin sets the callback run with a non-blank name.
func (lv *LoginView) SetOnLogin(fn func(name string, avatar int)) {
	lv.onLogin = fn
}

// Reset clears the form.
func (lv *LoginView) Reset() {
	lv.nameField().SetText("")
	if dd, ok := lv.form.GetFormItem(1).(*tview.DropDown); ok {
		dd.SetCurrentOption(0)
	}
	lv.avatar = 0
	lv.form.SetFocus(0)
}

// EnteredName returns the typed name with surrounding space removed.
func (lv *LoginView) EnteredName() string {
	return strings.TrimSpace(lv.nameField().GetText())
}

func (lv *LoginView) nameField() *tview.InputField {
	return lv.form.GetFormItem(0).(*tview.InputField)
}

func (lv *LoginView) submit() {
	name := lv.EnteredName()
	if name == "" || lv.onLogin == nil {
		return
	}
	lv.onLogin(name, lv.avatar)
}
