package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/status"
	"github.com/aboucelia/chatapp/internal/tui/keys"
	"github.com/aboucelia/chatapp/internal/tui/ui"
	"github.com/aboucelia/chatapp/internal/tui/viewmodel"
	"github.com/aboucelia/chatapp/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Page keys.
const (
	pageLogin    = "login"
	pageChats    = "chats"
	pageChat     = "chat"
	pageDetails  = "details"
	pageContacts = "contacts"
	pageCalls    = "calls"
	pageStatus   = "status"
	pageSettings = "settings"
	pageHelp     = "help"
)

const promptHeight = 3

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	vm       *viewmodel.ViewModel
	profile  string
	theme    *ui.Theme
	registry *keys.Registry

	root     *tview.Flex
	header   *ui.Header
	prompt   *ui.Prompt
	pages    *ui.Pages
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar

	login    *views.LoginView
	list     *views.ConversationList
	thread   *views.MessageThread
	info     *views.ConversationInfo
	contacts *views.ContactsView
	calls    *views.CallsView
	statuses *views.StatusView
	settings *views.SettingsView
	help     *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// NewApp creates the TUI application over vm. profile is shown in the
// header.
func NewApp(vm *viewmodel.ViewModel, profile string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		vm:       vm,
		profile:  profile,
		theme:    theme,
		registry: keys.NewRegistry(),
		header:   ui.NewHeader(theme),
		prompt:   ui.NewPrompt(theme),
		pages:    ui.NewPages(),
		crumbs:   ui.NewCrumbs(theme),
		flashBar: ui.NewFlashBar(theme),
		login:    views.NewLoginView(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		info:     views.NewConversationInfo(theme),
		contacts: views.NewContactsView(theme),
		calls:    views.NewCallsView(theme),
		statuses: views.NewStatusView(theme),
		settings: views.NewSettingsView(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	bind := func(r rune, desc string, fn func()) *keys.Action {
		return &keys.Action{Key: tcell.KeyRune, Rune: r, Description: desc, Visible: true, Handler: fn}
	}

	a.registry.AddGlobal("command", bind(':', ":command", func() { a.showPrompt(ui.PromptCommand) }))
	a.registry.AddGlobal("help", bind('?', "?:help", func() { a.pages.Push(pageHelp) }))
	a.registry.AddGlobal("quit", bind('q', "q:back", func() {
		if a.pages.Depth() > 1 {
			a.back()
			return
		}
		a.Stop()
	}))

	a.registry.AddView(pageChats, "filter", bind('/', "/:filter", func() { a.showPrompt(ui.PromptFilter) }))
	a.registry.AddView(pageChats, "new", bind('n', "n:new chat", func() { a.showContacts() }))
	a.registry.AddView(pageChats, "read", bind('r', "r:mark read", func() { a.markRead(a.list.SelectedChat()) }))
	a.registry.AddView(pageChats, "calls", bind('c', "c:calls", func() { a.pages.Push(pageCalls) }))
	a.registry.AddView(pageChats, "status", bind('t', "t:status", func() { a.pages.Push(pageStatus) }))
	a.registry.AddView(pageChats, "settings", bind('p', "p:settings", func() { a.pages.Push(pageSettings) }))
	for i := 1; i <= 9; i++ {
		n := i
		a.registry.AddView(pageChats, "jump"+strconv.Itoa(n), &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() { a.openChat(a.list.ChatByIndex(n)) },
		})
	}

	a.registry.AddView(pageChat, "compose", bind('i', "i:compose", func() { a.app.SetFocus(a.thread.Composer()) }))
	a.registry.AddView(pageChat, "details", bind('d', "d:details", func() { a.pages.Push(pageDetails) }))

	a.registry.AddView(pageContacts, "mark", bind(' ', "space:mark", func() { a.contacts.ToggleMark() }))
	a.registry.AddView(pageContacts, "search", bind('/', "/:search", func() { a.app.SetFocus(a.contacts.Input()) }))
}

func (a *App) setupCallbacks() {
	a.login.SetOnLogin(func(name string, avatar int) {
		a.run(func(ctx context.Context) error {
			return a.vm.Login(ctx, name, avatar)
		})
	})

	a.list.SetSelectedFunc(func(row, _ int) {
		a.openChat(a.list.ChatByIndex(row))
	})

	a.thread.SetOnSend(func(text string) {
		go a.vm.Send(a.ctx, text)
	})

	a.contacts.SetOnQuery(func(string) { a.renderContacts() })
	a.contacts.SetOnSearchDone(func() { a.app.SetFocus(a.contacts.Table()) })
	a.contacts.SetOnOpen(func(contactID string) {
		a.run(func(ctx context.Context) error {
			c, err := a.vm.StartChat(ctx, contactID)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.showChat(c.ID) })
			return nil
		})
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.list.SetFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptCommand {
			a.execute(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.SetFilter("")
		}
		a.hidePrompt()
	})

	a.pages.SetOnChange(func(top ui.Component) {
		a.header.SetHints(top.Hints())
		a.crumbs.Update(a.pages.Titles())
		a.render(a.pages.CurrentKey())
		a.focusPage()
	})
}

func (a *App) setupLayout() {
	a.pages.Register(pageLogin, a.login)
	a.pages.Register(pageChats, a.list)
	a.pages.Register(pageChat, a.thread)
	a.pages.Register(pageDetails, a.info)
	a.pages.Register(pageContacts, a.contacts)
	a.pages.Register(pageCalls, a.calls)
	a.pages.Register(pageStatus, a.statuses)
	a.pages.Register(pageSettings, a.settings)
	a.pages.Register(pageHelp, a.help)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 5, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}

	page := a.pages.CurrentKey()
	focused := a.app.GetFocus()

	// The prompt and the login form handle their own keys.
	if focused == a.prompt.InputField || page == pageLogin {
		return event
	}

	if _, ok := focused.(*tview.InputField); ok {
		if event.Key() == tcell.KeyEscape {
			a.focusPage()
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}

	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	if mode == ui.PromptFilter {
		a.prompt.SetText(a.list.Filter())
	}
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

func (a *App) focusPage() {
	switch a.pages.CurrentKey() {
	case pageChat:
		a.app.SetFocus(a.thread.Messages())
	case pageContacts:
		a.app.SetFocus(a.contacts.Table())
	default:
		if top := a.pages.Current(); top != nil {
			a.app.SetFocus(top)
		}
	}
}

func (a *App) back() {
	if a.pages.Pop() == pageChat {
		a.vm.CloseChat()
	}
}

// run performs fn off the UI goroutine and reports its error as a flash.
func (a *App) run(fn func(ctx context.Context) error) {
	go func() {
		if err := fn(a.ctx); err != nil {
			a.vm.Flash.Err(err)
		}
		a.app.QueueUpdateDraw(a.refresh)
	}()
}

func (a *App) openChat(chatID string) {
	if chatID == "" {
		return
	}
	if _, ok := a.vm.OpenChat(a.ctx, chatID); !ok {
		a.vm.Flash.Warn("Chat not found")
		a.updateFlash()
		return
	}
	a.showChat(chatID)
}

func (a *App) showChat(chatID string) {
	if a.vm.ActiveChatID() != chatID {
		if _, ok := a.vm.OpenChat(a.ctx, chatID); !ok {
			return
		}
	}
	a.pages.Reset(pageChats)
	a.pages.Push(pageChat)
}

func (a *App) showContacts() {
	a.contacts.Reset()
	a.pages.Push(pageContacts)
}

func (a *App) markRead(chatID string) {
	s := a.vm.Session()
	if s == nil || chatID == "" {
		return
	}
	go s.MarkChatAsRead(a.ctx, chatID)
}

func (a *App) execute(cmd Command) {
	s := a.vm.Session()
	if s == nil && cmd.Canonical() != "quit" && cmd.Canonical() != "help" {
		a.vm.Flash.Warn("Log in first")
		a.updateFlash()
		return
	}

	switch cmd.Canonical() {
	case "":
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push(pageHelp)
	case "chats":
		a.vm.CloseChat()
		a.pages.Reset(pageChats)
	case "contacts":
		a.showContacts()
	case "calls":
		a.pages.Push(pageCalls)
	case "statuses":
		a.pages.Push(pageStatus)
	case "settings":
		a.pages.Push(pageSettings)
	case "logout":
		a.run(a.vm.Logout)
	case "name", "about", "phone":
		if cmd.Args == "" && cmd.Canonical() == "name" {
			a.vm.Flash.Warn("usage: :name <text>")
			break
		}
		var upd session.ProfileUpdate
		switch cmd.Canonical() {
		case "name":
			upd.Name = &cmd.Args
		case "about":
			upd.Status = &cmd.Args
		case "phone":
			upd.Phone = &cmd.Args
		}
		a.run(func(ctx context.Context) error {
			s.UpdateProfile(ctx, upd)
			a.vm.Flash.Info("Profile updated")
			return nil
		})
	case "avatar":
		n, err := strconv.Atoi(cmd.Args)
		if err != nil || n < 0 || n >= len(model.AvatarColors) {
			a.vm.Flash.Warn(fmt.Sprintf("usage: :avatar <0-%d>", len(model.AvatarColors)-1))
			break
		}
		a.run(func(ctx context.Context) error {
			s.UpdateProfile(ctx, session.ProfileUpdate{Avatar: &n})
			return nil
		})
	case "chat":
		matches := s.SearchContacts(cmd.Args)
		if cmd.Args == "" || len(matches) == 0 {
			a.vm.Flash.Warn("No contact matches " + strconv.Quote(cmd.Args))
			break
		}
		contactID := matches[0].ID
		a.run(func(ctx context.Context) error {
			c, err := a.vm.StartChat(ctx, contactID)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.showChat(c.ID) })
			return nil
		})
	case "group":
		marked := a.contacts.Marked()
		if cmd.Args == "" || len(marked) == 0 {
			a.vm.Flash.Warn("Mark contacts with Space, then :group <name>")
			break
		}
		name := cmd.Args
		a.run(func(ctx context.Context) error {
			c, err := a.vm.CreateGroup(ctx, name, marked)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() {
				a.contacts.Reset()
				a.showChat(c.ID)
			})
			return nil
		})
	case "read":
		id := a.vm.ActiveChatID()
		if a.pages.CurrentKey() == pageChats {
			id = a.list.SelectedChat()
		}
		a.markRead(id)
	case "delete":
		if a.vm.ActiveChatID() == "" {
			a.vm.Flash.Warn("Open a chat to delete it")
			break
		}
		a.run(func(ctx context.Context) error {
			if !a.vm.DeleteActiveChat(ctx) {
				return errors.New("chat not found")
			}
			a.vm.Flash.Info("Chat deleted")
			return nil
		})
	default:
		a.vm.Flash.Warn("Unknown command: " + cmd.Name)
	}
	a.updateFlash()
}

// refresh reconciles the page stack with the session state and redraws the
// visible page. It runs on the UI goroutine.
func (a *App) refresh() {
	loggedIn := a.vm.State() == status.LoggedIn && a.vm.Session() != nil
	switch page := a.pages.CurrentKey(); {
	case !loggedIn && a.vm.State() != status.Loading && page != pageLogin:
		a.vm.CloseChat()
		a.contacts.Reset()
		a.login.Reset()
		a.pages.Reset(pageLogin)
	case loggedIn && (page == pageLogin || page == ""):
		a.pages.Reset(pageChats)
	case loggedIn && (page == pageChat || page == pageDetails):
		if _, ok := a.vm.ActiveChat(); !ok {
			a.vm.CloseChat()
			a.pages.Reset(pageChats)
		}
	}

	a.header.SetProfile(a.vm.Profile(a.profile))
	a.render(a.pages.CurrentKey())
	a.updateFlash()
}

func (a *App) render(page string) {
	s := a.vm.Session()
	if s == nil {
		return
	}
	now := a.now()
	me := s.User()

	switch page {
	case pageChats:
		chats := a.vm.Chats()
		rows := make([]views.ChatRow, len(chats))
		for i, c := range chats {
			rows[i] = views.ChatRow{Chat: c, Title: s.ChatTitle(c), Others: s.ChatParticipants(c)}
		}
		a.list.Update(rows, me.ID, now)
	case pageChat:
		chat, ok := a.vm.ActiveChat()
		if !ok {
			return
		}
		a.thread.SetChat(s.ChatTitle(chat), a.chatSubtitle(s, chat, now))
		senderName := func(id string) string {
			if u, ok := s.ContactByID(id); ok {
				return u.Name
			}
			return "Unknown"
		}
		a.thread.Update(a.vm.Messages(a.ctx), me.ID, senderName, now)
		if chat.UnreadCount > 0 {
			go s.MarkChatAsRead(a.ctx, chat.ID)
		}
	case pageDetails:
		if chat, ok := a.vm.ActiveChat(); ok {
			a.info.Update(chat, s.ChatTitle(chat), s.ChatParticipants(chat), now)
		}
	case pageContacts:
		a.renderContacts()
	case pageCalls:
		a.calls.Update(s.Calls(), s.ContactByID, now)
	case pageStatus:
		a.statuses.Update(me, s.ActiveStatuses(now), s.ContactByID, now)
	case pageSettings:
		a.settings.Update(me, a.profile)
	}
}

func (a *App) renderContacts() {
	s := a.vm.Session()
	if s == nil {
		return
	}
	a.contacts.Update(s.SearchContacts(a.contacts.Input().GetText()), a.now())
}

func (a *App) chatSubtitle(s *session.Session, chat model.Chat, now time.Time) string {
	others := s.ChatParticipants(chat)
	if chat.IsGroup() {
		names := make([]string, 0, len(others)+1)
		for _, u := range others {
			names = append(names, u.Name)
		}
		return strings.Join(append(names, "You"), ", ")
	}
	if len(others) == 1 {
		return views.Presence(others[0], now)
	}
	return ""
}

func (a *App) updateFlash() {
	a.flashBar.Update(a.vm.Flash.Current())
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.vm.Watch(a.ctx)
	a.refresh()
	go a.refreshLoop()
	return a.app.Run()
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.refresh)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.updateFlash)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
