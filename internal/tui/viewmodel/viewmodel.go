// Package viewmodel adapts the session layer for the terminal UI: it
// tracks which chat is open and turns bus events into refresh signals.
package viewmodel

import (
	"context"
	"sync"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/status"
	"github.com/aboucelia/chatapp/internal/tui/ui"
)

// Manager is the part of session.Manager the UI drives.
type Manager interface {
	State() status.State
	Current() *session.Session
	Login(ctx context.Context, name string, avatar int) (*session.Session, error)
	Logout(ctx context.Context) error
}

// ViewModel holds UI state that outlives a single page and signals when
// the pages need to redraw.
type ViewModel struct {
	mu sync.RWMutex

	mgr          Manager
	bus          *bus.Bus
	activeChatID string
	Flash        *ui.Flash

	refreshCh chan struct{}
}

// New creates a view model over mgr.
func New(mgr Manager, b *bus.Bus) *ViewModel {
	return &ViewModel{
		mgr:       mgr,
		bus:       b,
		Flash:     ui.NewFlash(),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh signals that session data changed. Signals coalesce.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Watch forwards every bus event as a refresh signal until ctx is done.
func (vm *ViewModel) Watch(ctx context.Context) {
	events, unsub := vm.bus.Subscribe("", 64)
	go func() {
		defer unsub()
		for {
			select {
			case <-events:
				vm.signalRefresh()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// State returns the session lifecycle state.
func (vm *ViewModel) State() status.State {
	return vm.mgr.State()
}

// Session returns the open session, or nil.
func (vm *ViewModel) Session() *session.Session {
	return vm.mgr.Current()
}

// Login creates an account and opens its session.
func (vm *ViewModel) Login(ctx context.Context, name string, avatar int) error {
	if _, err := vm.mgr.Login(ctx, name, avatar); err != nil {
		return err
	}
	vm.setActive("")
	vm.Flash.Info("Welcome, " + name)
	return nil
}

// Logout ends the session and erases local data.
func (vm *ViewModel) Logout(ctx context.Context) error {
	vm.setActive("")
	return vm.mgr.Logout(ctx)
}

// Chats returns the chats newest first, or nil when logged out.
func (vm *ViewModel) Chats() []model.Chat {
	s := vm.Session()
	if s == nil {
		return nil
	}
	return s.Chats()
}

// OpenChat makes chatID the active chat and marks it read.
func (vm *ViewModel) OpenChat(ctx context.Context, chatID string) (model.Chat, bool) {
	s := vm.Session()
	if s == nil {
		return model.Chat{}, false
	}
	if _, ok := s.Chat(chatID); !ok {
		return model.Chat{}, false
	}
	vm.setActive(chatID)
	s.MarkChatAsRead(ctx, chatID)
	c, _ := s.Chat(chatID)
	return c, true
}

// CloseChat clears the active chat.
func (vm *ViewModel) CloseChat() {
	vm.setActive("")
}

// ActiveChat returns the open chat, if it still exists.
func (vm *ViewModel) ActiveChat() (model.Chat, bool) {
	s := vm.Session()
	id := vm.ActiveChatID()
	if s == nil || id == "" {
		return model.Chat{}, false
	}
	return s.Chat(id)
}

// ActiveChatID returns the id of the open chat, or "".
func (vm *ViewModel) ActiveChatID() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeChatID
}

func (vm *ViewModel) setActive(id string) {
	vm.mu.Lock()
	vm.activeChatID = id
	vm.mu.Unlock()
}

// Messages returns the active chat's history.
func (vm *ViewModel) Messages(ctx context.Context) []model.Message {
	s := vm.Session()
	id := vm.ActiveChatID()
	if s == nil || id == "" {
		return nil
	}
	return s.Messages(ctx, id)
}

// Send sends text to the active chat.
func (vm *ViewModel) Send(ctx context.Context, text string) {
	s := vm.Session()
	id := vm.ActiveChatID()
	if s == nil || id == "" {
		return
	}
	if _, err := s.SendMessage(ctx, id, text); err != nil {
		vm.Flash.Err(err)
	}
}

// StartChat opens (or reuses) an individual chat with contactID.
func (vm *ViewModel) StartChat(ctx context.Context, contactID string) (model.Chat, error) {
	s := vm.Session()
	if s == nil {
		return model.Chat{}, session.ErrNotLoggedIn
	}
	c, err := s.CreateChat(ctx, []string{contactID}, "")
	if err != nil {
		return model.Chat{}, err
	}
	vm.setActive(c.ID)
	return *c, nil
}

// CreateGroup creates a group with the given contacts.
func (vm *ViewModel) CreateGroup(ctx context.Context, name string, contactIDs []string) (model.Chat, error) {
	s := vm.Session()
	if s == nil {
		return model.Chat{}, session.ErrNotLoggedIn
	}
	c, err := s.CreateChat(ctx, contactIDs, name)
	if err != nil {
		return model.Chat{}, err
	}
	vm.setActive(c.ID)
	vm.Flash.Info("Group " + name + " created")
	return *c, nil
}

// DeleteActiveChat deletes the open chat.
func (vm *ViewModel) DeleteActiveChat(ctx context.Context) bool {
	s := vm.Session()
	id := vm.ActiveChatID()
	if s == nil || id == "" {
		return false
	}
	s.DeleteChat(ctx, id)
	vm.setActive("")
	return true
}

// Profile returns header data for the current state.
func (vm *ViewModel) Profile(profile string) *ui.ProfileData {
	d := &ui.ProfileData{Profile: profile, State: string(vm.State())}
	s := vm.Session()
	if s == nil {
		return d
	}
	u := s.User()
	d.User = u.Name
	d.Phone = u.Phone
	chats := s.Chats()
	d.Chats = len(chats)
	for _, c := range chats {
		d.Unread += c.UnreadCount
	}
	return d
}
