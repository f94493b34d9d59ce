// Package session holds the logged-in user's working set and every
// operation the UI performs on it.
//
// A Manager owns the lifecycle (restore, login, logout). Each login or
// restore creates a new *Session, which consumers hold directly; logout closes
// it, after which its mutating operations do nothing.
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/config"
	"github.com/aboucelia/chatapp/internal/delivery"
	"github.com/aboucelia/chatapp/internal/fixture"
	"github.com/aboucelia/chatapp/internal/model"
	"github.com/aboucelia/chatapp/internal/persist"
	"github.com/aboucelia/chatapp/internal/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotLoggedIn is returned by operations that require an open session.
	ErrNotLoggedIn = errors.New("user not logged in")
	// ErrNoParticipants is returned by CreateChat when there is nobody to
	// chat with and no group name.
	ErrNoParticipants = errors.New("chat needs a participant or a group name")
)

// Options tunes a Manager. Zero fields take defaults.
type Options struct {
	// DeliveryDelay is how long a sent message stays "sent".
	DeliveryDelay time.Duration
	Now           func() time.Time
	NewID         func() string
	// Intn returns a value in [0, n); used to pick group avatars.
	Intn func(n int) int
}

func (o *Options) applyDefaults() {
	if o.DeliveryDelay <= 0 {
		o.DeliveryDelay = config.DefaultDeliveryDelay
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Intn == nil {
		o.Intn = rand.Intn
	}
}

// deps is what every Session shares with its Manager.
type deps struct {
	facade *persist.Facade
	sched  *delivery.Scheduler
	bus    *bus.Bus
	logger *zap.Logger
	opts   Options
}

// Manager restores, creates, and tears down sessions.
type Manager struct {
	mu      sync.Mutex
	deps    *deps
	machine *status.Machine
	current *Session
}

// NewManager creates a Manager in the Loading state. Call Init before use.
func NewManager(f *persist.Facade, m *status.Machine, sched *delivery.Scheduler, b *bus.Bus, logger *zap.Logger, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		deps: &deps{
			facade: f,
			sched:  sched,
			bus:    b,
			logger: logger,
			opts:   opts,
		},
		machine: m,
	}
}

// State returns the lifecycle state.
func (m *Manager) State() status.State {
	return m.machine.Current()
}

// Current returns the open session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Init restores a persisted session if there is one. Empty persisted
// collections fall back to freshly generated fixtures. Read failures count
// as "nothing persisted".
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.deps.facade
	u := f.User(ctx)
	if u == nil {
		m.deps.logger.Info("no persisted user, login required")
		return m.machine.Transition(status.LoggedOut)
	}

	now := m.deps.opts.Now()
	contacts := f.Contacts(ctx)
	if len(contacts) == 0 {
		contacts = fixture.Contacts(now)
	}
	chats := f.Chats(ctx)
	if len(chats) == 0 {
		chats = fixture.Chats(u.ID, now)
	}
	calls := f.Calls(ctx)
	if len(calls) == 0 {
		calls = fixture.Calls(now)
	}
	statuses := f.Statuses(ctx)
	if len(statuses) == 0 {
		statuses = fixture.Statuses(now)
	}

	m.current = newSession(m.deps, *u, contacts, chats, calls, statuses)
	m.deps.logger.Info("session restored",
		zap.String("user_id", u.ID),
		zap.Int("chats", len(chats)),
		zap.Int("contacts", len(contacts)),
	)
	return m.machine.Transition(status.LoggedIn)
}

// Login creates a new account with a generated id, seeds storage with the
// fixture dataset, and opens a session for it. Inputs are not validated.
// Logging in while a session is open replaces that session.
func (m *Manager) Login(ctx context.Context, name string, avatar int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deps
	now := d.opts.Now()
	user := model.User{
		ID:     d.opts.NewID(),
		Name:   name,
		Avatar: avatar,
		Status: fixture.DefaultStatus,
	}
	contacts := fixture.Contacts(now)
	chats := fixture.Chats(user.ID, now)
	calls := fixture.Calls(now)
	statuses := fixture.Statuses(now)

	d.facade.SetUser(ctx, &user)
	d.facade.SetContacts(ctx, contacts)
	d.facade.SetChats(ctx, chats)
	d.facade.SetCalls(ctx, calls)
	d.facade.SetStatuses(ctx, statuses)

	// Groups start without history.
	for _, c := range chats {
		if c.Type != model.ChatIndividual {
			continue
		}
		for _, p := range c.Participants {
			if p != user.ID {
				d.facade.SetMessages(ctx, c.ID, fixture.Messages(c.ID, user.ID, p, now, d.opts.NewID))
				break
			}
		}
	}

	if m.current != nil {
		m.current.close()
		d.sched.CancelAll()
	}
	m.current = newSession(d, user, contacts, chats, calls, statuses)
	d.logger.Info("logged in", zap.String("user_id", user.ID))

	if m.machine.Current() != status.LoggedIn {
		if err := m.machine.Transition(status.LoggedIn); err != nil {
			return nil, err
		}
	}
	return m.current, nil
}

// Logout closes the open session, cancels pending deliveries, and erases
// every persisted key in the app namespace. It cannot be undone.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.close()
		m.current = nil
	}
	if n := m.deps.sched.CancelAll(); n > 0 {
		m.deps.logger.Debug("cancelled pending deliveries", zap.Int("count", n))
	}
	m.deps.facade.ClearAll(ctx)
	m.deps.logger.Info("logged out")

	if m.machine.Current() == status.LoggedOut {
		return nil
	}
	return m.machine.Transition(status.LoggedOut)
}
