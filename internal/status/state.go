package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aboucelia/chatapp/internal/bus"
)

// State is the session lifecycle state.
type State string

const (
	Loading   State = "LOADING"
	LoggedOut State = "LOGGED_OUT"
	LoggedIn  State = "LOGGED_IN"
)

// validTransitions defines allowed state transitions. There is no error
// state: failed reads during Loading resolve to LoggedOut.
var validTransitions = map[State][]State{
	Loading:   {LoggedIn, LoggedOut},
	LoggedOut: {LoggedIn},
	LoggedIn:  {LoggedOut},
}

// Machine tracks and enforces session lifecycle transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Loading state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Loading,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
