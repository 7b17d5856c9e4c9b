package turn

import (
	"sync"
	"time"
)

type State int

const (
	StateListening State = iota
	StateThinking
	StateSpeaking
)

// String returns the wire representation of a State.
func (s State) String() string {
	switch s {
	case StateListening:
		return "LISTENING"
	case StateThinking:
		return "THINKING"
	case StateSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// StateChange represents a state transition event.
type StateChange struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes session state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// validTransitions is the edge set of the session state machine. A barge-in
// bypasses it via ForceListening, which is legal from every state.
var validTransitions = map[State][]State{
	StateListening: {StateThinking},
	StateThinking:  {StateSpeaking, StateListening},
	StateSpeaking:  {StateListening},
}

// Machine is the per-session finite state machine. The initial state is
// LISTENING; there is no terminal state while the connection is open.
type Machine struct {
	mu        sync.RWMutex
	current   State
	listeners []StateListener
}

func NewMachine() *Machine {
	return &Machine{current: StateListening}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state, rejecting edges outside the table.
func (m *Machine) Transition(to State, reason string) error {
	m.mu.Lock()
	from := m.current
	if !transitionValid(from, to) {
		m.mu.Unlock()
		return &InvalidTransitionError{From: from, To: to}
	}
	m.current = to
	listeners := make([]StateListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	notify(listeners, StateChange{FromState: from, ToState: to, Timestamp: time.Now(), Reason: reason})
	return nil
}

// ForceListening resets the machine to LISTENING regardless of the current
// state. Used for barge-in, which is legal everywhere.
func (m *Machine) ForceListening(reason string) {
	m.mu.Lock()
	from := m.current
	m.current = StateListening
	listeners := make([]StateListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	if from == StateListening {
		return
	}
	notify(listeners, StateChange{FromState: from, ToState: StateListening, Timestamp: time.Now(), Reason: reason})
}

// AddListener registers a listener for state change events.
func (m *Machine) AddListener(listener StateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

func transitionValid(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func notify(listeners []StateListener, event StateChange) {
	for _, l := range listeners {
		l.OnStateChange(event)
	}
}
