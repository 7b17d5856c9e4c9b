package turn

import (
	"sync"

	"github.com/google/uuid"
)

// EndTurnResult reports whether a turn-end signal was committed or discarded.
type EndTurnResult int

const (
	Accept EndTurnResult = iota
	Duplicate
)

func (r EndTurnResult) String() string {
	if r == Duplicate {
		return "DUPLICATE"
	}
	return "ACCEPT"
}

// Tracker records the active turn id for one session and suppresses
// retransmitted turn-end signals. Turn ids are client-supplied opaque
// strings; when the client omits one a uuid is generated so dedup still
// works.
type Tracker struct {
	mu          sync.Mutex
	current     string
	lastHandled string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// StartTurn records a new active turn id and returns it.
func (t *Tracker) StartTurn(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	t.mu.Lock()
	t.current = id
	t.mu.Unlock()
	return id
}

// EndTurn resolves observed and immediately commits it as the most
// recently completed turn. Returns Duplicate, without committing, when
// it matches the already-committed id.
func (t *Tracker) EndTurn(observed string) (string, EndTurnResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, result := t.resolveLocked(observed)
	if result == Accept {
		t.commitLocked(id)
	}
	return id, result
}

// ResolveEnd resolves which turn id a turn-end signal refers to and
// whether it duplicates the last committed turn, without committing.
// The caller commits with CommitEnd once the turn is actually accepted,
// so a signal rejected mid-response does not consume the id.
func (t *Tracker) ResolveEnd(observed string) (string, EndTurnResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveLocked(observed)
}

// CommitEnd records id as the most recently completed turn.
func (t *Tracker) CommitEnd(id string) {
	t.mu.Lock()
	t.commitLocked(id)
	t.mu.Unlock()
}

// resolveLocked falls back from an empty observed id to the active turn
// id, then to a generated one.
func (t *Tracker) resolveLocked(observed string) (string, EndTurnResult) {
	if observed == "" {
		observed = t.current
	}
	if observed == "" {
		observed = uuid.NewString()
	}
	if observed == t.lastHandled {
		return observed, Duplicate
	}
	return observed, Accept
}

func (t *Tracker) commitLocked(id string) {
	t.lastHandled = id
	t.current = ""
}

// CurrentTurn returns the active turn id, if any.
func (t *Tracker) CurrentTurn() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// LastHandled returns the id of the most recently completed turn.
func (t *Tracker) LastHandled() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastHandled
}
