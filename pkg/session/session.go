// Package session holds the per-connection conversation state: the turn
// state machine, the turn tracker, the transcript buffer and the handle
// to the connection's STT stream.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/metrics"
	"github.com/fauzanhilmi/vocalis/pkg/protocol"
	"github.com/fauzanhilmi/vocalis/pkg/stt"
	"github.com/fauzanhilmi/vocalis/pkg/turn"
)

// EventSink delivers frames to the client. Implementations serialize
// their own writes.
type EventSink interface {
	SendEvent(ev protocol.ServerEvent) error
	SendAudio(chunk []byte) error
}

// Session is the state for one websocket connection.
type Session struct {
	ID       string
	Machine  *turn.Machine
	Tracker  *turn.Tracker
	STT      stt.Stream
	Observer metrics.Observer

	sink   EventSink
	logger *slog.Logger

	mu      sync.Mutex
	partial string
	finals  []string

	turnMu     sync.Mutex
	turnCancel context.CancelFunc

	alive atomic.Bool
}

func New(sink EventSink, sttStream stt.Stream, observer metrics.Observer) *Session {
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	s := &Session{
		ID:       uuid.NewString(),
		Machine:  turn.NewMachine(),
		Tracker:  turn.NewTracker(),
		STT:      sttStream,
		Observer: observer,
		sink:     sink,
	}
	s.logger = logging.NewComponentLogger(slog.Default(), "session").With(slog.String("session_id", s.ID))
	s.Machine.AddListener(stateEmitter{s})
	s.alive.Store(true)
	return s
}

// stateEmitter mirrors every state change to the client.
type stateEmitter struct{ s *Session }

func (e stateEmitter) OnStateChange(ev turn.StateChange) {
	e.s.logger.Debug("state change",
		slog.String("from", ev.FromState.String()),
		slog.String("to", ev.ToState.String()),
		slog.String("reason", ev.Reason))
	e.s.Emit(protocol.StateEvent(ev.ToState.String()))
}

// Emit sends a server event, logging send failures instead of returning
// them; a dying connection is detected by the read loop.
func (s *Session) Emit(ev protocol.ServerEvent) {
	if s.sink == nil {
		return
	}
	if err := s.sink.SendEvent(ev); err != nil {
		s.logger.Warn("event send failed",
			slog.String("event", ev.Type),
			slog.String("error", err.Error()))
	}
}

// SendAudio forwards a synthesized chunk to the client.
func (s *Session) SendAudio(chunk []byte) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.SendAudio(chunk)
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// OnTranscript folds an STT update into the transcript buffer and
// mirrors it to the client.
func (s *Session) OnTranscript(res stt.Result) {
	if res.Text == "" {
		return
	}
	s.mu.Lock()
	if res.IsFinal {
		s.finals = append(s.finals, res.Text)
		s.partial = ""
	} else {
		s.partial = res.Text
	}
	s.mu.Unlock()

	if res.IsFinal {
		s.Emit(protocol.TranscriptFinalEvent(res.Text))
		s.Observer.RecordEvent(metrics.Event(metrics.MarkSTTFinal, s.ID, s.Tracker.CurrentTurn()))
	} else {
		s.Emit(protocol.TranscriptPartialEvent(res.Text))
	}
}

// TakeTranscript drains the buffered utterance. Finalized segments are
// joined in arrival order; a trailing partial is included so a turn end
// that races the last final still captures the words.
func (s *Session) TakeTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := s.finals
	if s.partial != "" {
		parts = append(parts, s.partial)
	}
	s.finals = nil
	s.partial = ""
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ClearTranscript discards buffered speech, used on barge-in.
func (s *Session) ClearTranscript() {
	s.mu.Lock()
	s.finals = nil
	s.partial = ""
	s.mu.Unlock()
}

// BeginTurn derives the cancellable context for a turn's pipeline run.
// Starting a new turn cancels any run still in flight.
func (s *Session) BeginTurn(parent context.Context) context.Context {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if s.turnCancel != nil {
		s.turnCancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.turnCancel = cancel
	return ctx
}

// CancelTurn aborts the in-flight pipeline run, if any.
func (s *Session) CancelTurn() {
	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	s.turnMu.Unlock()
}

// MarkAlive records liveness, called on pong.
func (s *Session) MarkAlive() { s.alive.Store(true) }

// CheckAlive consumes the liveness flag for one heartbeat sweep. It
// returns false when no pong arrived since the previous sweep.
func (s *Session) CheckAlive() bool {
	return s.alive.Swap(false)
}
