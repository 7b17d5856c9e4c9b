package session

import (
	"context"
	"sync"
	"testing"

	"github.com/fauzanhilmi/vocalis/pkg/protocol"
	"github.com/fauzanhilmi/vocalis/pkg/stt"
	"github.com/fauzanhilmi/vocalis/pkg/turn"
)

type recordingSink struct {
	mu     sync.Mutex
	events []protocol.ServerEvent
	audio  [][]byte
}

func (r *recordingSink) SendEvent(ev protocol.ServerEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) SendAudio(chunk []byte) error {
	r.mu.Lock()
	r.audio = append(r.audio, chunk)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func TestStateChangesMirroredToClient(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, nil, nil)

	if err := s.Machine.Transition(turn.StateThinking, "turn end"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := s.Machine.Transition(turn.StateSpeaking, "first token"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	types := sink.eventTypes()
	if len(types) != 2 || types[0] != protocol.TypeState || types[1] != protocol.TypeState {
		t.Fatalf("expected two state events, got %v", types)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.events[0].Value != "THINKING" || sink.events[1].Value != "SPEAKING" {
		t.Fatalf("unexpected state values %v", sink.events)
	}
}

func TestTranscriptBuffering(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, nil, nil)

	s.OnTranscript(stt.Result{Text: "what is", IsFinal: false})
	s.OnTranscript(stt.Result{Text: "what is the weather", IsFinal: true})
	s.OnTranscript(stt.Result{Text: "today", IsFinal: true})

	if got := s.TakeTranscript(); got != "what is the weather today" {
		t.Fatalf("unexpected transcript %q", got)
	}
	if got := s.TakeTranscript(); got != "" {
		t.Fatalf("transcript not drained, got %q", got)
	}

	types := sink.eventTypes()
	want := []string{protocol.TypeTranscriptPartial, protocol.TypeTranscriptFinal, protocol.TypeTranscriptFinal}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestTakeTranscriptIncludesTrailingPartial(t *testing.T) {
	s := New(&recordingSink{}, nil, nil)
	s.OnTranscript(stt.Result{Text: "hello there", IsFinal: false})
	if got := s.TakeTranscript(); got != "hello there" {
		t.Fatalf("expected trailing partial captured, got %q", got)
	}
}

func TestClearTranscript(t *testing.T) {
	s := New(&recordingSink{}, nil, nil)
	s.OnTranscript(stt.Result{Text: "discard me", IsFinal: true})
	s.ClearTranscript()
	if got := s.TakeTranscript(); got != "" {
		t.Fatalf("expected cleared transcript, got %q", got)
	}
}

func TestBeginTurnCancelsPrevious(t *testing.T) {
	s := New(&recordingSink{}, nil, nil)
	first := s.BeginTurn(context.Background())
	second := s.BeginTurn(context.Background())
	select {
	case <-first.Done():
	default:
		t.Fatal("starting a new turn must cancel the previous run")
	}
	select {
	case <-second.Done():
		t.Fatal("fresh turn context must be live")
	default:
	}

	s.CancelTurn()
	select {
	case <-second.Done():
	default:
		t.Fatal("CancelTurn must cancel the active run")
	}
}

func TestCheckAliveConsumesFlag(t *testing.T) {
	s := New(&recordingSink{}, nil, nil)
	if !s.CheckAlive() {
		t.Fatal("new session must start alive")
	}
	if s.CheckAlive() {
		t.Fatal("second sweep without a pong must report dead")
	}
	s.MarkAlive()
	if !s.CheckAlive() {
		t.Fatal("pong must restore liveness")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := New(&recordingSink{}, nil, nil)
	r.Insert(s)
	if r.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", r.Len())
	}
	if got, ok := r.Get(s.ID); !ok || got != s {
		t.Fatal("expected to find inserted session")
	}
	if !r.Remove(s.ID) {
		t.Fatal("first remove must report presence")
	}
	if r.Remove(s.ID) {
		t.Fatal("second remove must be a no-op")
	}
}
