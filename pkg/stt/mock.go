package stt

import (
	"context"
	"errors"
	"sync"
)

// MockConfig scripts the behavior of a MockStream.
type MockConfig struct {
	Transcript        string
	InterimTranscript string
	EmitInterim       bool
}

// MockStream is a deterministic STT stand-in for tests. The scripted
// transcript is emitted once, on the first audio chunk received.
type MockStream struct {
	cfg     MockConfig
	out     chan Result
	mu      sync.Mutex
	started bool
	emitted bool
	closed  bool
	sent    int
}

func NewMock(cfg MockConfig) *MockStream {
	if cfg.Transcript == "" {
		cfg.Transcript = "mock transcript"
	}
	return &MockStream{cfg: cfg, out: make(chan Result, 16)}
}

func (s *MockStream) Name() string  { return "mock_stt" }
func (s *MockStream) Enabled() bool { return true }

func (s *MockStream) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	s.started = false
	return nil
}

func (s *MockStream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.New("not started")
	}
	s.sent++
	if s.emitted {
		s.mu.Unlock()
		return nil
	}
	s.emitted = true
	s.mu.Unlock()

	if s.cfg.EmitInterim {
		interim := s.cfg.InterimTranscript
		if interim == "" {
			interim = s.cfg.Transcript
		}
		s.out <- Result{Text: interim, IsFinal: false}
	}
	s.out <- Result{Text: s.cfg.Transcript, IsFinal: true}
	return nil
}

func (s *MockStream) Results() <-chan Result { return s.out }

// AudioChunks reports how many chunks were forwarded, for test assertions.
func (s *MockStream) AudioChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

var _ Stream = (*MockStream)(nil)
