package llm

import (
	"context"
	"errors"
	"time"
)

// MockConfig scripts a MockAdapter.
type MockConfig struct {
	Tokens     []string
	TokenDelay time.Duration
	// Fail makes every Stream call error, for fallback-chain tests.
	Fail bool
}

// MockAdapter is the capability-absent generation stand-in, emitting a
// fixed token sequence.
type MockAdapter struct {
	cfg MockConfig
}

func NewMock(cfg MockConfig) *MockAdapter {
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = []string{"Hello from the mock LLM.", " I can answer your question."}
	}
	return &MockAdapter{cfg: cfg}
}

func (a *MockAdapter) Name() string  { return "mock_llm" }
func (a *MockAdapter) Enabled() bool { return false }

func (a *MockAdapter) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	if a.cfg.Fail {
		return nil, errors.New("mock llm failure")
	}
	out := make(chan string, len(a.cfg.Tokens))
	go func() {
		defer close(out)
		for _, tok := range a.cfg.Tokens {
			if a.cfg.TokenDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(a.cfg.TokenDelay):
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- tok:
			}
		}
	}()
	return out, nil
}

func (a *MockAdapter) Warm(ctx context.Context) error { return nil }

var _ Adapter = (*MockAdapter)(nil)
