package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fauzanhilmi/vocalis/pkg/embeddings"
	"github.com/fauzanhilmi/vocalis/pkg/llm"
	"github.com/fauzanhilmi/vocalis/pkg/search"
	"github.com/fauzanhilmi/vocalis/pkg/tts"
)

func collectTokens(t *testing.T, g *Gateway, prompt string) (string, []string) {
	t.Helper()
	var tokens []string
	provider, err := g.Generate(context.Background(), prompt, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return provider, tokens
}

func TestGenerateUsesFirstHealthyProvider(t *testing.T) {
	healthy := llm.NewMock(llm.MockConfig{Tokens: []string{"ok"}})
	g := New([]llm.Adapter{healthy}, nil)

	provider, tokens := collectTokens(t, g, "hi")
	if provider != "mock_llm" {
		t.Fatalf("unexpected provider %q", provider)
	}
	if len(tokens) != 1 || tokens[0] != "ok" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestGenerateFallsPastFailingProvider(t *testing.T) {
	failing := llm.NewMock(llm.MockConfig{Fail: true})
	healthy := llm.NewMock(llm.MockConfig{Tokens: []string{"second"}})
	g := New([]llm.Adapter{failing, healthy}, nil)

	_, tokens := collectTokens(t, g, "hi")
	if len(tokens) != 1 || tokens[0] != "second" {
		t.Fatalf("expected second provider output, got %v", tokens)
	}
}

func TestGenerateNeverFatal(t *testing.T) {
	g := New([]llm.Adapter{
		llm.NewMock(llm.MockConfig{Fail: true}),
		llm.NewMock(llm.MockConfig{Fail: true}),
	}, nil)

	_, tokens := collectTokens(t, g, "hi")
	if len(tokens) == 0 {
		t.Fatal("expected diagnostic tokens when every provider fails")
	}
	if !strings.Contains(tokens[0], "(mock)") {
		t.Fatalf("expected diagnostic response, got %v", tokens)
	}
}

func TestGenerateEmptyChainStillResponds(t *testing.T) {
	g := New(nil, nil)
	provider, tokens := collectTokens(t, g, "hi")
	if provider != "mock_llm" || len(tokens) == 0 {
		t.Fatalf("expected fallback output, provider=%q tokens=%v", provider, tokens)
	}
}

func TestGeneratePropagatesTokenCallbackError(t *testing.T) {
	g := New([]llm.Adapter{llm.NewMock(llm.MockConfig{Tokens: []string{"a", "b"}})}, nil)
	sentinel := errors.New("stop")
	_, err := g.Generate(context.Background(), "hi", func(string) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

type failingSynth struct{}

func (failingSynth) Name() string  { return "failing" }
func (failingSynth) Enabled() bool { return true }
func (failingSynth) Synthesize(context.Context, string, func([]byte) error) error {
	return errors.New("provider down")
}

func TestSynthesizeSwallowsProviderFailure(t *testing.T) {
	g := New(nil, failingSynth{})
	if err := g.Synthesize(context.Background(), "hello", func([]byte) error { return nil }); err != nil {
		t.Fatalf("provider failure must not fail the turn: %v", err)
	}
}

func TestSynthesizePropagatesCancellation(t *testing.T) {
	g := New(nil, tts.NewMockTone(16000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Synthesize(ctx, "hello", func([]byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to propagate, got %v", err)
	}
}

func TestBuildGeneratorsProbesKeys(t *testing.T) {
	chain := BuildGenerators(llm.Config{APIKey: "gk"}, llm.Config{}, nil)
	if len(chain) != 1 || chain[0].Name() != "groq" {
		t.Fatalf("expected groq only, got %v", chain)
	}
	chain = BuildGenerators(llm.Config{APIKey: "gk"}, llm.Config{APIKey: "ok"}, nil)
	if len(chain) != 2 || chain[1].Name() != "openai" {
		t.Fatalf("expected groq then openai, got %v", chain)
	}
	if chain := BuildGenerators(llm.Config{}, llm.Config{}, nil); len(chain) != 0 {
		t.Fatalf("expected empty chain without keys, got %v", chain)
	}
}

func TestBuildStandInsWithoutKeys(t *testing.T) {
	if s := BuildSynthesizer(tts.Config{}, nil); s.Enabled() {
		t.Fatal("expected mock synthesizer without key")
	}
	if c := BuildSearch(search.Config{}, nil); c.Enabled() {
		t.Fatal("expected mock search without key")
	}
	if e := BuildEmbedder(embeddings.Config{}, nil); e.Enabled() {
		t.Fatal("expected mock embedder without key")
	}
	if s := BuildSynthesizer(tts.Config{APIKey: "k"}, nil); !s.Enabled() {
		t.Fatal("expected real synthesizer with key")
	}
}
