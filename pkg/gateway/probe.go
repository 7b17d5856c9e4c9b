package gateway

import (
	"log/slog"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/embeddings"
	"github.com/fauzanhilmi/vocalis/pkg/llm"
	"github.com/fauzanhilmi/vocalis/pkg/resilience"
	"github.com/fauzanhilmi/vocalis/pkg/search"
	"github.com/fauzanhilmi/vocalis/pkg/tts"
)

// Capability probing: a provider is real when its API key is present,
// otherwise its deterministic stand-in is used so every path stays
// exercisable without credentials.

// BuildGenerators returns the ordered generation chain from per-provider
// config. Groq leads, OpenAI follows. Unconfigured providers are skipped.
func BuildGenerators(groq, openai llm.Config, logger *slog.Logger) []llm.Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	var out []llm.Adapter
	if groq.APIKey != "" {
		out = append(out, llm.NewGroq(groq, breakerFor(groq)))
	}
	if openai.APIKey != "" {
		out = append(out, llm.NewOpenAI(openai, breakerFor(openai)))
	}
	names := make([]string, len(out))
	for i, a := range out {
		names[i] = a.Name()
	}
	logger.Info("generation chain", slog.Any("providers", names))
	return out
}

func breakerFor(cfg llm.Config) *resilience.CircuitBreaker {
	if cfg.UseCircuitBreaker != nil && !*cfg.UseCircuitBreaker {
		return nil
	}
	return resilience.NewCircuitBreaker(cfg.CircuitThreshold, time.Duration(cfg.CircuitCooldownMS)*time.Millisecond)
}

// BuildSynthesizer returns the real synthesizer when configured and the
// sine-tone stand-in otherwise.
func BuildSynthesizer(cfg tts.Config, logger *slog.Logger) tts.Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	var s tts.Synthesizer
	if cfg.APIKey != "" {
		s = tts.NewDeepgramSpeak(cfg)
	} else {
		s = tts.NewMockTone(cfg.SampleRate)
	}
	logger.Info("synthesizer selected", slog.String("provider", s.Name()))
	return s
}

// BuildSearch returns the real search client when configured and the
// deterministic stand-in otherwise.
func BuildSearch(cfg search.Config, logger *slog.Logger) search.Client {
	if logger == nil {
		logger = slog.Default()
	}
	var c search.Client
	if cfg.APIKey != "" {
		c = search.NewTavily(cfg)
	} else {
		c = search.NewMock()
	}
	logger.Info("search client selected", slog.String("provider", c.Name()))
	return c
}

// BuildEmbedder returns the real embedder when configured and the
// deterministic stand-in otherwise.
func BuildEmbedder(cfg embeddings.Config, logger *slog.Logger) embeddings.Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	var e embeddings.Embedder
	if cfg.APIKey != "" {
		e = embeddings.NewGroq(cfg)
	} else {
		e = embeddings.NewMock()
	}
	logger.Info("embedder selected", slog.String("provider", e.Name()))
	return e
}
