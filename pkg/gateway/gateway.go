// Package gateway fronts the generation and synthesis providers with
// ordered fallback. A turn never fails outright because of a provider:
// when every configured generator errors, a canned diagnostic response
// is streamed instead.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fauzanhilmi/vocalis/pkg/llm"
	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/tts"
)

const prewarmTimeout = 6 * time.Second

// Gateway routes generation requests through an ordered provider chain
// and synthesis requests through a single synthesizer.
type Gateway struct {
	generators []llm.Adapter
	fallback   llm.Adapter
	synth      tts.Synthesizer
	logger     *slog.Logger
}

func New(generators []llm.Adapter, synth tts.Synthesizer) *Gateway {
	return &Gateway{
		generators: generators,
		fallback: llm.NewMock(llm.MockConfig{
			Tokens: []string{"(mock) I can't reach the LLM right now.", " Please check keys."},
		}),
		synth:  synth,
		logger: logging.NewComponentLogger(slog.Default(), "gateway"),
	}
}

// Generate streams tokens for prompt through onToken, trying each
// configured generator in order and falling back to the canned response
// when all fail. It returns the name of the provider that produced
// output. The only error returned is one raised by onToken or by ctx
// cancellation; provider failures are absorbed by the chain.
func (g *Gateway) Generate(ctx context.Context, prompt string, onToken func(token string) error) (string, error) {
	chain := make([]llm.Adapter, 0, len(g.generators)+1)
	chain = append(chain, g.generators...)
	chain = append(chain, g.fallback)

	for _, adapter := range chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tokens, err := adapter.Stream(ctx, prompt)
		if err != nil {
			g.logger.Warn("generator failed, trying next",
				slog.String("provider", adapter.Name()),
				slog.String("error", err.Error()))
			continue
		}
		delivered := 0
		for tok := range tokens {
			if err := onToken(tok); err != nil {
				return adapter.Name(), err
			}
			delivered++
		}
		if err := ctx.Err(); err != nil {
			return adapter.Name(), err
		}
		// An empty stream means the provider gave up mid-flight.
		if delivered == 0 {
			g.logger.Warn("generator produced no tokens, trying next",
				slog.String("provider", adapter.Name()))
			continue
		}
		return adapter.Name(), nil
	}
	return "", errors.New("generation chain exhausted")
}

// Synthesize streams audio for text through onChunk. Provider failures
// are logged and swallowed so the turn degrades to text only; errors
// from onChunk and context cancellation still propagate.
func (g *Gateway) Synthesize(ctx context.Context, text string, onChunk func(chunk []byte) error) error {
	if g.synth == nil || text == "" {
		return nil
	}
	err := g.synth.Synthesize(ctx, text, onChunk)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	g.logger.Warn("synthesis failed, continuing without audio",
		slog.String("provider", g.synth.Name()),
		slog.String("error", err.Error()))
	return nil
}

// SynthName returns the active synthesizer name, or "none".
func (g *Gateway) SynthName() string {
	if g.synth == nil {
		return "none"
	}
	return g.synth.Name()
}

// Prewarm issues warm-up requests to every enabled generator
// concurrently. Failures are logged, never fatal.
func (g *Gateway) Prewarm(ctx context.Context) {
	warmCtx, cancel := context.WithTimeout(ctx, prewarmTimeout)
	defer cancel()

	eg, egCtx := errgroup.WithContext(warmCtx)
	for _, adapter := range g.generators {
		if !adapter.Enabled() {
			continue
		}
		a := adapter
		eg.Go(func() error {
			start := time.Now()
			if err := a.Warm(egCtx); err != nil {
				g.logger.Warn("prewarm failed",
					slog.String("provider", a.Name()),
					slog.String("error", err.Error()))
				return nil
			}
			g.logger.Info("provider warmed",
				slog.String("provider", a.Name()),
				slog.Duration("took", time.Since(start)))
			return nil
		})
	}
	_ = eg.Wait()
}
