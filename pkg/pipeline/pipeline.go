// Package pipeline runs one response turn: prompt assembly, token
// streaming, then audio synthesis, with cooperative cancellation. A run
// always leaves the session in LISTENING unless a barge-in already reset
// it.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/cache"
	"github.com/fauzanhilmi/vocalis/pkg/embeddings"
	"github.com/fauzanhilmi/vocalis/pkg/gateway"
	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/metrics"
	"github.com/fauzanhilmi/vocalis/pkg/protocol"
	"github.com/fauzanhilmi/vocalis/pkg/search"
	"github.com/fauzanhilmi/vocalis/pkg/session"
	"github.com/fauzanhilmi/vocalis/pkg/turn"
)

const fallbackUtterance = "Sorry, I didn't catch that. Could you say it again?"

// errSuperseded aborts output for a turn that lost the session state,
// typically to a barge-in.
var errSuperseded = errors.New("turn superseded")

// Runner executes response turns against a fixed set of collaborators.
type Runner struct {
	gateway  *gateway.Gateway
	search   search.Client
	embedder embeddings.Embedder
	cache    *cache.Semantic
	logger   *slog.Logger
}

func NewRunner(gw *gateway.Gateway, searchClient search.Client, embedder embeddings.Embedder, semanticCache *cache.Semantic) *Runner {
	return &Runner{
		gateway:  gw,
		search:   searchClient,
		embedder: embedder,
		cache:    semanticCache,
		logger:   logging.NewComponentLogger(slog.Default(), "pipeline"),
	}
}

// Run executes one turn. The session is in THINKING on entry; Run owns
// the remaining transitions. ctx is the turn context from
// Session.BeginTurn and is cancelled on barge-in.
func (r *Runner) Run(ctx context.Context, sess *session.Session, turnID string) {
	log := sess.Logger().With(slog.String("turn_id", turnID))
	sess.Observer.RecordEvent(metrics.Event(metrics.MarkTurnEnd, sess.ID, turnID))

	defer func() {
		// A cancelled turn was already reset by the barge-in handler.
		if ctx.Err() == nil {
			sess.Machine.ForceListening("turn complete")
		}
	}()

	utterance := sess.TakeTranscript()
	if utterance == "" {
		log.Info("no transcript at turn end, speaking fallback")
		r.speakCanned(ctx, sess, turnID, fallbackUtterance)
		return
	}
	log.Info("running turn", slog.String("utterance", utterance))

	var queryVec []float64
	if r.embedder != nil && r.cache != nil {
		vec, err := r.embedder.Embed(ctx, utterance)
		if err == nil {
			queryVec = vec
			if cached, ok := r.cache.Lookup(vec); ok {
				log.Info("semantic cache hit")
				r.speakCanned(ctx, sess, turnID, cached)
				return
			}
		}
	}

	prompt := r.buildPrompt(ctx, log, utterance)

	if err := sess.Machine.Transition(turn.StateSpeaking, "generation begins"); err != nil {
		log.Info("turn aborted before generation", slog.String("error", err.Error()))
		return
	}
	sess.Emit(protocol.LLMStartedEvent(time.Now()))

	var full strings.Builder
	index := 0
	provider, err := r.gateway.Generate(ctx, prompt, func(tok string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if sess.Machine.State() != turn.StateSpeaking {
			return errSuperseded
		}
		if index == 0 {
			sess.Observer.RecordEvent(metrics.Event(metrics.MarkLLMFirstToken, sess.ID, turnID))
		}
		sess.Emit(protocol.LLMTokenEvent(tok, index, time.Now()))
		index++
		full.WriteString(tok)
		return nil
	})
	if err != nil {
		log.Info("generation stopped", slog.String("error", err.Error()))
		return
	}
	sess.Observer.RecordEvent(metrics.Event(metrics.MarkLLMDone, sess.ID, turnID))
	sess.Emit(protocol.LLMDoneEvent(time.Now()))
	log.Info("generation complete",
		slog.String("provider", provider),
		slog.Int("tokens", index))

	response := full.String()
	if queryVec != nil && r.cache != nil && response != "" {
		r.cache.Store(queryVec, response)
	}

	r.speak(ctx, sess, turnID, response)
}

// buildPrompt enriches the utterance with search context when triggered.
// A search failure degrades to the ungrounded prompt.
func (r *Runner) buildPrompt(ctx context.Context, log *slog.Logger, utterance string) string {
	var results []search.Result
	if r.search != nil && NeedsSearch(utterance) {
		found, err := r.search.Search(ctx, utterance)
		if err != nil {
			log.Warn("search failed, continuing ungrounded", slog.String("error", err.Error()))
		} else {
			results = found
			log.Info("prompt grounded with search",
				slog.String("provider", r.search.Name()),
				slog.Int("results", len(results)))
		}
	}
	return BuildPrompt(utterance, results)
}

// speakCanned emits a fixed response as a one-token generation followed
// by its audio. Used for the no-transcript fallback and cache hits.
func (r *Runner) speakCanned(ctx context.Context, sess *session.Session, turnID, text string) {
	if err := sess.Machine.Transition(turn.StateSpeaking, "canned response"); err != nil {
		return
	}
	sess.Emit(protocol.LLMStartedEvent(time.Now()))
	sess.Emit(protocol.LLMTokenEvent(text, 0, time.Now()))
	sess.Observer.RecordEvent(metrics.Event(metrics.MarkLLMDone, sess.ID, turnID))
	sess.Emit(protocol.LLMDoneEvent(time.Now()))
	r.speak(ctx, sess, turnID, text)
}

// speak streams synthesized audio for text, suppressing output once the
// turn loses the SPEAKING state.
func (r *Runner) speak(ctx context.Context, sess *session.Session, turnID, text string) {
	first := true
	err := r.gateway.Synthesize(ctx, text, func(chunk []byte) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if sess.Machine.State() != turn.StateSpeaking {
			return errSuperseded
		}
		if first {
			sess.Observer.RecordEvent(metrics.Event(metrics.MarkTTSFirstChunk, sess.ID, turnID))
			first = false
		}
		return sess.SendAudio(chunk)
	})
	if err != nil && !errors.Is(err, errSuperseded) && !errors.Is(err, context.Canceled) {
		sess.Logger().Warn("audio streaming stopped", slog.String("error", err.Error()))
	}
}
