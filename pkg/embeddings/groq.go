package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/errorsx"
	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/resilience"
)

// Groq fetches embeddings from Groq's OpenAI-compatible endpoint. On
// provider failure it degrades to the deterministic local vector so the
// cache keeps working, matching the generation fallback philosophy.
type Groq struct {
	cfg    Config
	client *http.Client
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func NewGroq(cfg Config) *Groq {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	return &Groq{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  resilience.NewRetryPolicy(2, 150*time.Millisecond),
		logger: logging.NewComponentLogger(slog.Default(), "embeddings"),
	}
}

func (g *Groq) Name() string  { return "groq_embeddings" }
func (g *Groq) Enabled() bool { return true }

func (g *Groq) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := g.retry.Do(func() error {
		var attemptErr error
		vec, attemptErr = g.fetch(ctx, text)
		return attemptErr
	})
	if err != nil {
		g.logger.Warn("embedding fetch failed, using deterministic vector",
			slog.String("error", err.Error()))
		return DeterministicVector(text), nil
	}
	return vec, nil
}

func (g *Groq) fetch(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"model": g.cfg.Model,
		"input": text,
	})
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonEmbed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(g.cfg.BaseURL, "/")+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonEmbed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonEmbed)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errorsx.Wrap(errors.New("embeddings: "+resp.Status+" "+string(respBody)), errorsx.ReasonEmbed)
	}

	var decoded struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonEmbed)
	}
	if len(decoded.Data) == 0 {
		return nil, errorsx.Wrap(errors.New("embeddings: empty response"), errorsx.ReasonEmbed)
	}
	return decoded.Data[0].Embedding, nil
}

var _ Embedder = (*Groq)(nil)
