// Package embeddings provides text embedding for the semantic response
// cache. A deterministic local embedder stands in when no provider is
// configured so the cache path stays exercisable offline.
package embeddings

import "context"

// Embedder converts text to a vector.
type Embedder interface {
	// Name returns the implementation name for logging/metrics.
	Name() string
	// Enabled reports whether a real provider is configured.
	Enabled() bool
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config contains embedding provider configuration.
type Config struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}
