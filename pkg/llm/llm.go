// Package llm defines the text generation boundary. Providers expose a
// cancellable token stream; fallback ordering across providers lives in
// the gateway, not here.
package llm

import "context"

// Adapter is one text generation provider.
type Adapter interface {
	// Name returns the provider name for logging/metrics.
	Name() string
	// Enabled reports whether a real provider is configured.
	Enabled() bool
	// Stream starts a generation and returns a channel of tokens. The
	// channel is closed when generation completes or ctx is cancelled.
	Stream(ctx context.Context, prompt string) (<-chan string, error)
	// Warm issues a tiny completion to reduce first-token latency.
	Warm(ctx context.Context) error
}

// Config contains vendor-agnostic generation provider configuration.
type Config struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	BaseURL           string `mapstructure:"base_url"`
	UseCircuitBreaker *bool  `mapstructure:"use_circuit_breaker"`
	CircuitThreshold  int    `mapstructure:"circuit_threshold"`
	CircuitCooldownMS int    `mapstructure:"circuit_cooldown_ms"`
}
