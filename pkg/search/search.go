// Package search provides the web search collaborator used to ground
// prompts for time-sensitive questions.
package search

import "context"

// Result is one ranked search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client queries a web search provider.
type Client interface {
	// Name returns the implementation name for logging/metrics.
	Name() string
	// Enabled reports whether a real provider is configured.
	Enabled() bool
	// Search returns ranked results for query.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Config contains search provider configuration.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}
