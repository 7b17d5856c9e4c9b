// Package tts defines the speech synthesis boundary and its implementations.
package tts

import "context"

// Synthesizer converts text to raw PCM audio, delivered chunk by chunk.
// Implementations must stop promptly when onChunk returns an error or the
// context is cancelled.
type Synthesizer interface {
	// Name returns the implementation name for logging/metrics.
	Name() string
	// Enabled reports whether a real provider is configured.
	Enabled() bool
	// Synthesize streams audio for text through onChunk.
	Synthesize(ctx context.Context, text string, onChunk func(chunk []byte) error) error
}

// Config contains vendor-agnostic TTS configuration.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	SampleRate int    `mapstructure:"sample_rate"`
}
