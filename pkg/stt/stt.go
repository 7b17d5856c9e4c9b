// Package stt defines the streaming speech-to-text boundary and its
// implementations. A session owns exactly one Stream for its lifetime.
package stt

import "context"

// Result is one transcription update from the STT service.
type Result struct {
	Text    string
	IsFinal bool
}

// Stream defines the contract for any STT vendor implementation.
type Stream interface {
	// Name returns the implementation name for logging/metrics.
	Name() string
	// Enabled reports whether a real provider is configured.
	Enabled() bool
	// Start initializes the STT connection.
	Start(ctx context.Context) error
	// Close shuts down the STT connection. Safe to call more than once.
	Close() error
	// SendAudio forwards raw PCM to the STT service.
	SendAudio(chunk []byte) error
	// Results returns a channel of transcription updates.
	Results() <-chan Result
}

// Config contains vendor-agnostic STT configuration.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Language   string `mapstructure:"language"`
	SampleRate int    `mapstructure:"sample_rate"`
	Encoding   string `mapstructure:"encoding"`
	Interim    *bool  `mapstructure:"interim"`
}
