package stt

import (
	"context"
	"sync"
)

// Disabled is the capability-absent stand-in used when no STT provider is
// configured. Audio is accepted and dropped; no results are ever emitted,
// so turns complete through the no-transcript fallback path.
type Disabled struct {
	mu     sync.Mutex
	out    chan Result
	closed bool
}

func NewDisabled() *Disabled {
	return &Disabled{out: make(chan Result)}
}

func (d *Disabled) Name() string                    { return "stt_disabled" }
func (d *Disabled) Enabled() bool                   { return false }
func (d *Disabled) Start(ctx context.Context) error { return nil }
func (d *Disabled) SendAudio(chunk []byte) error    { return nil }
func (d *Disabled) Results() <-chan Result          { return d.out }

func (d *Disabled) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.out)
	}
	return nil
}
