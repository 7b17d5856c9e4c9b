package tts

import (
	"context"
	"errors"
	"testing"
)

func TestSinePCMLength(t *testing.T) {
	pcm := SinePCM(900, 16000)
	// 900 ms at 16 kHz, 2 bytes per sample.
	if len(pcm) != 900*16000/1000*2 {
		t.Fatalf("unexpected pcm length %d", len(pcm))
	}
}

func TestMockToneChunking(t *testing.T) {
	m := NewMockTone(16000)
	var total, chunks int
	err := m.Synthesize(context.Background(), "hello", func(chunk []byte) error {
		total += len(chunk)
		chunks++
		if len(chunk) > toneChunkSize {
			t.Fatalf("chunk exceeds limit: %d", len(chunk))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if chunks == 0 || total != len(SinePCM(toneDurationMS, 16000)) {
		t.Fatalf("expected full tone delivered, got %d bytes in %d chunks", total, chunks)
	}
}

func TestMockToneStopsOnChunkError(t *testing.T) {
	m := NewMockTone(16000)
	stop := errors.New("stop")
	calls := 0
	err := m.Synthesize(context.Background(), "hello", func(chunk []byte) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected synthesis to halt after first chunk, got %d calls", calls)
	}
}
