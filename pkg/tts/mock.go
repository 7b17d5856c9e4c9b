package tts

import (
	"context"
	"encoding/binary"
	"math"
	"time"
)

const (
	toneFrequency  = 440.0
	toneAmplitude  = 0.2
	toneDurationMS = 900
	toneChunkSize  = 32000
)

// MockTone is the capability-absent TTS stand-in. It emits a short sine
// tone as 16-bit LE mono PCM so the orchestrator's audio path behaves
// identically whether or not a real provider is configured.
type MockTone struct {
	SampleRate int
	// ChunkDelay paces chunk delivery; zero disables pacing for tests.
	ChunkDelay time.Duration
}

func NewMockTone(sampleRate int) *MockTone {
	if sampleRate == 0 {
		sampleRate = 16000
	}
	return &MockTone{SampleRate: sampleRate}
}

func (m *MockTone) Name() string  { return "mock_tts" }
func (m *MockTone) Enabled() bool { return false }

func (m *MockTone) Synthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	pcm := SinePCM(toneDurationMS, m.SampleRate)
	for i := 0; i < len(pcm); i += toneChunkSize {
		end := i + toneChunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(pcm[i:end]); err != nil {
			return err
		}
		if m.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.ChunkDelay):
			}
		}
	}
	return nil
}

// SinePCM generates durationMS of a 440 Hz sine wave as 16-bit LE mono PCM.
func SinePCM(durationMS, sampleRate int) []byte {
	samples := durationMS * sampleRate / 1000
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(sampleRate)
		amp := int16(math.Sin(2*math.Pi*toneFrequency*t) * toneAmplitude * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(amp))
	}
	return out
}

var _ Synthesizer = (*MockTone)(nil)
