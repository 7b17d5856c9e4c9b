package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/errorsx"
	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/resilience"
)

const deepgramSpeakURL = "https://api.deepgram.com/v1/speak"

// speakChunkSize is the read granularity for the streamed response body.
// Matches the client-side playback buffer (1 s of 16 kHz 16-bit mono).
const speakChunkSize = 32000

// DeepgramSpeak synthesizes speech through Deepgram's speak REST endpoint,
// streaming the linear16 response body as it arrives.
type DeepgramSpeak struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewDeepgramSpeak(cfg Config) *DeepgramSpeak {
	if cfg.Model == "" {
		cfg.Model = "aura-asteria-en"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	return &DeepgramSpeak{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_tts"),
	}
}

func (s *DeepgramSpeak) Name() string  { return "deepgram_speak" }
func (s *DeepgramSpeak) Enabled() bool { return true }

func (s *DeepgramSpeak) Synthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	q := url.Values{}
	q.Set("model", s.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(s.cfg.SampleRate))
	q.Set("container", "none")

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepgramSpeakURL+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(resp.Body)
		return errorsx.Wrap(resilience.RateLimitError{Provider: "deepgram", Message: string(respBody)}, errorsx.ReasonTTSSynthesize)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errorsx.Wrap(fmt.Errorf("deepgram speak: %s - %s", resp.Status, string(respBody)), errorsx.ReasonTTSSynthesize)
	}

	buf := make([]byte, speakChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return errorsx.Wrap(readErr, errorsx.ReasonTTSSynthesize)
		}
	}
}

var _ Synthesizer = (*DeepgramSpeak)(nil)
