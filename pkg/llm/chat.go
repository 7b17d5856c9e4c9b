package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/errorsx"
	"github.com/fauzanhilmi/vocalis/pkg/resilience"
)

// ChatAdapter streams completions from an OpenAI-compatible chat endpoint.
// Groq and OpenAI both speak this protocol; only name, base URL and model
// differ.
type ChatAdapter struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

func NewChatAdapter(name, baseURL, apiKey, model string, breaker *resilience.CircuitBreaker) *ChatAdapter {
	return &ChatAdapter{
		name:    name,
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		breaker: breaker,
	}
}

// NewGroq builds an adapter for Groq's OpenAI-compatible API.
func NewGroq(cfg Config, breaker *resilience.CircuitBreaker) *ChatAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return NewChatAdapter("groq", base, cfg.APIKey, model, breaker)
}

// NewOpenAI builds an adapter for the OpenAI API.
func NewOpenAI(cfg Config, breaker *resilience.CircuitBreaker) *ChatAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return NewChatAdapter("openai", base, cfg.APIKey, model, breaker)
}

func (a *ChatAdapter) Name() string  { return a.name }
func (a *ChatAdapter) Enabled() bool { return true }

func (a *ChatAdapter) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	if a.breaker != nil && !a.breaker.Allow() {
		return nil, errorsx.Wrap(errors.New(a.name+" circuit open"), errorsx.ReasonLLMRateLimit)
	}
	resp, err := a.post(ctx, map[string]any{
		"model":  a.model,
		"stream": true,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		if a.breaker != nil {
			a.breaker.OnError(err)
		}
		return nil, errorsx.Wrap(err, errorsx.ReasonLLMStream)
	}

	out := make(chan string, 128)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}
			var chunk map[string]any
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			choices, _ := chunk["choices"].([]any)
			if len(choices) == 0 {
				continue
			}
			first, _ := choices[0].(map[string]any)
			delta, _ := first["delta"].(map[string]any)
			if text, _ := delta["content"].(string); text != "" {
				select {
				case <-ctx.Done():
					return
				case out <- text:
				}
			}
		}
		if a.breaker != nil {
			a.breaker.OnSuccess()
		}
	}()
	return out, nil
}

// Warm issues a one-token non-streaming completion.
func (a *ChatAdapter) Warm(ctx context.Context) error {
	resp, err := a.post(ctx, map[string]any{
		"model":      a.model,
		"stream":     false,
		"max_tokens": 1,
		"messages": []map[string]string{
			{"role": "user", "content": "hi"},
		},
	})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonLLMWarm)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (a *ChatAdapter) post(ctx context.Context, payload map[string]any) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, resilience.RateLimitError{Provider: a.name, Message: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errors.New(string(body))
	}
	return resp, nil
}

var _ Adapter = (*ChatAdapter)(nil)
