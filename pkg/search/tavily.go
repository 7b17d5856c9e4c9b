package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/errorsx"
)

const tavilyURL = "https://api.tavily.com/search"

// Tavily queries the Tavily search API.
type Tavily struct {
	cfg    Config
	client *http.Client
}

func NewTavily(cfg Config) *Tavily {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Tavily{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Tavily) Name() string  { return "tavily" }
func (t *Tavily) Enabled() bool { return true }

func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	payload := map[string]any{
		"api_key":      t.cfg.APIKey,
		"query":        query,
		"search_depth": "basic",
		"max_results":  t.cfg.MaxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSearchQuery)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyURL, bytes.NewReader(body))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSearchQuery)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSearchQuery)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errorsx.Wrap(errors.New("tavily: "+resp.Status+" "+string(respBody)), errorsx.ReasonSearchQuery)
	}

	var decoded struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSearchQuery)
	}
	if len(decoded.Results) > t.cfg.MaxResults {
		decoded.Results = decoded.Results[:t.cfg.MaxResults]
	}
	return decoded.Results, nil
}

var _ Client = (*Tavily)(nil)
