package search

import "context"

// Mock is the capability-absent search stand-in, returning a single
// deterministic result.
type Mock struct {
	// Err makes Search fail, for degradation tests.
	Err error
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string  { return "mock_search" }
func (m *Mock) Enabled() bool { return false }

func (m *Mock) Search(ctx context.Context, query string) ([]Result, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return []Result{
		{
			Title:   "Example result",
			URL:     "https://example.com",
			Content: "Mock content for query: " + query,
		},
	}, nil
}

var _ Client = (*Mock)(nil)
