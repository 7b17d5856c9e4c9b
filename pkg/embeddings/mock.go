package embeddings

import (
	"context"
	"math"
)

const mockDimensions = 8

// Mock produces a deterministic normalized vector from character codes.
// Identical inputs always embed identically, which is all the semantic
// cache needs to function locally.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string  { return "mock_embeddings" }
func (m *Mock) Enabled() bool { return false }

func (m *Mock) Embed(ctx context.Context, text string) ([]float64, error) {
	return DeterministicVector(text), nil
}

// DeterministicVector folds character codes into a fixed-size normalized
// vector.
func DeterministicVector(text string) []float64 {
	out := make([]float64, mockDimensions)
	for i, r := range []byte(text) {
		out[i%mockDimensions] += float64(r % 97)
	}
	var norm float64
	for _, v := range out {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range out {
		out[i] /= norm
	}
	return out
}

var _ Embedder = (*Mock)(nil)
