package cache

import (
	"math"
	"testing"
	"time"

	"github.com/fauzanhilmi/vocalis/pkg/embeddings"
)

func TestCosineIdentical(t *testing.T) {
	v := []float64{0.3, 0.4, 0.5}
	if sim := Cosine(v, v); math.Abs(sim-1) > 1e-9 {
		t.Fatalf("expected similarity 1, got %f", sim)
	}
}

func TestCosineOrthogonal(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	if sim := Cosine(a, b); sim != 0 {
		t.Fatalf("expected similarity 0, got %f", sim)
	}
}

func TestCosineMismatchedLengths(t *testing.T) {
	if sim := Cosine([]float64{1}, []float64{1, 2}); sim != 0 {
		t.Fatalf("expected 0 for mismatched lengths, got %f", sim)
	}
}

func TestLookupHitOnSameQuestion(t *testing.T) {
	c := NewSemantic()
	vec := embeddings.DeterministicVector("what's the capital of france")
	c.Store(vec, "Paris.")

	got, ok := c.Lookup(embeddings.DeterministicVector("what's the capital of france"))
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "Paris." {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestLookupMissBelowThreshold(t *testing.T) {
	c := NewSemantic(WithThreshold(0.99))
	c.Store([]float64{1, 0, 0}, "a")
	if _, ok := c.Lookup([]float64{0.5, 0.5, 0.7}); ok {
		t.Fatal("expected miss below threshold")
	}
}

func TestLookupPicksMostSimilar(t *testing.T) {
	c := NewSemantic(WithThreshold(0.1))
	c.Store([]float64{1, 0}, "x-axis")
	c.Store([]float64{0, 1}, "y-axis")

	got, ok := c.Lookup([]float64{0.1, 0.9})
	if !ok {
		t.Fatal("expected hit")
	}
	if got != "y-axis" {
		t.Fatalf("expected closest entry, got %q", got)
	}
}

func TestEntriesExpire(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewSemantic(WithTTL(time.Minute), withClock(clock))

	vec := []float64{1, 0}
	c.Store(vec, "stale")
	if _, ok := c.Lookup(vec); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Lookup(vec); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entries pruned, have %d", c.Len())
	}
}
