// Package cache implements an in-memory semantic response cache. Entries
// are keyed by embedding vector and matched by cosine similarity, so a
// rephrased question can still hit a recent answer.
package cache

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a hit.
	DefaultSimilarityThreshold = 0.85
	// DefaultTTL bounds how long a cached response stays servable.
	DefaultTTL = 5 * time.Minute
)

type entry struct {
	vector    []float64
	response  string
	expiresAt time.Time
}

// Semantic is a similarity-matched response cache with TTL expiry.
// Safe for concurrent use.
type Semantic struct {
	mu        sync.Mutex
	entries   []entry
	threshold float64
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Semantic cache.
type Option func(*Semantic)

func WithThreshold(t float64) Option {
	return func(s *Semantic) {
		if t > 0 {
			s.threshold = t
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Semantic) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// withClock overrides the time source for expiry tests.
func withClock(now func() time.Time) Option {
	return func(s *Semantic) { s.now = now }
}

func NewSemantic(opts ...Option) *Semantic {
	s := &Semantic{
		threshold: DefaultSimilarityThreshold,
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the cached response whose vector is most similar to vec,
// if that similarity meets the threshold and the entry has not expired.
func (s *Semantic) Lookup(vec []float64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	best := -1.0
	bestIdx := -1
	for i := range s.entries {
		sim := Cosine(vec, s.entries[i].vector)
		if sim > best {
			best = sim
			bestIdx = i
		}
	}
	if bestIdx < 0 || best < s.threshold {
		return "", false
	}
	return s.entries[bestIdx].response, true
}

// Store records a response under its embedding vector.
func (s *Semantic) Store(vec []float64, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.entries = append(s.entries, entry{
		vector:    vec,
		response:  response,
		expiresAt: s.now().Add(s.ttl),
	})
}

// Len reports the number of live entries.
func (s *Semantic) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.entries)
}

func (s *Semantic) pruneLocked() {
	now := s.now()
	live := s.entries[:0]
	for _, e := range s.entries {
		if e.expiresAt.After(now) {
			live = append(live, e)
		}
	}
	s.entries = live
}

// Cosine returns the cosine similarity of a and b, or 0 when either
// vector is empty, mismatched in length, or zero-magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
