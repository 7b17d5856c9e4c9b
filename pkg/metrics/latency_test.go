package metrics

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLatencyObserverLogsOnTurnDone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	o := NewLatencyObserver(logger)

	base := time.Now()
	emit := func(name string, at time.Time) {
		o.RecordEvent(MetricsEvent{
			Name: name,
			Time: at,
			Tags: map[string]string{"session_id": "s1", "turn_id": "t1"},
		})
	}
	emit(MarkTurnEnd, base)
	emit(MarkSTTFinal, base.Add(100*time.Millisecond))
	if buf.Len() != 0 {
		t.Fatal("summary logged before turn completed")
	}
	emit(MarkLLMFirstToken, base.Add(300*time.Millisecond))
	emit(MarkLLMDone, base.Add(700*time.Millisecond))

	out := buf.String()
	if !strings.Contains(out, "turn latency") {
		t.Fatalf("expected latency summary, got %q", out)
	}
	if !strings.Contains(out, "llm_first_token_ms=200") {
		t.Fatalf("expected first-token latency 200ms, got %q", out)
	}

	o.mu.Lock()
	remaining := len(o.traces)
	o.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected trace cleared, have %d", remaining)
	}
}

func TestLatencyObserverEvictsAbandonedTraces(t *testing.T) {
	o := NewLatencyObserver(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	// Interrupted turns record a turn end but never llm_done.
	stale := time.Now().Add(-2 * traceTTL)
	for i := 0; i < 1000; i++ {
		o.RecordEvent(MetricsEvent{
			Name: MarkTurnEnd,
			Time: stale,
			Tags: map[string]string{"session_id": "s1", "turn_id": fmt.Sprintf("t%d", i)},
		})
	}

	o.RecordEvent(MetricsEvent{
		Name: MarkTurnEnd,
		Time: time.Now(),
		Tags: map[string]string{"session_id": "s1", "turn_id": "fresh"},
	})

	o.mu.Lock()
	remaining := len(o.traces)
	_, freshKept := o.traces["fresh"]
	o.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("expected stale traces evicted, have %d", remaining)
	}
	if !freshKept {
		t.Fatal("expected the fresh trace retained")
	}
}

func TestLatencyObserverIgnoresUntaggedEvents(t *testing.T) {
	o := NewLatencyObserver(nil)
	o.RecordEvent(MetricsEvent{Name: MarkLLMDone, Time: time.Now()})
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.traces) != 0 {
		t.Fatal("untagged event must not open a trace")
	}
}

func TestMemoryObserverSnapshot(t *testing.T) {
	m := NewMemoryObserver()
	m.RecordEvent(Event(MarkTurnEnd, "s1", "t1"))
	m.RecordEvent(Event(MarkSTTFinal, "s1", "t1"))
	evs := m.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Tags["turn_id"] != "t1" {
		t.Fatalf("unexpected tags %v", evs[0].Tags)
	}
}
