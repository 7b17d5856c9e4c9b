package metrics

import (
	"log/slog"
	"sync"
	"time"
)

// Turn timing mark names.
const (
	MarkTurnEnd       = "turn_end"
	MarkSTTFinal      = "stt_final"
	MarkLLMFirstToken = "llm_first_token"
	MarkLLMDone       = "llm_done"
	MarkTTSFirstChunk = "tts_first_chunk"
)

// Interrupted turns never reach MarkLLMDone; their traces are evicted
// after this age instead.
const traceTTL = 5 * time.Minute

// LatencyObserver correlates turn timing marks per turn and logs a
// latency summary once the turn completes.
type LatencyObserver struct {
	mu     sync.Mutex
	traces map[string]*turnTrace
	log    *slog.Logger
}

type turnTrace struct {
	created   time.Time
	turnEnd   time.Time
	sttFinal  time.Time
	llmFirst  time.Time
	llmDone   time.Time
	ttsFirst  time.Time
	sessionID string
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		traces: make(map[string]*turnTrace),
		log:    log,
	}
}

func (o *LatencyObserver) RecordEvent(ev MetricsEvent) {
	turnID := ""
	if ev.Tags != nil {
		turnID = ev.Tags["turn_id"]
	}
	if turnID == "" {
		return
	}
	now := ev.Time
	if now.IsZero() {
		now = time.Now()
	}
	o.mu.Lock()
	o.pruneLocked(now)
	t := o.traces[turnID]
	if t == nil {
		t = &turnTrace{created: now}
		o.traces[turnID] = t
	}
	if t.sessionID == "" && ev.Tags != nil {
		t.sessionID = ev.Tags["session_id"]
	}
	switch ev.Name {
	case MarkTurnEnd:
		if t.turnEnd.IsZero() {
			t.turnEnd = ev.Time
		}
	case MarkSTTFinal:
		if t.sttFinal.IsZero() {
			t.sttFinal = ev.Time
		}
	case MarkLLMFirstToken:
		if t.llmFirst.IsZero() {
			t.llmFirst = ev.Time
		}
	case MarkTTSFirstChunk:
		if t.ttsFirst.IsZero() {
			t.ttsFirst = ev.Time
		}
	case MarkLLMDone:
		t.llmDone = ev.Time
	}
	if !t.llmDone.IsZero() {
		o.logTurnLocked(turnID, t)
		delete(o.traces, turnID)
	}
	o.mu.Unlock()
}

func (o *LatencyObserver) pruneLocked(now time.Time) {
	for id, t := range o.traces {
		if now.Sub(t.created) > traceTTL {
			delete(o.traces, id)
		}
	}
}

func (o *LatencyObserver) logTurnLocked(turnID string, t *turnTrace) {
	o.log.Info("turn latency",
		"session_id", t.sessionID,
		"turn_id", turnID,
		"stt_ms", durationMs(t.turnEnd, t.sttFinal),
		"llm_first_token_ms", durationMs(t.sttFinal, t.llmFirst),
		"llm_total_ms", durationMs(t.sttFinal, t.llmDone),
		"tts_first_chunk_ms", durationMs(t.llmFirst, t.ttsFirst),
	)
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}
