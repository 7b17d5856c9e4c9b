// Package metrics defines the event observer used to record per-turn
// timing marks across sessions.
package metrics

import "time"

// MetricsEvent is one recorded observation, tagged with the session and
// turn it belongs to.
type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// Observer receives metrics events. Implementations must be safe for
// concurrent use.
type Observer interface {
	RecordEvent(ev MetricsEvent)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// Event builds a MetricsEvent stamped now, tagged by session and turn.
func Event(name, sessionID, turnID string) MetricsEvent {
	return MetricsEvent{
		Name: name,
		Time: time.Now(),
		Tags: map[string]string{
			"session_id": sessionID,
			"turn_id":    turnID,
		},
	}
}
