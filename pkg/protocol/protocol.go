// Package protocol defines the JSON control messages exchanged with clients
// over the persistent websocket connection. Audio travels as raw binary
// frames (16 kHz mono 16-bit PCM) and never appears here.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client -> server control message types.
const (
	TypeTurnStart   = "turn_start"
	TypeUserStopped = "user_stopped"
	TypeBargeIn     = "barge_in"
)

// Server -> client event types.
const (
	TypeSessionID         = "session_id"
	TypeState             = "state"
	TypeTranscriptPartial = "transcript_partial"
	TypeTranscriptFinal   = "transcript_final"
	TypeLLMStarted        = "llm_started"
	TypeLLMToken          = "llm_token"
	TypeLLMDone           = "llm_done"
)

// ClientMessage is a control frame sent by the client.
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// ParseClientMessage decodes a textual frame. Unknown types are returned
// as-is; the caller decides whether to ignore them.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("parse control frame: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("control frame missing type")
	}
	return msg, nil
}

// ServerEvent is a textual frame sent to the client.
type ServerEvent struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
	Text  string `json:"text,omitempty"`
	Index int    `json:"index,omitempty"`
	TS    int64  `json:"ts,omitempty"`
}

func SessionIDEvent(id string) ServerEvent {
	return ServerEvent{Type: TypeSessionID, ID: id}
}

func StateEvent(state string) ServerEvent {
	return ServerEvent{Type: TypeState, Value: state}
}

func TranscriptPartialEvent(text string) ServerEvent {
	return ServerEvent{Type: TypeTranscriptPartial, Text: text}
}

func TranscriptFinalEvent(text string) ServerEvent {
	return ServerEvent{Type: TypeTranscriptFinal, Text: text}
}

func LLMStartedEvent(ts time.Time) ServerEvent {
	return ServerEvent{Type: TypeLLMStarted, TS: ts.UnixMilli()}
}

func LLMTokenEvent(text string, index int, ts time.Time) ServerEvent {
	return ServerEvent{Type: TypeLLMToken, Text: text, Index: index, TS: ts.UnixMilli()}
}

func LLMDoneEvent(ts time.Time) ServerEvent {
	return ServerEvent{Type: TypeLLMDone, TS: ts.UnixMilli()}
}
