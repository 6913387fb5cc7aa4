package stt

import "github.com/sentinel-voice/sentinel/internal/engine"

type EventType string

const (
	EventPartial EventType = "partial"
	EventFinal   EventType = "final"
)

// Event is one transcript message sent to the client. Partial events carry
// only text; final events also carry per-word timings when the engine
// produced them.
type Event struct {
	Type   EventType     `json:"type"`
	Text   string        `json:"text"`
	Result []engine.Word `json:"result,omitempty"`
}

func partialEvent(text string) Event {
	return Event{Type: EventPartial, Text: text}
}

func finalEvent(res engine.Result) Event {
	return Event{Type: EventFinal, Text: res.Text, Result: res.Words}
}
