package chat

import "time"

type EventType string

const (
	EventSessionInfo EventType = "session_info"
	EventChunk       EventType = "chunk"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// Event is one element of the ordered stream protocol: exactly one
// session_info first, then chunks in production order, at most one
// error, and exactly one trailing complete when any text accumulated.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Latency   *int64    `json:"latency,omitempty"`
}

// EmitFunc delivers one event to the caller. A non-nil error means the
// client is gone; the emitter stops producing further events.
type EmitFunc func(Event) error

func sessionInfoEvent(sessionID string) Event {
	return Event{Type: EventSessionInfo, SessionID: sessionID}
}

func chunkEvent(text string) Event {
	return Event{Type: EventChunk, Text: text}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

func completeEvent(sessionID string, end time.Time, latencyMS int64) Event {
	return Event{
		Type:      EventComplete,
		SessionID: sessionID,
		Timestamp: end.Format(time.RFC3339Nano),
		Latency:   &latencyMS,
	}
}
