package domain

import "encoding/json"

// Envelope is the unit of communication over the WebSocket channel in
// both directions: {"type": "domain:action", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound envelope; Payload is marshalled on send.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewEvent builds an outbound event.
func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

// ErrorPayload is the body of every "<domain>:error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEvent reports a protocol error back to the offending connection.
func ErrorEvent(eventType string, err error) Event {
	return Event{Type: eventType, Payload: ErrorPayload{Message: err.Error()}}
}
