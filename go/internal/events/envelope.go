package events

import (
	"encoding/json"
	"time"
)

// Envelope is the bus message wrapping every outbox event
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	MatchID   string          `json:"matchId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Subject returns the bus subject for an event type under prefix
func Subject(prefix, eventType string) string {
	return prefix + "." + eventType
}
