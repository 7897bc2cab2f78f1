package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

// MatchEvent is the frame pushed to chat clients
type MatchEvent struct {
	ID        string          `json:"id"`
	MatchID   string          `json:"match_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	// SystemMessages are chat lines the client renders verbatim, in order.
	SystemMessages []string `json:"system_messages,omitempty"`
}

type EventType string

const (
	EventTypeFantasyUnlocked EventType = events.EventTypeFantasyUnlocked
	EventTypeMatchCreated    EventType = events.EventTypeMatchCreated
	// EventTypeDisclosureSync replays disclosures a client missed while disconnected.
	EventTypeDisclosureSync EventType = "DisclosureSync"
)

// NewMatchEvent converts a bus envelope into a client frame.
func NewMatchEvent(env events.Envelope) (*MatchEvent, uuid.UUID, error) {
	matchID, err := uuid.Parse(env.MatchID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse match ID: %w", err)
	}

	event := &MatchEvent{
		ID:        env.EventID,
		MatchID:   env.MatchID,
		Timestamp: env.Timestamp,
		Data:      env.Payload,
	}

	switch env.EventType {
	case events.EventTypeFantasyUnlocked:
		var payload events.FantasyUnlockedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, uuid.Nil, fmt.Errorf("unmarshal FantasyUnlocked payload: %w", err)
		}
		event.Type = EventTypeFantasyUnlocked
		for _, d := range payload.Disclosures {
			event.SystemMessages = append(event.SystemMessages, events.DisclosureMessage(d.Question, d.Answer))
		}
		if len(payload.Disclosures) == 0 {
			event.SystemMessages = []string{events.StepUnlockedMessage(payload.Step)}
		}
	case events.EventTypeMatchCreated:
		event.Type = EventTypeMatchCreated
	default:
		return nil, uuid.Nil, fmt.Errorf("unknown event type: %s", env.EventType)
	}
	return event, matchID, nil
}

// NewDisclosureSyncEvent builds the catch-up frame for a reconnecting client.
func NewDisclosureSyncEvent(matchID uuid.UUID, disclosures []models.Disclosure, now time.Time) (*MatchEvent, error) {
	sorted := make([]models.Disclosure, len(disclosures))
	copy(sorted, disclosures)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })

	data, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("marshal disclosures: %w", err)
	}

	event := &MatchEvent{
		ID:        uuid.NewString(),
		MatchID:   matchID.String(),
		Type:      EventTypeDisclosureSync,
		Timestamp: now,
		Data:      data,
	}
	for _, d := range sorted {
		event.SystemMessages = append(event.SystemMessages, events.DisclosureMessage(d.Question, d.Answer))
	}
	return event, nil
}
