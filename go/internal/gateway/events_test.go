package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

func fantasyUnlockedEnvelope(t *testing.T, matchID uuid.UUID) events.Envelope {
	t.Helper()
	payload, err := json.Marshal(events.FantasyUnlockedPayload{
		MatchID: matchID.String(),
		Step:    1,
		Disclosures: []events.DisclosedFantasy{
			{Question: "Where would you go?", Answer: "A lighthouse"},
			{Question: "What would you wear?", Answer: "Something red"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return events.Envelope{
		EventID:   uuid.NewString(),
		EventType: events.EventTypeFantasyUnlocked,
		MatchID:   matchID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func TestNewMatchEvent(t *testing.T) {
	matchID := uuid.New()

	event, gotID, err := NewMatchEvent(fantasyUnlockedEnvelope(t, matchID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != matchID || event.Type != EventTypeFantasyUnlocked {
		t.Fatalf("unexpected event: id=%s type=%s", gotID, event.Type)
	}
	want := []string{
		`🎭 Fantasy Unlocked: "Where would you go?" - A lighthouse`,
		`🎭 Fantasy Unlocked: "What would you wear?" - Something red`,
	}
	if len(event.SystemMessages) != len(want) {
		t.Fatalf("unexpected system messages: %v", event.SystemMessages)
	}
	for i := range want {
		if event.SystemMessages[i] != want[i] {
			t.Fatalf("unexpected system message %d: got=%q want=%q", i, event.SystemMessages[i], want[i])
		}
	}
}

func TestNewMatchEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  events.Envelope
	}{
		{name: "bad match id", env: events.Envelope{MatchID: "x", EventType: events.EventTypeMatchCreated}},
		{name: "unknown type", env: events.Envelope{MatchID: uuid.NewString(), EventType: "PickMade"}},
		{name: "bad payload", env: events.Envelope{MatchID: uuid.NewString(), EventType: events.EventTypeFantasyUnlocked, Payload: json.RawMessage(`[`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := NewMatchEvent(tt.env); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewMatchEvent_StepWithoutDisclosures(t *testing.T) {
	matchID := uuid.New()
	payload, err := json.Marshal(events.FantasyUnlockedPayload{MatchID: matchID.String(), Step: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event, _, err := NewMatchEvent(events.Envelope{
		EventID:   uuid.NewString(),
		EventType: events.EventTypeFantasyUnlocked,
		MatchID:   matchID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(event.SystemMessages) != 1 || event.SystemMessages[0] != "🎭 Fantasy step 2 unlocked" {
		t.Fatalf("unexpected system messages: %v", event.SystemMessages)
	}
}

func TestNewDisclosureSyncEvent_StepOrder(t *testing.T) {
	matchID := uuid.New()
	event, err := NewDisclosureSyncEvent(matchID, []models.Disclosure{
		{Step: 2, Question: "Q2", Answer: "A2"},
		{Step: 1, Question: "Q1", Answer: "A1"},
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != EventTypeDisclosureSync || len(event.SystemMessages) != 2 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.SystemMessages[0] != `🎭 Fantasy Unlocked: "Q1" - A1` {
		t.Fatalf("unexpected first message: %q", event.SystemMessages[0])
	}
}
