package events

import (
	"fmt"
	"time"
)

// Event payload types shared between the producers, the outbox relay and the gateway

const (
	EventTypeFantasyUnlocked = "FantasyUnlocked"
	EventTypeMatchCreated    = "MatchCreated"
)

// DisclosedFantasy is one participant's answer revealed at a step
type DisclosedFantasy struct {
	FantasyID    string `json:"fantasy_id"`
	SourceUserID string `json:"source_user_id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Intensity    int    `json:"intensity"`
}

// FantasyUnlockedPayload is the payload for a FantasyUnlocked event
type FantasyUnlockedPayload struct {
	MatchID     string             `json:"match_id"`
	Step        int                `json:"step"`
	Disclosures []DisclosedFantasy `json:"disclosures"`
	UnlockedAt  time.Time          `json:"unlocked_at"`
}

// MatchCreatedPayload is the payload for a MatchCreated event
type MatchCreatedPayload struct {
	MatchID    string    `json:"match_id"`
	User1ID    string    `json:"user1_id"`
	User2ID    string    `json:"user2_id"`
	User1Alias string    `json:"user1_alias"`
	User2Alias string    `json:"user2_alias"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisclosureMessage renders the chat system line announcing one revealed answer.
func DisclosureMessage(question, answer string) string {
	return fmt.Sprintf("🎭 Fantasy Unlocked: \"%s\" - %s", question, answer)
}

// StepUnlockedMessage renders the system line for a step that revealed no answer.
func StepUnlockedMessage(step int) string {
	return fmt.Sprintf("🎭 Fantasy step %d unlocked", step)
}
