package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is a persistent pairing of two anonymous users and their unlock progress.
type Match struct {
	ID           uuid.UUID `json:"id"`
	User1ID      uuid.UUID `json:"user1_id"`
	User2ID      uuid.UUID `json:"user2_id"`
	User1Alias   string    `json:"user1_alias"`
	User2Alias   string    `json:"user2_alias"`
	UnlockedStep int       `json:"unlocked_step"`
	CreatedAt    time.Time `json:"created_at"`
}

// Participants returns both user ids in seat order.
func (m Match) Participants() []uuid.UUID {
	return []uuid.UUID{m.User1ID, m.User2ID}
}

// HasParticipant reports whether userID is one of the two matched users.
func (m Match) HasParticipant(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// PartnerOf returns the other participant of the match.
func (m Match) PartnerOf(userID uuid.UUID) uuid.UUID {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// UnlockedFantasy is one disclosure row: a participant's answer exposed at a step.
type UnlockedFantasy struct {
	ID           uuid.UUID `json:"id"`
	MatchID      uuid.UUID `json:"match_id"`
	FantasyID    uuid.UUID `json:"fantasy_id"`
	SourceUserID uuid.UUID `json:"source_user_id"`
	UnlockStep   int       `json:"unlock_step"`
	UnlockedAt   time.Time `json:"unlocked_at"`
}

// Disclosure is an UnlockedFantasy joined with the answer it exposes.
type Disclosure struct {
	MatchID      uuid.UUID `json:"match_id"`
	FantasyID    uuid.UUID `json:"fantasy_id"`
	SourceUserID uuid.UUID `json:"source_user_id"`
	Step         int       `json:"step"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Intensity    int       `json:"intensity"`
	UnlockedAt   time.Time `json:"unlocked_at"`
}
