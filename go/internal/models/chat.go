package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a persisted chat line with the sender's reported chat duration.
type ChatMessage struct {
	ID                uuid.UUID `json:"id"`
	MatchID           uuid.UUID `json:"match_id"`
	SenderID          uuid.UUID `json:"sender_id"`
	Message           string    `json:"message"`
	CumulativeSeconds int       `json:"cumulative_seconds"`
	SentAt            time.Time `json:"sent_at"`
}
