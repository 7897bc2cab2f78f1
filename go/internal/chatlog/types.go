package chatlog

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidMessage is returned for empty or mis-attributed chat messages.
var ErrInvalidMessage = errors.New("invalid chat message")

// RecordMessageRequest is a chat line reported by a participant's client.
type RecordMessageRequest struct {
	SenderID          string `json:"senderId"`
	Message           string `json:"message"`
	CumulativeSeconds int    `json:"cumulativeSeconds"`
}

// PendingUnlock is a match below the terminal step with the highest chat duration
// any participant has reported for it.
type PendingUnlock struct {
	MatchID           uuid.UUID
	UnlockedStep      int
	CumulativeSeconds int
}
