package db

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID           uuid.UUID `json:"id"`
	User1ID      uuid.UUID `json:"user1_id"`
	User2ID      uuid.UUID `json:"user2_id"`
	User1Alias   string    `json:"user1_alias"`
	User2Alias   string    `json:"user2_alias"`
	UnlockedStep int32     `json:"unlocked_step"`
	CreatedAt    time.Time `json:"created_at"`
}
