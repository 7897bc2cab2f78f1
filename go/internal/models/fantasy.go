package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FantasyQuestion is an authored intake prompt.
type FantasyQuestion struct {
	ID             int       `json:"id"`
	Question       string    `json:"question"`
	Theme          string    `json:"theme"`
	IntensityLevel int       `json:"intensity_level"`
	CreatedAt      time.Time `json:"created_at"`
}

// FantasyAnswer is a user's private answer captured during intake. Immutable once stored.
type FantasyAnswer struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	QuestionID int       `json:"question_id"`
	Question   string    `json:"question"`
	AnswerText string    `json:"answer"`
	Intensity  int       `json:"intensity"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile holds intake preferences. Preferences are collected but not enforced by matching.
type Profile struct {
	ID                    uuid.UUID       `json:"id"`
	Gender                string          `json:"gender,omitempty"`
	FantasyIntensityPrefs json.RawMessage `json:"fantasy_intensity_prefs,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
