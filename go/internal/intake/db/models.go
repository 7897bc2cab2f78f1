package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Profile struct {
	ID                    uuid.UUID             `json:"id"`
	Gender                sql.NullString        `json:"gender"`
	FantasyIntensityPrefs pqtype.NullRawMessage `json:"fantasy_intensity_prefs"`
	CreatedAt             time.Time             `json:"created_at"`
}
