package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/intake/db"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/sqlutil"
)

// ErrProfileNotFound is returned when a user has no intake profile.
var ErrProfileNotFound = errors.New("profile not found")

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetProfile(ctx context.Context, id uuid.UUID) (db.Profile, error)
	ListFantasiesByUser(ctx context.Context, userID uuid.UUID) ([]db.ListFantasiesByUserRow, error)
}

// Repository reads captured intake data. Capture itself happens elsewhere.
type Repository struct {
	queries Querier
}

// NewRepository creates a new intake repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// ListFantasiesByUser returns a user's answers in creation order
func (r *Repository) ListFantasiesByUser(ctx context.Context, userID uuid.UUID) ([]models.FantasyAnswer, error) {
	rows, err := r.queries.ListFantasiesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fantasies: %w", err)
	}

	answers := make([]models.FantasyAnswer, len(rows))
	for i, row := range rows {
		answers[i] = models.FantasyAnswer{
			ID:         row.ID,
			UserID:     row.UserID,
			QuestionID: int(row.QuestionID),
			Question:   row.Question,
			AnswerText: row.Answer,
			Intensity:  int(row.Intensity),
			CreatedAt:  row.CreatedAt,
		}
	}
	return answers, nil
}

// GetProfile retrieves a user's intake profile
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	row, err := r.queries.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &models.Profile{
		ID:                    row.ID,
		Gender:                sqlutil.FromSqlString(row.Gender, ""),
		FantasyIntensityPrefs: sqlutil.FromNullRawMessage(row.FantasyIntensityPrefs),
		CreatedAt:             row.CreatedAt,
	}, nil
}
