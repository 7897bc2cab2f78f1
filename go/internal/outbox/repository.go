package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/outbox/db"
	"github.com/mcdev12/fantasymatch/go/internal/sqlutil"
)

// ErrEventNotFound is returned when an event does not exist or was already sent.
var ErrEventNotFound = errors.New("outbox event not found or already sent")

// Repository defines what the relay needs from the outbox table
type Repository interface {
	FetchUnsent(ctx context.Context, limit int32) ([]models.OutboxEvent, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository reads match_outbox
type PostgresRepository struct {
	queries *db.Queries
}

// NewRepository creates a new outbox repository
func NewRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: db.New(database)}
}

func (r *PostgresRepository) FetchUnsent(ctx context.Context, limit int32) ([]models.OutboxEvent, error) {
	rows, err := r.queries.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	events := make([]models.OutboxEvent, len(rows))
	for i, row := range rows {
		events[i] = dbEventToModel(row)
	}
	return events, nil
}

func (r *PostgresRepository) FetchByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error) {
	row, err := r.queries.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, ErrEventNotFound)
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	event := dbEventToModel(row)
	return &event, nil
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if err := r.queries.MarkOutboxSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func dbEventToModel(row db.MatchOutbox) models.OutboxEvent {
	return models.OutboxEvent{
		ID:        row.ID,
		MatchID:   row.MatchID,
		EventType: row.EventType,
		Payload:   row.Payload,
		CreatedAt: row.CreatedAt,
		SentAt:    sqlutil.FromSqlTimePtr(row.SentAt),
	}
}
