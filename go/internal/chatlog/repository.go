package chatlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/fantasymatch/go/internal/chatlog/db"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

// PostgresRepository persists chat lines and reads reconcile candidates
type PostgresRepository struct {
	queries *db.Queries
}

// NewRepository creates a new chat log repository
func NewRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: db.New(database)}
}

func (r *PostgresRepository) InsertMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	row, err := r.queries.InsertChatMessage(ctx, db.InsertChatMessageParams{
		ID:                msg.ID,
		MatchID:           msg.MatchID,
		SenderID:          msg.SenderID,
		Message:           msg.Message,
		CumulativeSeconds: int32(msg.CumulativeSeconds),
		SentAt:            msg.SentAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return &models.ChatMessage{
		ID:                row.ID,
		MatchID:           row.MatchID,
		SenderID:          row.SenderID,
		Message:           row.Message,
		CumulativeSeconds: int(row.CumulativeSeconds),
		SentAt:            row.SentAt,
	}, nil
}

func (r *PostgresRepository) ListPendingUnlocks(ctx context.Context, maxStep, intervalSeconds, limit int) ([]PendingUnlock, error) {
	rows, err := r.queries.ListPendingUnlocks(ctx, db.ListPendingUnlocksParams{
		MaxStep:         int32(maxStep),
		IntervalSeconds: int32(intervalSeconds),
		Limit:           int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending unlocks: %w", err)
	}
	out := make([]PendingUnlock, len(rows))
	for i, row := range rows {
		out[i] = PendingUnlock{
			MatchID:           row.ID,
			UnlockedStep:      int(row.UnlockedStep),
			CumulativeSeconds: int(row.CumulativeSeconds),
		}
	}
	return out, nil
}

