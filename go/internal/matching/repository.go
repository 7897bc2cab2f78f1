package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/matching/db"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	outboxdb "github.com/mcdev12/fantasymatch/go/internal/outbox/db"
	"github.com/mcdev12/fantasymatch/go/internal/sqlutil"
)

// PostgresRepository implements Repository over database/sql
type PostgresRepository struct {
	db      *sql.DB
	queries *db.Queries
}

// NewRepository creates a new matching repository
func NewRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      database,
		queries: db.New(database),
	}
}

var _ Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) CountAnswers(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := r.queries.CountAnswersByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return int(n), nil
}

func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(tx RepositoryTx) error) error {
	return sqlutil.Run(ctx, r.db, newPgTx, func(tx *pgTx) error {
		return fn(tx)
	})
}

type pgTx struct {
	queries *db.Queries
	outbox  *outboxdb.Queries
}

func newPgTx(tx *sql.Tx) *pgTx {
	return &pgTx{
		queries: db.New(tx),
		outbox:  outboxdb.New(tx),
	}
}

func (t *pgTx) LockUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := t.queries.LockProfile(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("profile %s: %w", userID, models.ErrIntakeIncomplete)
		}
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	return nil
}

func (t *pgTx) FindMatchForUser(ctx context.Context, userID uuid.UUID) (*models.Match, error) {
	row, err := t.queries.FindMatchForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbMatchToModel(row), nil
}

func (t *pgTx) ClaimCounterpart(ctx context.Context, candidateID uuid.UUID) (uuid.UUID, error) {
	id, err := t.queries.ClaimCounterpart(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("candidate %s: %w", candidateID, models.ErrNoCounterpart)
		}
		return uuid.Nil, fmt.Errorf("failed to claim counterpart: %w", err)
	}
	return id, nil
}

func (t *pgTx) CreateMatch(ctx context.Context, m models.Match) (*models.Match, error) {
	row, err := t.queries.CreateMatch(ctx, db.CreateMatchParams{
		ID:         m.ID,
		User1ID:    m.User1ID,
		User2ID:    m.User2ID,
		User1Alias: m.User1Alias,
		User2Alias: m.User2Alias,
		CreatedAt:  m.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return dbMatchToModel(row), nil
}

func (t *pgTx) InsertOutboxEvent(ctx context.Context, matchID uuid.UUID, eventType string, payload []byte) error {
	return t.outbox.InsertOutboxEvent(ctx, outboxdb.InsertOutboxEventParams{
		ID:        uuid.New(),
		MatchID:   matchID,
		EventType: eventType,
		Payload:   payload,
	})
}

func dbMatchToModel(m db.Match) *models.Match {
	return &models.Match{
		ID:           m.ID,
		User1ID:      m.User1ID,
		User2ID:      m.User2ID,
		User1Alias:   m.User1Alias,
		User2Alias:   m.User2Alias,
		UnlockedStep: int(m.UnlockedStep),
		CreatedAt:    m.CreatedAt,
	}
}
