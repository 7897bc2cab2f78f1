package unlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	outboxdb "github.com/mcdev12/fantasymatch/go/internal/outbox/db"
	"github.com/mcdev12/fantasymatch/go/internal/sqlutil"
	"github.com/mcdev12/fantasymatch/go/internal/unlock/db"
)

// Repository is the Postgres unlock ledger.
type Repository struct {
	db      *sql.DB
	queries *db.Queries
}

// NewRepository creates a new ledger repository
func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		db:      database,
		queries: db.New(database),
	}
}

var _ Ledger = (*Repository)(nil)

// GetMatch retrieves a match by ID
func (r *Repository) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	row, err := r.queries.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", matchID, models.ErrMatchNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return dbMatchToModel(row), nil
}

// ListUnlocks returns the disclosures of a match above sinceStep in step order
func (r *Repository) ListUnlocks(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error) {
	rows, err := r.queries.ListUnlocksSince(ctx, db.ListUnlocksSinceParams{
		MatchID:   matchID,
		SinceStep: int32(sinceStep),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}

	out := make([]models.Disclosure, len(rows))
	for i, row := range rows {
		out[i] = models.Disclosure{
			MatchID:      row.MatchID,
			FantasyID:    row.FantasyID,
			SourceUserID: row.SourceUserID,
			Step:         int(row.UnlockStep),
			Question:     row.Question,
			Answer:       row.Answer,
			Intensity:    int(row.Intensity),
			UnlockedAt:   row.UnlockedAt,
		}
	}
	return out, nil
}

// RunInTx runs fn in a single Postgres transaction
func (r *Repository) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return sqlutil.Run(ctx, r.db, newTxLedger, func(tx *txLedger) error {
		return fn(tx)
	})
}

type txLedger struct {
	queries *db.Queries
	outbox  *outboxdb.Queries
}

func newTxLedger(tx *sql.Tx) *txLedger {
	return &txLedger{
		queries: db.New(tx),
		outbox:  outboxdb.New(tx),
	}
}

// AdvanceStep is a compare-and-swap on matches.unlocked_step. The row lock taken by the
// UPDATE serialises racing advances; the loser matches zero rows.
func (t *txLedger) AdvanceStep(ctx context.Context, matchID uuid.UUID, expectedStep, nextStep int) (*models.Match, error) {
	row, err := t.queries.AdvanceMatchStep(ctx, db.AdvanceMatchStepParams{
		ID:           matchID,
		ExpectedStep: int32(expectedStep),
		NextStep:     int32(nextStep),
	})
	if err == nil {
		return dbMatchToModel(row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to advance step: %w", err)
	}

	exists, existsErr := t.queries.MatchExists(ctx, matchID)
	if existsErr != nil {
		return nil, fmt.Errorf("failed to check match: %w", existsErr)
	}
	if !exists {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrMatchNotFound)
	}
	return nil, fmt.Errorf("match %s step %d->%d: %w", matchID, expectedStep, nextStep, models.ErrStepConflict)
}

func (t *txLedger) RecordUnlock(ctx context.Context, u models.UnlockedFantasy) error {
	err := t.queries.InsertUnlockedFantasy(ctx, db.InsertUnlockedFantasyParams{
		ID:           u.ID,
		MatchID:      u.MatchID,
		FantasyID:    u.FantasyID,
		SourceUserID: u.SourceUserID,
		UnlockStep:   int32(u.UnlockStep),
		UnlockedAt:   u.UnlockedAt,
	})
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return fmt.Errorf("match %s step %d: %w", u.MatchID, u.UnlockStep, models.ErrDuplicateUnlock)
		}
		return fmt.Errorf("failed to insert unlocked fantasy: %w", err)
	}
	return nil
}

func (t *txLedger) InsertOutboxEvent(ctx context.Context, matchID uuid.UUID, eventType string, payload []byte) error {
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
