package matching

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Repository defines what the app layer needs from the match store
type Repository interface {
	CountAnswers(ctx context.Context, userID uuid.UUID) (int, error)
	RunInTx(ctx context.Context, fn func(tx RepositoryTx) error) error
}

// RepositoryTx is the transactional view used while pairing.
type RepositoryTx interface {
	// LockUser serialises pairings of the same user. It fails with
	// models.ErrIntakeIncomplete when the user has no profile.
	LockUser(ctx context.Context, userID uuid.UUID) error
	// FindMatchForUser returns the user's most recent match, or nil when unmatched.
	FindMatchForUser(ctx context.Context, userID uuid.UUID) (*models.Match, error)
	// ClaimCounterpart returns the earliest unmatched user with answers, other than
	// candidateID, or models.ErrNoCounterpart.
	ClaimCounterpart(ctx context.Context, candidateID uuid.UUID) (uuid.UUID, error)
	CreateMatch(ctx context.Context, match models.Match) (*models.Match, error)
	InsertOutboxEvent(ctx context.Context, matchID uuid.UUID, eventType string, payload []byte) error
}

// App pairs users who completed fantasy intake
type App struct {
	repo  Repository
	clock clockwork.Clock
}

// NewApp creates a new matching App
func NewApp(repo Repository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// SelectMatch pairs candidateID with the first available counterpart and starts the
// match at step 0. A candidate that is already matched gets that match back.
func (a *App) SelectMatch(ctx context.Context, candidateID uuid.UUID) (*models.Match, bool, error) {
	if candidateID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}

	answers, err := a.repo.CountAnswers(ctx, candidateID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count answers: %w", err)
	}
	if answers == 0 {
		return nil, false, fmt.Errorf("user %s: %w", candidateID, models.ErrIntakeIncomplete)
	}

	var (
		result  *models.Match
		created bool
	)
	err = a.repo.RunInTx(ctx, func(tx RepositoryTx) error {
		if err := tx.LockUser(ctx, candidateID); err != nil {
			return err
		}

		existing, err := tx.FindMatchForUser(ctx, candidateID)
		if err != nil {
			return fmt.Errorf("failed to find existing match: %w", err)
		}
		if existing != nil {
			result = existing
			return nil
		}

		counterpart, err := tx.ClaimCounterpart(ctx, candidateID)
		if err != nil {
			return err
		}

		alias1, alias2 := pairAliases(candidateID, counterpart)
		match, err := tx.CreateMatch(ctx, models.Match{
			ID:           uuid.New(),
			User1ID:      candidateID,
			User2ID:      counterpart,
			User1Alias:   alias1,
			User2Alias:   alias2,
			UnlockedStep: 0,
			CreatedAt:    a.clock.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}

		payload, err := json.Marshal(events.MatchCreatedPayload{
			MatchID:    match.ID.String(),
			User1ID:    match.User1ID.String(),
			User2ID:    match.User2ID.String(),
			User1Alias: match.User1Alias,
			User2Alias: match.User2Alias,
			CreatedAt:  match.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal MatchCreated payload: %w", err)
		}
		if err := tx.InsertOutboxEvent(ctx, match.ID, events.EventTypeMatchCreated, payload); err != nil {
			return fmt.Errorf("failed to insert MatchCreated event: %w", err)
		}

		result = match
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info().
			Str("match_id", result.ID.String()).
			Str("user_id", candidateID.String()).
			Str("counterpart_id", result.User2ID.String()).
			Msg("match created")
	}
	return result, created, nil
}
