package unlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Ledger is the server-authoritative unlock state the app reads and mutates.
type Ledger interface {
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	ListUnlocks(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error)
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx holds the writes of one step advance. They commit or roll back together.
type LedgerTx interface {
	// AdvanceStep moves the match from expectedStep to nextStep only if it is still at
	// expectedStep, returning models.ErrStepConflict otherwise.
	AdvanceStep(ctx context.Context, matchID uuid.UUID, expectedStep, nextStep int) (*models.Match, error)
	RecordUnlock(ctx context.Context, unlocked models.UnlockedFantasy) error
	InsertOutboxEvent(ctx context.Context, matchID uuid.UUID, eventType string, payload []byte) error
}

// AnswerSource provides each user's stored answers ordered by creation.
type AnswerSource interface {
	ListFantasiesByUser(ctx context.Context, userID uuid.UUID) ([]models.FantasyAnswer, error)
}

// App evaluates and applies unlocks.
type App struct {
	ledger   Ledger
	answers  AnswerSource
	selector Selector
	policy   Policy
	clock    clockwork.Clock
}

// NewApp creates a new unlock App
func NewApp(ledger Ledger, answers AnswerSource, selector Selector, policy Policy, clock clockwork.Clock) *App {
	if selector == nil {
		selector = FirstAnswer{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		ledger:   ledger,
		answers:  answers,
		selector: selector,
		policy:   policy,
		clock:    clock,
	}
}

// Policy returns the cadence the app evaluates with.
func (a *App) Policy() Policy {
	return a.policy
}

// CheckUnlock reads the match, evaluates it against cumulativeSeconds and, when due,
// advances one step and discloses one answer per participant. A lost race against a
// concurrent advance is reported as an unsuccessful check carrying the fresh step.
func (a *App) CheckUnlock(ctx context.Context, matchID uuid.UUID, cumulativeSeconds int) (*CheckUnlockResponse, error) {
	if cumulativeSeconds < 0 {
		return nil, fmt.Errorf("%w: cumulativeSeconds must not be negative", ErrInvalidRequest)
	}

	match, err := a.ledger.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	decision := a.policy.Evaluate(match.UnlockedStep, cumulativeSeconds)
	if !decision.ShouldUnlock {
		return a.notUnlocked(MessageNotEnoughTime, match.UnlockedStep, cumulativeSeconds), nil
	}

	disclosures, err := a.advance(ctx, match, decision.NextStep)
	if errors.Is(err, models.ErrStepConflict) {
		fresh, getErr := a.ledger.GetMatch(ctx, matchID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to re-read match after conflict: %w", getErr)
		}
		log.Info().
			Str("match_id", matchID.String()).
			Int("step", fresh.UnlockedStep).
			Msg("step already unlocked by peer")
		return a.notUnlocked(MessageUnlockedByPeer, fresh.UnlockedStep, cumulativeSeconds), nil
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("match_id", matchID.String()).
		Int("step", decision.NextStep).
		Int("disclosures", len(disclosures)).
		Int("cumulative_seconds", cumulativeSeconds).
		Msg("fantasy step unlocked")

	return &CheckUnlockResponse{
		Success:      true,
		UnlockedStep: intPtr(decision.NextStep),
		Message:      fmt.Sprintf("Fantasy step %d unlocked!", decision.NextStep),
		Disclosures:  disclosures,
	}, nil
}

// advance performs the conditional step update, the disclosure rows and the outbox event
// in one transaction.
func (a *App) advance(ctx context.Context, match *models.Match, nextStep int) ([]models.Disclosure, error) {
	candidates := make(map[uuid.UUID]models.FantasyAnswer, 2)
	for _, userID := range match.Participants() {
		answers, err := a.answers.ListFantasiesByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list fantasies for user %s: %w", userID, err)
		}
		answer, ok := a.selector.Select(answers, nextStep)
		if !ok {
			log.Warn().
				Str("match_id", match.ID.String()).
				Str("user_id", userID.String()).
				Int("step", nextStep).
				Msg("participant has no fantasy to disclose, skipping")
			continue
		}
		candidates[userID] = answer
	}

	now := a.clock.Now().UTC()
	var disclosures []models.Disclosure

	err := a.ledger.RunInTx(ctx, func(tx LedgerTx) error {
		if _, err := tx.AdvanceStep(ctx, match.ID, match.UnlockedStep, nextStep); err != nil {
			return err
		}

		disclosures = disclosures[:0]
		for _, userID := range match.Participants() {
			answer, ok := candidates[userID]
			if !ok {
				continue
			}
			if err := tx.RecordUnlock(ctx, models.UnlockedFantasy{
				ID:           uuid.New(),
				MatchID:      match.ID,
				FantasyID:    answer.ID,
				SourceUserID: userID,
				UnlockStep:   nextStep,
				UnlockedAt:   now,
			}); err != nil {
				return fmt.Errorf("failed to record unlock: %w", err)
			}
			disclosures = append(disclosures, models.Disclosure{
				MatchID:      match.ID,
				FantasyID:    answer.ID,
				SourceUserID: userID,
				Step:         nextStep,
				Question:     answer.Question,
				Answer:       answer.AnswerText,
				Intensity:    answer.Intensity,
				UnlockedAt:   now,
			})
		}

		payload, err := json.Marshal(fantasyUnlockedPayload(match.ID, nextStep, disclosures, now))
		if err != nil {
			return fmt.Errorf("failed to marshal FantasyUnlocked payload: %w", err)
		}
		if err := tx.InsertOutboxEvent(ctx, match.ID, events.EventTypeFantasyUnlocked, payload); err != nil {
			return fmt.Errorf("failed to insert FantasyUnlocked event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return disclosures, nil
}

// ListDisclosures returns the disclosures above sinceStep for a rejoining client.
func (a *App) ListDisclosures(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error) {
	if sinceStep < 0 {
		return nil, fmt.Errorf("%w: sinceStep must not be negative", ErrInvalidRequest)
	}
	if _, err := a.ledger.GetMatch(ctx, matchID); err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	disclosures, err := a.ledger.ListUnlocks(ctx, matchID, sinceStep)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	return disclosures, nil
}

func (a *App) notUnlocked(message string, currentStep, cumulativeSeconds int) *CheckUnlockResponse {
	return &CheckUnlockResponse{
		Success:           false,
		Message:           message,
		CurrentStep:       intPtr(currentStep),
		TimeThreshold:     intPtr(a.policy.Threshold(currentStep)),
		CumulativeSeconds: intPtr(cumulativeSeconds),
	}
}

func fantasyUnlockedPayload(matchID uuid.UUID, step int, disclosures []models.Disclosure, at time.Time) events.FantasyUnlockedPayload {
	out := events.FantasyUnlockedPayload{
		MatchID:     matchID.String(),
		Step:        step,
		Disclosures: make([]events.DisclosedFantasy, 0, len(disclosures)),
		UnlockedAt:  at,
	}
	for _, d := range disclosures {
		out.Disclosures = append(out.Disclosures, events.DisclosedFantasy{
			FantasyID:    d.FantasyID.String(),
			SourceUserID: d.SourceUserID.String(),
			Question:     d.Question,
			Answer:       d.Answer,
			Intensity:    d.Intensity,
		})
	}
	return out
}
