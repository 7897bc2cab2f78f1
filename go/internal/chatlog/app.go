package chatlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Repository defines what the app layer needs from the chat log store
type Repository interface {
	InsertMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error)
	ListPendingUnlocks(ctx context.Context, maxStep, intervalSeconds, limit int) ([]PendingUnlock, error)
}

// MatchReader resolves match participants.
type MatchReader interface {
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
}

// App records chat lines with the reported chat duration
type App struct {
	repo    Repository
	matches MatchReader
	clock   clockwork.Clock
}

// NewApp creates a new chat log App
func NewApp(repo Repository, matches MatchReader, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{repo: repo, matches: matches, clock: clock}
}

// RecordMessage stores a chat line from one of the match participants
func (a *App) RecordMessage(ctx context.Context, matchID, senderID uuid.UUID, text string, cumulativeSeconds int) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidMessage)
	}
	if cumulativeSeconds < 0 {
		return nil, fmt.Errorf("%w: cumulativeSeconds must not be negative", ErrInvalidMessage)
	}

	match, err := a.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if !match.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: sender %s is not in match %s", ErrInvalidMessage, senderID, matchID)
	}

	msg, err := a.repo.InsertMessage(ctx, models.ChatMessage{
		ID:                uuid.New(),
		MatchID:           matchID,
		SenderID:          senderID,
		Message:           text,
		CumulativeSeconds: cumulativeSeconds,
		SentAt:            a.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("match_id", matchID.String()).
		Str("user_id", senderID.String()).
		Int("cumulative_seconds", cumulativeSeconds).
		Msg("chat message recorded")
	return msg, nil
}

// ListPendingUnlocks returns matches below maxStep whose highest reported duration has
// reached the threshold for their next step, intervalSeconds per step.
func (a *App) ListPendingUnlocks(ctx context.Context, maxStep, intervalSeconds, limit int) ([]PendingUnlock, error) {
	return a.repo.ListPendingUnlocks(ctx, maxStep, intervalSeconds, limit)
}
