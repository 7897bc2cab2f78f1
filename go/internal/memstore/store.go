// Package memstore is an in-process datastore for local runs and tests. Every
// transaction holds the store lock for its whole body and buffers its writes,
// so a conditional step advance behaves like the Postgres one under concurrency.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/outbox"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock

	profiles  map[uuid.UUID]models.Profile
	questions map[int]models.FantasyQuestion
	answers   map[uuid.UUID]models.FantasyAnswer
	matches   map[uuid.UUID]models.Match
	unlocks   []models.UnlockedFantasy
	messages  []models.ChatMessage
	outbox    []models.OutboxEvent
}

func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:     clock,
		profiles:  make(map[uuid.UUID]models.Profile),
		questions: make(map[int]models.FantasyQuestion),
		answers:   make(map[uuid.UUID]models.FantasyAnswer),
		matches:   make(map[uuid.UUID]models.Match),
	}
}

// AddProfile stores a profile, stamping CreatedAt when unset.
func (s *Store) AddProfile(p models.Profile) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.Now().UTC()
	}
	s.profiles[p.ID] = p
	return p
}

func (s *Store) AddQuestion(q models.FantasyQuestion) models.FantasyQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == 0 {
		q.ID = len(s.questions) + 1
	}
	s.questions[q.ID] = q
	return q
}

// AddAnswer stores an intake answer and copies in its question text.
func (s *Store) AddAnswer(a models.FantasyAnswer) (models.FantasyAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[a.QuestionID]
	if !ok {
		return models.FantasyAnswer{}, fmt.Errorf("question %d does not exist", a.QuestionID)
	}
	if a.Intensity < 1 || a.Intensity > 5 {
		return models.FantasyAnswer{}, fmt.Errorf("intensity %d out of range 1..5", a.Intensity)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock.Now().UTC()
	}
	a.Question = q.Question
	s.answers[a.ID] = a
	return a, nil
}

// AddMatch stores a match as-is, stamping CreatedAt when unset.
func (s *Store) AddMatch(m models.Match) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.clock.Now().UTC()
	}
	s.matches[m.ID] = m
	return m
}

func (s *Store) GetMatch(_ context.Context, matchID uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrMatchNotFound)
	}
	return &m, nil
}

// ListFantasiesByUser returns a user's answers oldest first, ties broken by question id.
func (s *Store) ListFantasiesByUser(_ context.Context, userID uuid.UUID) ([]models.FantasyAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersOf(userID), nil
}

func (s *Store) answersOf(userID uuid.UUID) []models.FantasyAnswer {
	var out []models.FantasyAnswer
	for _, a := range s.answers {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}

// ListUnlocks returns the disclosures of a match with step greater than sinceStep.
func (s *Store) ListUnlocks(_ context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Disclosure
	for _, u := range s.unlocks {
		if u.MatchID != matchID || u.UnlockStep <= sinceStep {
			continue
		}
		a := s.answers[u.FantasyID]
		out = append(out, models.Disclosure{
			MatchID:      u.MatchID,
			FantasyID:    u.FantasyID,
			SourceUserID: u.SourceUserID,
			Step:         u.UnlockStep,
			Question:     a.Question,
			Answer:       a.AnswerText,
			Intensity:    a.Intensity,
			UnlockedAt:   u.UnlockedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Step != out[j].Step {
			return out[i].Step < out[j].Step
		}
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].SourceUserID.String() < out[j].SourceUserID.String()
	})
	return out, nil
}

// CountAnswers reports how many intake answers a user has stored.
func (s *Store) CountAnswers(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answersOf(userID)), nil
}

// Unlocks returns the committed disclosure rows of a match.
func (s *Store) Unlocks(matchID uuid.UUID) []models.UnlockedFantasy {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UnlockedFantasy
	for _, u := range s.unlocks {
		if u.MatchID == matchID {
			out = append(out, u)
		}
	}
	return out
}

// OutboxEvents returns every committed outbox row in insertion order.
func (s *Store) OutboxEvents() []models.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OutboxEvent, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// Messages returns the stored chat lines of a match in insertion order.
func (s *Store) Messages(matchID uuid.UUID) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	return out
}

// UnlockLedger adapts the store to unlock.Ledger.
func (s *Store) UnlockLedger() *UnlockLedger {
	return &UnlockLedger{Store: s}
}

// MatchRepository adapts the store to matching.Repository.
func (s *Store) MatchRepository() *MatchRepository {
	return &MatchRepository{Store: s}
}

type UnlockLedger struct {
	*Store
}

func (l *UnlockLedger) RunInTx(ctx context.Context, fn func(tx unlock.LedgerTx) error) error {
	return l.runInTx(ctx, func(t *tx) error { return fn(t) })
}

type MatchRepository struct {
	*Store
}

func (r *MatchRepository) RunInTx(ctx context.Context, fn func(tx matching.RepositoryTx) error) error {
	return r.runInTx(ctx, func(t *tx) error { return fn(t) })
}

var (
	_ unlock.Ledger       = (*UnlockLedger)(nil)
	_ unlock.AnswerSource = (*Store)(nil)
	_ matching.Repository = (*MatchRepository)(nil)
	_ chatlog.Repository  = (*Store)(nil)
	_ chatlog.MatchReader = (*Store)(nil)
	_ outbox.Repository   = (*Store)(nil)
)
