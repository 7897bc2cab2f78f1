package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

// tx buffers writes against a locked Store until commit.
type tx struct {
	s       *Store
	matches map[uuid.UUID]models.Match
	unlocks []models.UnlockedFantasy
	outbox  []models.OutboxEvent
}

func (s *Store) runInTx(ctx context.Context, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s, matches: make(map[uuid.UUID]models.Match)}
	if err := fn(t); err != nil {
		return err
	}

	for id, m := range t.matches {
		s.matches[id] = m
	}
	s.unlocks = append(s.unlocks, t.unlocks...)
	s.outbox = append(s.outbox, t.outbox...)
	return nil
}

func (t *tx) match(id uuid.UUID) (models.Match, bool) {
	if m, ok := t.matches[id]; ok {
		return m, true
	}
	m, ok := t.s.matches[id]
	return m, ok
}

func (t *tx) AdvanceStep(_ context.Context, matchID uuid.UUID, expectedStep, nextStep int) (*models.Match, error) {
	m, ok := t.match(matchID)
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrMatchNotFound)
	}
	if m.UnlockedStep != expectedStep {
		return nil, fmt.Errorf("match %s at step %d, expected %d: %w", matchID, m.UnlockedStep, expectedStep, models.ErrStepConflict)
	}
	if nextStep < 0 || nextStep > 3 {
		return nil, fmt.Errorf("step %d out of range 0..3", nextStep)
	}
	m.UnlockedStep = nextStep
	t.matches[matchID] = m
	return &m, nil
}

func (t *tx) RecordUnlock(_ context.Context, u models.UnlockedFantasy) error {
	if u.UnlockStep < 1 || u.UnlockStep > 3 {
		return fmt.Errorf("unlock step %d out of range 1..3", u.UnlockStep)
	}
	dup := func(existing models.UnlockedFantasy) bool {
		return existing.MatchID == u.MatchID &&
			existing.UnlockStep == u.UnlockStep &&
			existing.SourceUserID == u.SourceUserID
	}
	for _, existing := range t.s.unlocks {
		if dup(existing) {
			return models.ErrDuplicateUnlock
		}
	}
	for _, existing := range t.unlocks {
		if dup(existing) {
			return models.ErrDuplicateUnlock
		}
	}
	t.unlocks = append(t.unlocks, u)
	return nil
}

func (t *tx) InsertOutboxEvent(_ context.Context, matchID uuid.UUID, eventType string, payload []byte) error {
	t.outbox = append(t.outbox, models.OutboxEvent{
		ID:        uuid.New(),
		MatchID:   matchID,
		EventType: eventType,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: t.s.clock.Now().UTC(),
	})
	return nil
}

func (t *tx) LockUser(_ context.Context, userID uuid.UUID) error {
	if _, ok := t.s.profiles[userID]; !ok {
		return fmt.Errorf("profile %s: %w", userID, models.ErrIntakeIncomplete)
	}
	return nil
}

func (t *tx) allMatches() []models.Match {
	out := make([]models.Match, 0, len(t.s.matches)+len(t.matches))
	for id, m := range t.s.matches {
		if _, staged := t.matches[id]; staged {
			continue
		}
		out = append(out, m)
	}
	for _, m := range t.matches {
		out = append(out, m)
	}
	return out
}

func (t *tx) FindMatchForUser(_ context.Context, userID uuid.UUID) (*models.Match, error) {
	var latest *models.Match
	for _, m := range t.allMatches() {
		if !m.HasParticipant(userID) {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			m := m
			latest = &m
		}
	}
	return latest, nil
}

func (t *tx) ClaimCounterpart(_ context.Context, candidateID uuid.UUID) (uuid.UUID, error) {
	matched := make(map[uuid.UUID]bool)
	for _, m := range t.allMatches() {
		matched[m.User1ID] = true
		matched[m.User2ID] = true
	}

	var pool []models.Profile
	for id, p := range t.s.profiles {
		if id == candidateID || matched[id] || len(t.s.answersOf(id)) == 0 {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return uuid.Nil, models.ErrNoCounterpart
	}
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].CreatedAt.Equal(pool[j].CreatedAt) {
			return pool[i].CreatedAt.Before(pool[j].CreatedAt)
		}
		return pool[i].ID.String() < pool[j].ID.String()
	})
	return pool[0].ID, nil
}

func (t *tx) CreateMatch(_ context.Context, m models.Match) (*models.Match, error) {
	if m.User1ID == m.User2ID {
		return nil, fmt.Errorf("match %s pairs user %s with itself", m.ID, m.User1ID)
	}
	if _, exists := t.match(m.ID); exists {
		return nil, fmt.Errorf("match %s already exists", m.ID)
	}
	t.matches[m.ID] = m
	return &m, nil
}
