package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/outbox"
)

func (s *Store) FetchUnsent(_ context.Context, limit int32) ([]models.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OutboxEvent
	for _, e := range s.outbox {
		if e.SentAt != nil {
			continue
		}
		if int32(len(out)) >= limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) FetchByID(_ context.Context, id uuid.UUID) (*models.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.outbox {
		if e.ID == id && e.SentAt == nil {
			e := e
			return &e, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", id, outbox.ErrEventNotFound)
}

func (s *Store) MarkSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			now := s.clock.Now().UTC()
			s.outbox[i].SentAt = &now
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", id, outbox.ErrEventNotFound)
}
