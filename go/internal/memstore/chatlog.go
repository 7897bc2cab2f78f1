package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

func (s *Store) InsertMessage(_ context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[msg.MatchID]; !ok {
		return nil, fmt.Errorf("match %s: %w", msg.MatchID, models.ErrMatchNotFound)
	}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

// ListPendingUnlocks mirrors the SQL rollup: matches below maxStep whose highest
// reported duration has reached intervalSeconds*(step+1).
func (s *Store) ListPendingUnlocks(_ context.Context, maxStep, intervalSeconds, limit int) ([]chatlog.PendingUnlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	longest := make(map[uuid.UUID]int)
	for _, msg := range s.messages {
		if cur, ok := longest[msg.MatchID]; !ok || msg.CumulativeSeconds > cur {
			longest[msg.MatchID] = msg.CumulativeSeconds
		}
	}

	var out []chatlog.PendingUnlock
	for matchID, seconds := range longest {
		m, ok := s.matches[matchID]
		if !ok || m.UnlockedStep >= maxStep {
			continue
		}
		if seconds < intervalSeconds*(m.UnlockedStep+1) {
			continue
		}
		out = append(out, chatlog.PendingUnlock{
			MatchID:           matchID,
			UnlockedStep:      m.UnlockedStep,
			CumulativeSeconds: seconds,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID.String() < out[j].MatchID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
