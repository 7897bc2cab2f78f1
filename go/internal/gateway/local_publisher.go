package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

// LocalPublisher hands outbox events straight to an in-process ConnectionManager,
// for single-binary runs without a message bus.
type LocalPublisher struct {
	cm *ConnectionManager
}

func NewLocalPublisher(cm *ConnectionManager) *LocalPublisher {
	return &LocalPublisher{cm: cm}
}

func (p *LocalPublisher) Publish(_ context.Context, event models.OutboxEvent) error {
	data, err := json.Marshal(events.Envelope{
		EventID:   event.ID.String(),
		EventType: event.EventType,
		MatchID:   event.MatchID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   event.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return Dispatch(p.cm, data)
}
