package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Publisher delivers one outbox event to the bus.
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// RelayConfig controls batching and publish retries
type RelayConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	BatchSize  int32
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		MaxRetries: 5,
		RetryDelay: 200 * time.Millisecond,
		BatchSize:  100,
	}
}

// Relay moves outbox rows to the bus and marks them sent. Delivery is at least once;
// the publisher dedupes by event id.
type Relay struct {
	repo      Repository
	publisher Publisher
	cfg       RelayConfig
	clock     clockwork.Clock

	mu        sync.Mutex
	processed uint64
	lastSent  time.Time
}

func NewRelay(repo Repository, publisher Publisher, cfg RelayConfig, clock clockwork.Clock) *Relay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relay{repo: repo, publisher: publisher, cfg: cfg, clock: clock}
}

// HandleNotification publishes the event whose id arrived as a notification payload.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := r.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			// already relayed by the fallback poll
			log.Debug().Str("event_id", id.String()).Msg("notified event already sent")
			return nil
		}
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := r.publishAndMark(ctx, *event); err != nil {
		return err
	}
	log.Info().Str("event_id", id.String()).Msg("published and marked event as sent")
	return nil
}

// ProcessUnsent relays one batch of unsent events, oldest first.
func (r *Relay) ProcessUnsent(ctx context.Context) (int, error) {
	unsent, err := r.repo.FetchUnsent(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	sent := 0
	for _, event := range unsent {
		if err := r.publishAndMark(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to relay event")
			continue
		}
		sent++
	}
	if len(unsent) > 0 {
		log.Info().
			Int("sent", sent).
			Int("total", len(unsent)).
			Msg("processed unsent events batch")
	}
	return sent, nil
}

func (r *Relay) publishAndMark(ctx context.Context, event models.OutboxEvent) error {
	if err := r.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := r.repo.MarkSent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event %s sent: %w", event.ID, err)
	}

	r.mu.Lock()
	r.processed++
	r.lastSent = r.clock.Now()
	r.mu.Unlock()
	return nil
}

// Stats returns the number of relayed events and when the last one was sent.
func (r *Relay) Stats() (uint64, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed, r.lastSent
}

// publishWithRetry backs off linearly between attempts.
func (r *Relay) publishWithRetry(ctx context.Context, event models.OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

// Poll relays unsent events every interval until ctx is done. Used where no
// LISTEN/NOTIFY channel exists, such as the in-memory store.
func (r *Relay) Poll(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := r.ProcessUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("outbox poll failed")
			}
		}
	}
}
