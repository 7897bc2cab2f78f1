package outbox

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NotifyChannel is the channel the match_outbox trigger notifies on.
const NotifyChannel = "match_outbox_events"

type ListenerConfig struct {
	DatabaseURL      string
	NotifyChannel    string
	FallbackInterval time.Duration // sweep for rows whose notification was missed
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    NotifyChannel,
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// Notifier is the LISTEN side of a Postgres connection. *pq.Listener is adapted to it
// by pqNotifier.
type Notifier interface {
	Notifications() <-chan *pq.Notification
	Ping() error
	Close() error
}

type pqNotifier struct {
	*pq.Listener
}

func (n pqNotifier) Notifications() <-chan *pq.Notification {
	return n.Notify
}

// Listener drives a Relay from Postgres notifications with a polling fallback.
type Listener struct {
	relay    *Relay
	notifier Notifier
	cfg      ListenerConfig
	running  atomic.Bool
}

// NewListener opens a dedicated LISTEN connection on cfg.NotifyChannel.
func NewListener(relay *Relay, cfg ListenerConfig) (*Listener, error) {
	pl := pq.NewListener(cfg.DatabaseURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Int("event", int(ev)).Msg("outbox listener connection event")
			}
		},
	)
	if err := pl.Listen(cfg.NotifyChannel); err != nil {
		pl.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.NotifyChannel, err)
	}
	log.Info().Str("channel", cfg.NotifyChannel).Msg("outbox listener subscribed")

	return NewListenerWithNotifier(relay, pqNotifier{pl}, cfg), nil
}

func NewListenerWithNotifier(relay *Relay, notifier Notifier, cfg ListenerConfig) *Listener {
	return &Listener{relay: relay, notifier: notifier, cfg: cfg}
}

// Start blocks until ctx is cancelled. The backlog is swept once at startup and again
// after every reconnect, since notifications sent while disconnected are lost.
func (l *Listener) Start(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)

	l.sweep(ctx, "startup")

	clock := l.relay.clock
	ping := clock.NewTicker(l.cfg.PingInterval)
	fallback := clock.NewTicker(l.cfg.FallbackInterval)
	defer ping.Stop()
	defer fallback.Stop()

	log.Info().
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Dur("ping_interval", l.cfg.PingInterval).
		Msg("outbox listener running")

	notes := l.notifier.Notifications()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox listener stopping")
			return l.Stop()
		case note := <-notes:
			if note == nil {
				l.sweep(ctx, "reconnect")
				continue
			}
			if err := l.relay.HandleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Str("payload", note.Extra).Msg("failed to relay notified event")
			}
		case <-fallback.Chan():
			l.sweep(ctx, "fallback")
		case <-ping.Chan():
			if err := l.notifier.Ping(); err != nil {
				log.Warn().Err(err).Msg("outbox listener ping failed")
			}
		}
	}
}

func (l *Listener) sweep(ctx context.Context, reason string) {
	if _, err := l.relay.ProcessUnsent(ctx); err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("outbox sweep failed")
	}
}

func (l *Listener) Running() bool {
	return l.running.Load()
}

func (l *Listener) Stop() error {
	return l.notifier.Close()
}
