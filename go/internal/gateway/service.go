package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the match gateway: WebSocket connections plus the event feed that drives them
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the match gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the match gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates a gateway fed by the JetStream match event stream
func NewService(ctx context.Context, config Config, disclosures DisclosureSource) (*Service, error) {
	s := NewLocalService(config.ConnectionConfig, disclosures)

	consumer, err := NewEventConsumer(ctx, s.connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}
	s.eventConsumer = consumer
	return s, nil
}

// NewLocalService creates a gateway without a bus; events arrive through Publisher.
func NewLocalService(config ConnectionConfig, disclosures DisclosureSource) *Service {
	cm := NewConnectionManager(config)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, disclosures),
	}
}

// Publisher returns an outbox publisher that broadcasts in-process.
func (s *Service) Publisher() *LocalPublisher {
	return NewLocalPublisher(s.connectionManager)
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("jetstream", s.eventConsumer != nil).Msg("starting match gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("match gateway service shutting down")
	return s.Stop()
}

func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("match gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("match gateway routes registered")
}

func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.Stats()
}

// Healthy reports whether the event feed is connected. A local gateway is always healthy.
func (s *Service) Healthy() bool {
	return s.eventConsumer == nil || s.eventConsumer.Connected()
}
