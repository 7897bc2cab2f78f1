package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/gateway"
	"github.com/mcdev12/fantasymatch/go/internal/intake"
	intakedb "github.com/mcdev12/fantasymatch/go/internal/intake/db"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/memstore"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/outbox"
	"github.com/mcdev12/fantasymatch/go/internal/reconcile"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

type Services struct {
	Unlock   *unlock.App
	Matching *matching.App
	ChatLog  *chatlog.App

	Reconciler *reconcile.Reconciler

	// Set in memory mode only; Postgres deployments run the relay and gateway binaries.
	Gateway *gateway.Service
	Relay   *outbox.Relay
}

func setupPostgresServices(database *sql.DB, config *Config) (*Services, error) {
	// Database layer → Repository layer → App layer
	selector, err := unlock.NewSelector(config.Unlock.Selection)
	if err != nil {
		return nil, err
	}

	ledger := unlock.NewRepository(database)
	answers := intake.NewRepository(intakedb.New(database))
	unlockApp := unlock.NewApp(ledger, answers, selector, config.Policy(), nil)

	matchingApp := matching.NewApp(matching.NewRepository(database), nil)
	chatLogApp := chatlog.NewApp(chatlog.NewRepository(database), ledger, nil)

	return &Services{
		Unlock:     unlockApp,
		Matching:   matchingApp,
		ChatLog:    chatLogApp,
		Reconciler: reconcile.New(chatLogApp, unlockApp, config.ReconcilerConfig(), nil),
	}, nil
}

func setupMemoryServices(config *Config) (*Services, error) {
	selector, err := unlock.NewSelector(config.Unlock.Selection)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	store := memstore.New(clock)
	seedDemo(store)

	unlockApp := unlock.NewApp(store.UnlockLedger(), store, selector, config.Policy(), clock)
	matchingApp := matching.NewApp(store.MatchRepository(), clock)
	chatLogApp := chatlog.NewApp(store, store, clock)

	gw := gateway.NewLocalService(gateway.DefaultConnectionConfig(), unlockApp)
	relay := outbox.NewRelay(store, gw.Publisher(), outbox.DefaultRelayConfig(), clock)

	return &Services{
		Unlock:     unlockApp,
		Matching:   matchingApp,
		ChatLog:    chatLogApp,
		Reconciler: reconcile.New(chatLogApp, unlockApp, config.ReconcilerConfig(), clock),
		Gateway:    gw,
		Relay:      relay,
	}, nil
}

// Demo users for memory mode, stable across restarts so the chat simulator can target them.
var (
	DemoUserA = uuid.MustParse("00000000-0000-4000-8000-00000000000a")
	DemoUserB = uuid.MustParse("00000000-0000-4000-8000-00000000000b")
)

var demoQuestions = []string{
	"Where is the most adventurous place you'd want to be kissed?",
	"What outfit would you love to see your partner wear?",
	"Describe your perfect slow evening together.",
}

var demoAnswers = map[uuid.UUID][]string{
	DemoUserA: {"On a rooftop during a thunderstorm", "A tailored suit", "Candles and a record player"},
	DemoUserB: {"In a library aisle", "Something vintage", "Cooking together with wine"},
}

func seedDemo(store *memstore.Store) {
	for i, q := range demoQuestions {
		store.AddQuestion(models.FantasyQuestion{Question: q, Theme: "romance", IntensityLevel: i + 1})
	}
	for _, userID := range []uuid.UUID{DemoUserA, DemoUserB} {
		store.AddProfile(models.Profile{ID: userID})
		for i, text := range demoAnswers[userID] {
			if _, err := store.AddAnswer(models.FantasyAnswer{
				UserID:     userID,
				QuestionID: i + 1,
				AnswerText: text,
				Intensity:  i + 1,
			}); err != nil {
				log.Fatal().Err(err).Msg("failed to seed demo answers")
			}
		}
	}
	log.Info().
		Str("user_a", DemoUserA.String()).
		Str("user_b", DemoUserB.String()).
		Msg("seeded demo intake data")
}

// startBackground runs the reconciler, and in memory mode the gateway and relay poll loop.
func (s *Services) startBackground(ctx context.Context, config *Config) error {
	if s.Gateway != nil {
		go func() {
			if err := s.Gateway.Start(ctx); err != nil {
				log.Error().Err(err).Msg("gateway failed")
			}
		}()
	}
	if s.Relay != nil {
		go s.Relay.Poll(ctx, time.Duration(config.Outbox.PollIntervalMillis)*time.Millisecond)
	}
	if config.Reconciler.Enabled {
		if err := s.Reconciler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reconciler: %w", err)
		}
	}
	return nil
}

func (s *Services) stopBackground() {
	if err := s.Reconciler.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop reconciler")
	}
}
