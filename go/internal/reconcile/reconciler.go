// Package reconcile advances matches from the chat durations stored on the server,
// so unlocks happen even when no client is polling.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
	"github.com/rs/zerolog/log"
)

type PendingSource interface {
	ListPendingUnlocks(ctx context.Context, maxStep, intervalSeconds, limit int) ([]chatlog.PendingUnlock, error)
}

type UnlockChecker interface {
	CheckUnlock(ctx context.Context, matchID uuid.UUID, cumulativeSeconds int) (*unlock.CheckUnlockResponse, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	Policy    unlock.Policy
}

func DefaultConfig() Config {
	return Config{
		Interval:  time.Minute,
		BatchSize: 500,
		Policy:    unlock.DefaultPolicy(),
	}
}

// Result counts the outcome of one pass.
type Result struct {
	Due      int
	Advanced int
	Failed   int
}

type Reconciler struct {
	pending PendingSource
	checker UnlockChecker
	cfg     Config
	clock   clockwork.Clock

	mu    sync.Mutex
	sched gocron.Scheduler
}

func New(pending PendingSource, checker UnlockChecker, cfg Config, clock clockwork.Clock) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{pending: pending, checker: checker, cfg: cfg, clock: clock}
}

// RunOnce checks every match whose stored duration has reached its next threshold.
// Each match advances at most one step per pass.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	// only matches at or past their next threshold come back
	intervalSeconds := int(r.cfg.Policy.Interval / time.Second)
	pending, err := r.pending.ListPendingUnlocks(ctx, r.cfg.Policy.MaxStep, intervalSeconds, r.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("failed to list pending unlocks: %w", err)
	}

	for _, p := range pending {
		if !r.cfg.Policy.Evaluate(p.UnlockedStep, p.CumulativeSeconds).ShouldUnlock {
			continue
		}
		res.Due++

		out, err := r.checker.CheckUnlock(ctx, p.MatchID, p.CumulativeSeconds)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Str("match_id", p.MatchID.String()).Msg("reconcile unlock failed")
			continue
		}
		if out.Success {
			res.Advanced++
		}
	}

	if res.Due > 0 {
		log.Info().
			Int("due", res.Due).
			Int("advanced", res.Advanced).
			Int("failed", res.Failed).
			Msg("reconciled pending unlocks")
	}
	return res, nil
}

// Start schedules RunOnce every Interval until Stop.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched != nil {
		return fmt.Errorf("reconciler already started")
	}

	sched, err := gocron.NewScheduler(gocron.WithClock(r.clock))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.cfg.Interval),
		gocron.NewTask(func() {
			if _, err := r.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("reconcile pass failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("unlock-reconciler"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule reconciler: %w", err)
	}

	sched.Start()
	r.sched = sched
	log.Info().Dur("interval", r.cfg.Interval).Msg("unlock reconciler started")
	return nil
}

func (r *Reconciler) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched == nil {
		return nil
	}
	err := r.sched.Shutdown()
	r.sched = nil
	return err
}
