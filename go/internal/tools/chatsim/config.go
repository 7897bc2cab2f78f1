package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	server       string
	user         string
	speed        float64
	duration     time.Duration
	checkEvery   int
	interval     time.Duration
	maxStep      int
	lines        []string
	sayEvery     time.Duration
	quickReplies bool
	verbose      bool
}

func (c *Config) validate() error {
	if c.server == "" {
		return errors.New("--server is required")
	}
	if _, err := uuid.Parse(c.user); err != nil {
		return fmt.Errorf("invalid --user %q: %w", c.user, err)
	}
	if c.speed <= 0 {
		return fmt.Errorf("invalid speed (must be positive): %v", c.speed)
	}
	if c.duration < time.Second {
		return fmt.Errorf("invalid duration (must be at least 1s): %s", c.duration)
	}
	if c.checkEvery < 1 {
		return fmt.Errorf("invalid check interval (must be at least 1 tick): %d", c.checkEvery)
	}
	return nil
}

// tickInterval is the wall time that stands in for one chat second.
func (c *Config) tickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.speed)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FANTASY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "chatsim",
		Short:         "Runs an anonymous chat session against a fantasymatch server and prints the timeline.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return simulate(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "http://localhost:8080", "fantasymatch server URL (env: FANTASY_SERVER)")
	fs.StringVarP(&cfg.user, "user", "u", "", "user id to chat as (env: FANTASY_USER)")
	fs.Float64Var(&cfg.speed, "speed", 1, "chat seconds per wall second (env: FANTASY_SPEED)")
	fs.DurationVarP(&cfg.duration, "duration", "d", 61*time.Minute, "chat time to simulate (env: FANTASY_DURATION)")
	fs.IntVar(&cfg.checkEvery, "check-every", 1, "ticks between unlock checks (env: FANTASY_CHECK_EVERY)")
	fs.DurationVar(&cfg.interval, "unlock-interval", 20*time.Minute, "chat time between unlocks, for the countdown only (env: FANTASY_UNLOCK_INTERVAL)")
	fs.IntVar(&cfg.maxStep, "max-step", 3, "terminal unlock step (env: FANTASY_MAX_STEP)")
	fs.StringSliceVar(&cfg.lines, "say", []string{"Hi!", "What made you pick that answer?", "Tell me more."}, "lines to send in turn (env: FANTASY_SAY)")
	fs.DurationVar(&cfg.sayEvery, "say-every", 5*time.Minute, "chat time between sent lines, 0 disables (env: FANTASY_SAY_EVERY)")
	fs.BoolVar(&cfg.quickReplies, "quick-replies", true, "simulate counterpart replies (env: FANTASY_QUICK_REPLIES)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log unlock checks (env: FANTASY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
