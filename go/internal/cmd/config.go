package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/fantasymatch/go/internal/reconcile"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port  string `yaml:"port"`
		Store string `yaml:"store"`
	} `yaml:"server"`

	Unlock struct {
		IntervalSeconds int    `yaml:"interval_seconds"`
		MaxStep         int    `yaml:"max_step"`
		Selection       string `yaml:"selection"`
	} `yaml:"unlock"`

	CORS struct {
		AllowedHeaders []string `yaml:"allowed_headers"`
	} `yaml:"cors"`

	Reconciler struct {
		Enabled         bool `yaml:"enabled"`
		IntervalSeconds int  `yaml:"interval_seconds"`
		BatchSize       int  `yaml:"batch_size"`
	} `yaml:"reconciler"`

	Outbox struct {
		PollIntervalMillis int `yaml:"poll_interval_ms"`
	} `yaml:"outbox"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.Store = StorePostgres
	c.Unlock.IntervalSeconds = int(unlock.DefaultInterval / time.Second)
	c.Unlock.MaxStep = unlock.DefaultMaxStep
	c.Unlock.Selection = unlock.SelectionFirst
	c.CORS.AllowedHeaders = append(unlock.DefaultAllowedHeaders(), "connect-protocol-version", "connect-timeout-ms")
	c.Reconciler.Enabled = true
	c.Reconciler.IntervalSeconds = 60
	c.Reconciler.BatchSize = 500
	c.Outbox.PollIntervalMillis = 500
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer env override")
	}
	return defaultValue
}

// loadConfig reads the YAML file over the defaults and then applies env overrides.
// A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyEnv()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Store = strings.ToLower(getEnv("STORE", c.Server.Store))
	c.Unlock.IntervalSeconds = getEnvAsInt("UNLOCK_INTERVAL_SECONDS", c.Unlock.IntervalSeconds)
	c.Unlock.MaxStep = getEnvAsInt("UNLOCK_MAX_STEP", c.Unlock.MaxStep)
	c.Unlock.Selection = getEnv("SELECTION_STRATEGY", c.Unlock.Selection)
}

func (c *Config) validate() error {
	if c.Server.Store != StoreMemory && c.Server.Store != StorePostgres {
		return fmt.Errorf("unknown store %q, want %q or %q", c.Server.Store, StoreMemory, StorePostgres)
	}
	if c.Outbox.PollIntervalMillis <= 0 {
		return fmt.Errorf("outbox poll interval must be positive, got %dms", c.Outbox.PollIntervalMillis)
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if _, err := unlock.NewSelector(c.Unlock.Selection); err != nil {
		return err
	}
	return nil
}

func (c *Config) Policy() unlock.Policy {
	return unlock.Policy{
		Interval: time.Duration(c.Unlock.IntervalSeconds) * time.Second,
		MaxStep:  c.Unlock.MaxStep,
	}
}

func (c *Config) ReconcilerConfig() reconcile.Config {
	cfg := reconcile.DefaultConfig()
	if c.Reconciler.IntervalSeconds > 0 {
		cfg.Interval = time.Duration(c.Reconciler.IntervalSeconds) * time.Second
	}
	if c.Reconciler.BatchSize > 0 {
		cfg.BatchSize = c.Reconciler.BatchSize
	}
	cfg.Policy = c.Policy()
	return cfg
}
