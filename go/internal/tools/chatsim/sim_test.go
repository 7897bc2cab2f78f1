package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/memstore"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			server:     "http://localhost:8080",
			user:       uuid.NewString(),
			speed:      1,
			duration:   time.Minute,
			checkEvery: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad user", mutate: func(c *Config) { c.user = "nope" }, wantErr: true},
		{name: "zero speed", mutate: func(c *Config) { c.speed = 0 }, wantErr: true},
		{name: "short duration", mutate: func(c *Config) { c.duration = time.Millisecond }, wantErr: true},
		{name: "no checks", mutate: func(c *Config) { c.checkEvery = 0 }, wantErr: true},
		{name: "no server", mutate: func(c *Config) { c.server = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.validate(); (err != nil) != tt.wantErr {
				t.Fatalf("unexpected validate result: err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestTickInterval(t *testing.T) {
	c := &Config{speed: 4}
	if got := c.tickInterval(); got != 250*time.Millisecond {
		t.Fatalf("unexpected tick interval: got=%s want=250ms", got)
	}
}

func TestSimulate(t *testing.T) {
	policy := unlock.Policy{Interval: 10 * time.Second, MaxStep: 3}
	clock := clockwork.NewRealClock()
	store := memstore.New(clock)
	store.AddQuestion(models.FantasyQuestion{Question: "Where?"})

	var users []uuid.UUID
	for _, text := range []string{"Anywhere", "Somewhere"} {
		p := store.AddProfile(models.Profile{})
		if _, err := store.AddAnswer(models.FantasyAnswer{UserID: p.ID, QuestionID: 1, AnswerText: text, Intensity: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		users = append(users, p.ID)
	}

	mux := http.NewServeMux()
	mux.Handle(unlock.NewService(unlock.NewApp(store.UnlockLedger(), store, nil, policy, clock)).Handler())
	mux.Handle(matching.NewService(matching.NewApp(store.MatchRepository(), clock)).Handler())
	chatlog.NewHandler(chatlog.NewApp(store, store, clock)).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := &Config{
		server:     srv.URL,
		user:       users[1].String(),
		speed:      200,
		duration:   60 * time.Second,
		checkEvery: 1,
		interval:   policy.Interval,
		maxStep:    policy.MaxStep,
		lines:      []string{"hello"},
		sayEvery:   20 * time.Second,
	}

	var out bytes.Buffer
	if err := simulate(context.Background(), cfg, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "Fantasy Unlocked"); n != 6 {
		t.Fatalf("unexpected announcement count: got=%d want=6\n%s", n, got)
	}
	if !strings.Contains(got, "step 3") {
		t.Fatalf("expected terminal step in summary:\n%s", got)
	}
	if !strings.Contains(got, "created match") {
		t.Fatalf("expected a new match:\n%s", got)
	}
	if len(store.Messages(mustMatchID(t, store, users[1]))) == 0 {
		t.Fatalf("expected recorded chat lines")
	}
}

func mustMatchID(t *testing.T, store *memstore.Store, userID uuid.UUID) uuid.UUID {
	t.Helper()
	for _, e := range store.OutboxEvents() {
		m, err := store.GetMatch(context.Background(), e.MatchID)
		if err == nil && m.HasParticipant(userID) {
			return m.ID
		}
	}
	t.Fatalf("no match for user %s", userID)
	return uuid.Nil
}
