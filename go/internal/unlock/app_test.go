package unlock_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/memstore"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

type fixture struct {
	store *memstore.Store
	clock *clockwork.FakeClock
	match models.Match
	app   *unlock.App
}

// newFixture seeds a match at step 0 whose participants answered the given number of questions.
func newFixture(t *testing.T, user1Answers, user2Answers int, selector unlock.Selector) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	store := memstore.New(clock)

	for i := 1; i <= 3; i++ {
		store.AddQuestion(models.FantasyQuestion{Question: "Question " + string(rune('A'+i-1)), IntensityLevel: i})
	}

	u1 := store.AddProfile(models.Profile{})
	u2 := store.AddProfile(models.Profile{})
	for i, n := range []int{user1Answers, user2Answers} {
		userID := u1.ID
		if i == 1 {
			userID = u2.ID
		}
		for q := 1; q <= n; q++ {
			clock.Advance(time.Minute)
			if _, err := store.AddAnswer(models.FantasyAnswer{
				UserID:     userID,
				QuestionID: q,
				AnswerText: "answer " + string(rune('0'+q)),
				Intensity:  q,
			}); err != nil {
				t.Fatalf("unexpected error seeding answer: %v", err)
			}
		}
	}

	match := store.AddMatch(models.Match{User1ID: u1.ID, User2ID: u2.ID, User1Alias: "CrimsonOwl", User2Alias: "VelvetFox"})
	app := unlock.NewApp(store.UnlockLedger(), store, selector, unlock.DefaultPolicy(), clock)
	return &fixture{store: store, clock: clock, match: match, app: app}
}

func (f *fixture) step(t *testing.T) int {
	t.Helper()
	m, err := f.store.GetMatch(context.Background(), f.match.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m.UnlockedStep
}

func intValue(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func TestCheckUnlock_BelowThreshold(t *testing.T) {
	f := newFixture(t, 3, 3, nil)

	res, err := f.app.CheckUnlock(context.Background(), f.match.ID, 1199)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("unexpected success below threshold")
	}
	if res.Message != unlock.MessageNotEnoughTime {
		t.Fatalf("unexpected message: got=%q want=%q", res.Message, unlock.MessageNotEnoughTime)
	}
	if got := intValue(res.CurrentStep); got != 0 {
		t.Fatalf("unexpected currentStep: got=%d want=0", got)
	}
	if got := intValue(res.TimeThreshold); got != 1200 {
		t.Fatalf("unexpected timeThreshold: got=%d want=1200", got)
	}
	if got := intValue(res.CumulativeSeconds); got != 1199 {
		t.Fatalf("unexpected cumulativeSeconds: got=%d want=1199", got)
	}
	if n := len(f.store.Unlocks(f.match.ID)); n != 0 {
		t.Fatalf("unexpected unlock rows: got=%d want=0", n)
	}
}

func TestCheckUnlock_AtThreshold(t *testing.T) {
	f := newFixture(t, 3, 3, nil)

	res, err := f.app.CheckUnlock(context.Background(), f.match.ID, 1200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if got := intValue(res.UnlockedStep); got != 1 {
		t.Fatalf("unexpected unlockedStep: got=%d want=1", got)
	}
	if res.Message != "Fantasy step 1 unlocked!" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if got := f.step(t); got != 1 {
		t.Fatalf("unexpected stored step: got=%d want=1", got)
	}

	rows := f.store.Unlocks(f.match.ID)
	if len(rows) != 2 {
		t.Fatalf("unexpected unlock rows: got=%d want=2", len(rows))
	}
	sources := map[uuid.UUID]bool{}
	for _, row := range rows {
		if row.UnlockStep != 1 {
			t.Fatalf("unexpected unlock step: got=%d want=1", row.UnlockStep)
		}
		sources[row.SourceUserID] = true
	}
	if !sources[f.match.User1ID] || !sources[f.match.User2ID] {
		t.Fatalf("expected one row per participant, got %+v", rows)
	}

	if len(res.Disclosures) != 2 {
		t.Fatalf("unexpected disclosures: got=%d want=2", len(res.Disclosures))
	}
	for _, d := range res.Disclosures {
		if d.Question != "Question A" || d.Answer != "answer 1" {
			t.Fatalf("unexpected first disclosure: %+v", d)
		}
	}
}

func TestCheckUnlock_TerminalStep(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	ctx := context.Background()

	for i, seconds := range []int{1200, 2400, 3600} {
		res, err := f.app.CheckUnlock(ctx, f.match.ID, seconds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success || intValue(res.UnlockedStep) != i+1 {
			t.Fatalf("unexpected response at %ds: %+v", seconds, res)
		}
	}

	for _, seconds := range []int{0, 4800, 100000} {
		res, err := f.app.CheckUnlock(ctx, f.match.ID, seconds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success {
			t.Fatalf("unexpected success at terminal step with %ds", seconds)
		}
		if got := intValue(res.CurrentStep); got != 3 {
			t.Fatalf("unexpected currentStep: got=%d want=3", got)
		}
	}

	if n := len(f.store.Unlocks(f.match.ID)); n != 6 {
		t.Fatalf("unexpected unlock rows: got=%d want=6", n)
	}
}

func TestCheckUnlock_ParticipantWithoutAnswers(t *testing.T) {
	f := newFixture(t, 2, 0, nil)

	res, err := f.app.CheckUnlock(context.Background(), f.match.ID, 1200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected step to advance, got %+v", res)
	}
	if got := f.step(t); got != 1 {
		t.Fatalf("unexpected stored step: got=%d want=1", got)
	}

	rows := f.store.Unlocks(f.match.ID)
	if len(rows) != 1 {
		t.Fatalf("unexpected unlock rows: got=%d want=1", len(rows))
	}
	if rows[0].SourceUserID != f.match.User1ID {
		t.Fatalf("unexpected source user: got=%s want=%s", rows[0].SourceUserID, f.match.User1ID)
	}
}

func TestCheckUnlock_Idempotent(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	ctx := context.Background()

	if _, err := f.app.CheckUnlock(ctx, f.match.ID, 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := f.app.CheckUnlock(ctx, f.match.ID, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("unexpected second success for the same duration")
	}
	if got := intValue(res.TimeThreshold); got != 2400 {
		t.Fatalf("unexpected timeThreshold: got=%d want=2400", got)
	}
	if n := len(f.store.Unlocks(f.match.ID)); n != 2 {
		t.Fatalf("unexpected unlock rows: got=%d want=2", n)
	}
}

func TestCheckUnlock_OneStepPerCall(t *testing.T) {
	f := newFixture(t, 3, 3, nil)

	res, err := f.app.CheckUnlock(context.Background(), f.match.ID, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intValue(res.UnlockedStep); got != 1 {
		t.Fatalf("unexpected unlockedStep: got=%d want=1", got)
	}
}

func TestCheckUnlock_ConcurrentChecksAdvanceOnce(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	ctx := context.Background()

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		peers     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.app.CheckUnlock(ctx, f.match.ID, 1250)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				successes++
			} else if intValue(res.CurrentStep) == 1 {
				peers++
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("unexpected successes: got=%d want=1", successes)
	}
	if peers != callers-1 {
		t.Fatalf("unexpected peer responses: got=%d want=%d", peers, callers-1)
	}
	if n := len(f.store.Unlocks(f.match.ID)); n != 2 {
		t.Fatalf("unexpected unlock rows: got=%d want=2", n)
	}
	if n := len(f.store.OutboxEvents()); n != 1 {
		t.Fatalf("unexpected outbox rows: got=%d want=1", n)
	}
}

// staleLedger serves a stale first read so the advance loses the step comparison.
type staleLedger struct {
	*memstore.UnlockLedger
	reads int
}

func (l *staleLedger) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := l.UnlockLedger.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	l.reads++
	if l.reads == 1 {
		m.UnlockedStep = 0
	}
	return m, nil
}

func TestCheckUnlock_LostRaceReportsPeer(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	ctx := context.Background()
	if _, err := f.app.CheckUnlock(ctx, f.match.ID, 1200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ledger := &staleLedger{UnlockLedger: f.store.UnlockLedger()}
	app := unlock.NewApp(ledger, f.store, nil, unlock.DefaultPolicy(), f.clock)

	res, err := app.CheckUnlock(ctx, f.match.ID, 1300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("unexpected success after lost race")
	}
	if res.Message != unlock.MessageUnlockedByPeer {
		t.Fatalf("unexpected message: got=%q want=%q", res.Message, unlock.MessageUnlockedByPeer)
	}
	if got := intValue(res.CurrentStep); got != 1 {
		t.Fatalf("unexpected currentStep: got=%d want=1", got)
	}
	if n := len(f.store.Unlocks(f.match.ID)); n != 2 {
		t.Fatalf("unexpected unlock rows: got=%d want=2", n)
	}
}

func TestCheckUnlock_Errors(t *testing.T) {
	f := newFixture(t, 1, 1, nil)
	ctx := context.Background()

	if _, err := f.app.CheckUnlock(ctx, f.match.ID, -1); !errors.Is(err, unlock.ErrInvalidRequest) {
		t.Fatalf("unexpected error: got=%v want=%v", err, unlock.ErrInvalidRequest)
	}
	if _, err := f.app.CheckUnlock(ctx, uuid.New(), 1200); !errors.Is(err, models.ErrMatchNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, models.ErrMatchNotFound)
	}
}

func TestCheckUnlock_RoundRobinStrategy(t *testing.T) {
	f := newFixture(t, 3, 3, unlock.RoundRobin{})
	ctx := context.Background()

	want := []string{"answer 1", "answer 2", "answer 3"}
	for i, seconds := range []int{1200, 2400, 3600} {
		res, err := f.app.CheckUnlock(ctx, f.match.ID, seconds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, d := range res.Disclosures {
			if d.Answer != want[i] {
				t.Fatalf("unexpected answer at step %d: got=%q want=%q", i+1, d.Answer, want[i])
			}
		}
	}
}

func TestCheckUnlock_WritesOutboxEvent(t *testing.T) {
	f := newFixture(t, 2, 2, nil)

	if _, err := f.app.CheckUnlock(context.Background(), f.match.ID, 1200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.store.OutboxEvents()
	if len(rows) != 1 {
		t.Fatalf("unexpected outbox rows: got=%d want=1", len(rows))
	}
	if rows[0].EventType != events.EventTypeFantasyUnlocked {
		t.Fatalf("unexpected event type: got=%q want=%q", rows[0].EventType, events.EventTypeFantasyUnlocked)
	}

	var payload events.FantasyUnlockedPayload
	if err := json.Unmarshal(rows[0].Payload, &payload); err != nil {
		t.Fatalf("unexpected error decoding payload: %v", err)
	}
	if payload.Step != 1 || payload.MatchID != f.match.ID.String() || len(payload.Disclosures) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestListDisclosures(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	ctx := context.Background()

	for _, seconds := range []int{1200, 2400} {
		if _, err := f.app.CheckUnlock(ctx, f.match.ID, seconds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := f.app.ListDisclosures(ctx, f.match.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("unexpected disclosures: got=%d want=4", len(all))
	}
	if all[0].Step != 1 || all[3].Step != 2 {
		t.Fatalf("disclosures not ordered by step: %+v", all)
	}

	later, err := f.app.ListDisclosures(ctx, f.match.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(later) != 2 {
		t.Fatalf("unexpected disclosures since step 1: got=%d want=2", len(later))
	}

	if _, err := f.app.ListDisclosures(ctx, f.match.ID, -1); !errors.Is(err, unlock.ErrInvalidRequest) {
		t.Fatalf("unexpected error: got=%v want=%v", err, unlock.ErrInvalidRequest)
	}
	if _, err := f.app.ListDisclosures(ctx, uuid.New(), 0); !errors.Is(err, models.ErrMatchNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, models.ErrMatchNotFound)
	}
}
