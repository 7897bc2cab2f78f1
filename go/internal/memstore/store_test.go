package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

func seedUser(t *testing.T, s *Store, clock *clockwork.FakeClock, questionID int) uuid.UUID {
	t.Helper()
	p := s.AddProfile(models.Profile{})
	if _, err := s.AddAnswer(models.FantasyAnswer{UserID: p.ID, QuestionID: questionID, AnswerText: "answer", Intensity: 2}); err != nil {
		t.Fatalf("unexpected error seeding answer: %v", err)
	}
	clock.Advance(time.Second)
	return p.ID
}

func TestAddAnswer_Validation(t *testing.T) {
	s := New(clockwork.NewFakeClock())
	s.AddQuestion(models.FantasyQuestion{Question: "Where?"})

	if _, err := s.AddAnswer(models.FantasyAnswer{UserID: uuid.New(), QuestionID: 99, Intensity: 1}); err == nil {
		t.Fatalf("expected error for unknown question")
	}
	if _, err := s.AddAnswer(models.FantasyAnswer{UserID: uuid.New(), QuestionID: 1, Intensity: 6}); err == nil {
		t.Fatalf("expected error for intensity out of range")
	}

	a, err := s.AddAnswer(models.FantasyAnswer{UserID: uuid.New(), QuestionID: 1, Intensity: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Question != "Where?" {
		t.Fatalf("unexpected question text: got=%q want=%q", a.Question, "Where?")
	}
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New(clockwork.NewFakeClock())
	m := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New()})

	boom := errors.New("boom")
	err := s.UnlockLedger().RunInTx(ctx, func(tx unlock.LedgerTx) error {
		if _, err := tx.AdvanceStep(ctx, m.ID, 0, 1); err != nil {
			return err
		}
		if err := tx.InsertOutboxEvent(ctx, m.ID, "FantasyUnlocked", []byte(`{}`)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("unexpected error: got=%v want=%v", err, boom)
	}

	got, _ := s.GetMatch(ctx, m.ID)
	if got.UnlockedStep != 0 {
		t.Fatalf("unexpected step after rollback: got=%d want=0", got.UnlockedStep)
	}
	if n := len(s.OutboxEvents()); n != 0 {
		t.Fatalf("unexpected outbox rows after rollback: got=%d want=0", n)
	}
}

func TestAdvanceStep_Conflict(t *testing.T) {
	ctx := context.Background()
	s := New(clockwork.NewFakeClock())
	m := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New(), UnlockedStep: 1})

	err := s.UnlockLedger().RunInTx(ctx, func(tx unlock.LedgerTx) error {
		_, err := tx.AdvanceStep(ctx, m.ID, 0, 1)
		return err
	})
	if !errors.Is(err, models.ErrStepConflict) {
		t.Fatalf("unexpected error: got=%v want=%v", err, models.ErrStepConflict)
	}

	err = s.UnlockLedger().RunInTx(ctx, func(tx unlock.LedgerTx) error {
		_, err := tx.AdvanceStep(ctx, uuid.New(), 0, 1)
		return err
	})
	if !errors.Is(err, models.ErrMatchNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, models.ErrMatchNotFound)
	}
}

func TestRecordUnlock_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := New(clockwork.NewFakeClock())
	m := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New()})
	row := models.UnlockedFantasy{ID: uuid.New(), MatchID: m.ID, FantasyID: uuid.New(), SourceUserID: m.User1ID, UnlockStep: 1}

	if err := s.UnlockLedger().RunInTx(ctx, func(tx unlock.LedgerTx) error {
		return tx.RecordUnlock(ctx, row)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row.ID = uuid.New()
	err := s.UnlockLedger().RunInTx(ctx, func(tx unlock.LedgerTx) error {
		return tx.RecordUnlock(ctx, row)
	})
	if !errors.Is(err, models.ErrDuplicateUnlock) {
		t.Fatalf("unexpected error: got=%v want=%v", err, models.ErrDuplicateUnlock)
	}
	if n := len(s.Unlocks(m.ID)); n != 1 {
		t.Fatalf("unexpected unlock rows: got=%d want=1", n)
	}
}

func TestClaimCounterpart(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	s := New(clock)
	s.AddQuestion(models.FantasyQuestion{Question: "Where?"})

	candidate := seedUser(t, s, clock, 1)
	s.AddProfile(models.Profile{}) // no answers
	clock.Advance(time.Second)
	first := seedUser(t, s, clock, 1)
	seedUser(t, s, clock, 1)

	var got uuid.UUID
	err := s.MatchRepository().RunInTx(ctx, func(tx matching.RepositoryTx) error {
		var err error
		got, err = tx.ClaimCounterpart(ctx, candidate)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != first {
		t.Fatalf("unexpected counterpart: got=%s want=%s", got, first)
	}
}

func TestListPendingUnlocks(t *testing.T) {
	ctx := context.Background()
	s := New(clockwork.NewFakeClock())
	open := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New(), UnlockedStep: 1})
	done := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New(), UnlockedStep: 3})
	s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New()}) // silent
	early := s.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New()})

	for _, msg := range []models.ChatMessage{
		{ID: uuid.New(), MatchID: open.ID, SenderID: open.User1ID, Message: "hi", CumulativeSeconds: 100},
		{ID: uuid.New(), MatchID: open.ID, SenderID: open.User2ID, Message: "hey", CumulativeSeconds: 2500},
		{ID: uuid.New(), MatchID: done.ID, SenderID: done.User1ID, Message: "bye", CumulativeSeconds: 5000},
		{ID: uuid.New(), MatchID: early.ID, SenderID: early.User1ID, Message: "yo", CumulativeSeconds: 1199},
	} {
		if _, err := s.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	pending, err := s.ListPendingUnlocks(ctx, 3, 1200, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("unexpected pending count: got=%d want=1", len(pending))
	}
	if pending[0].MatchID != open.ID || pending[0].CumulativeSeconds != 2500 || pending[0].UnlockedStep != 1 {
		t.Fatalf("unexpected pending unlock: %+v", pending[0])
	}
}
