package chatlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/memstore"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

func setup() (*memstore.Store, models.Match, *chatlog.App) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	store := memstore.New(clock)
	match := store.AddMatch(models.Match{User1ID: uuid.New(), User2ID: uuid.New()})
	return store, match, chatlog.NewApp(store, store, clock)
}

func TestRecordMessage(t *testing.T) {
	store, match, app := setup()
	ctx := context.Background()

	msg, err := app.RecordMessage(ctx, match.ID, match.User2ID, "  hello there  ", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Message != "hello there" || msg.CumulativeSeconds != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if n := len(store.Messages(match.ID)); n != 1 {
		t.Fatalf("unexpected stored messages: got=%d want=1", n)
	}

	tests := []struct {
		name    string
		matchID uuid.UUID
		sender  uuid.UUID
		text    string
		seconds int
		want    error
	}{
		{name: "empty", matchID: match.ID, sender: match.User1ID, text: "   ", want: chatlog.ErrInvalidMessage},
		{name: "negative seconds", matchID: match.ID, sender: match.User1ID, text: "hi", seconds: -1, want: chatlog.ErrInvalidMessage},
		{name: "outsider", matchID: match.ID, sender: uuid.New(), text: "hi", want: chatlog.ErrInvalidMessage},
		{name: "unknown match", matchID: uuid.New(), sender: match.User1ID, text: "hi", want: models.ErrMatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.RecordMessage(ctx, tt.matchID, tt.sender, tt.text, tt.seconds)
			if !errors.Is(err, tt.want) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tt.want)
			}
		})
	}
}

func TestHandleRecordMessage(t *testing.T) {
	_, match, app := setup()
	mux := http.NewServeMux()
	chatlog.NewHandler(app).RegisterRoutes(mux)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "created",
			path:       "/api/matches/" + match.ID.String() + "/messages",
			body:       `{"senderId":"` + match.User1ID.String() + `","message":"hi","cumulativeSeconds":61}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "bad match id",
			path:       "/api/matches/nope/messages",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad sender",
			path:       "/api/matches/" + match.ID.String() + "/messages",
			body:       `{"senderId":"nope","message":"hi"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown match",
			path:       "/api/matches/" + uuid.NewString() + "/messages",
			body:       `{"senderId":"` + match.User1ID.String() + `","message":"hi"}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusCreated {
				return
			}
			var msg models.ChatMessage
			if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.CumulativeSeconds != 61 || msg.SenderID != match.User1ID {
				t.Fatalf("unexpected message: %+v", msg)
			}
		})
	}
}
