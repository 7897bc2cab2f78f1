package matching

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

type stubApp func(ctx context.Context, candidateID uuid.UUID) (*models.Match, bool, error)

func (f stubApp) SelectMatch(ctx context.Context, candidateID uuid.UUID) (*models.Match, bool, error) {
	return f(ctx, candidateID)
}

func TestHandleSelectMatch(t *testing.T) {
	userID := uuid.New()
	match := &models.Match{ID: uuid.New(), User1ID: userID, User2ID: uuid.New()}

	tests := []struct {
		name       string
		body       string
		app        stubApp
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"userId":"` + userID.String() + `"}`,
			app:        func(context.Context, uuid.UUID) (*models.Match, bool, error) { return match, true, nil },
			wantStatus: http.StatusCreated,
		},
		{
			name:       "existing",
			body:       `{"userId":"` + userID.String() + `"}`,
			app:        func(context.Context, uuid.UUID) (*models.Match, bool, error) { return match, false, nil },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad user id",
			body:       `{"userId":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "intake incomplete",
			body: `{"userId":"` + userID.String() + `"}`,
			app: func(context.Context, uuid.UUID) (*models.Match, bool, error) {
				return nil, false, models.ErrIntakeIncomplete
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "no counterpart",
			body: `{"userId":"` + userID.String() + `"}`,
			app: func(context.Context, uuid.UUID) (*models.Match, bool, error) {
				return nil, false, models.ErrNoCounterpart
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "store failure",
			body: `{"userId":"` + userID.String() + `"}`,
			app: func(context.Context, uuid.UUID) (*models.Match, bool, error) {
				return nil, false, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewHandler(tt.app).RegisterRoutes(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/matches", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code >= 300 {
				return
			}
			var res SelectMatchResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Match.ID != match.ID {
				t.Fatalf("unexpected match: got=%s want=%s", res.Match.ID, match.ID)
			}
		})
	}
}
