package unlock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/connectjson"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

func newTestServer(t *testing.T, app UnlockApp) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(NewService(app).Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestService_CheckUnlock(t *testing.T) {
	matchID := uuid.New()
	srv := newTestServer(t, stubApp{check: func(_ context.Context, id uuid.UUID, secs int) (*CheckUnlockResponse, error) {
		if id != matchID {
			return nil, models.ErrMatchNotFound
		}
		if secs < 0 {
			return nil, ErrInvalidRequest
		}
		return &CheckUnlockResponse{Success: true, UnlockedStep: intPtr(1), Message: "Fantasy step 1 unlocked!"}, nil
	}})

	client := connect.NewClient[CheckUnlockRequest, CheckUnlockResponse](
		srv.Client(), srv.URL+CheckUnlockProcedure, connectjson.WithCodec(),
	)

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&CheckUnlockRequest{
		MatchID:           matchID.String(),
		CumulativeSeconds: 1200,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Msg.Success || res.Msg.ReachedStep() != 1 {
		t.Fatalf("unexpected response: %+v", res.Msg)
	}

	tests := []struct {
		name string
		req  *CheckUnlockRequest
		want connect.Code
	}{
		{name: "bad id", req: &CheckUnlockRequest{MatchID: "nope"}, want: connect.CodeInvalidArgument},
		{name: "unknown match", req: &CheckUnlockRequest{MatchID: uuid.NewString()}, want: connect.CodeNotFound},
		{name: "negative seconds", req: &CheckUnlockRequest{MatchID: matchID.String(), CumulativeSeconds: -5}, want: connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CallUnary(context.Background(), connect.NewRequest(tt.req))
			var connectErr *connect.Error
			if !errors.As(err, &connectErr) {
				t.Fatalf("expected connect error, got %v", err)
			}
			if connectErr.Code() != tt.want {
				t.Fatalf("unexpected code: got=%v want=%v", connectErr.Code(), tt.want)
			}
		})
	}
}

func TestService_ListDisclosures(t *testing.T) {
	matchID := uuid.New()
	srv := newTestServer(t, stubApp{list: func(_ context.Context, id uuid.UUID, since int) ([]models.Disclosure, error) {
		if since != 2 {
			t.Errorf("unexpected sinceStep: got=%d want=2", since)
		}
		return nil, nil
	}})

	client := connect.NewClient[ListDisclosuresRequest, ListDisclosuresResponse](
		srv.Client(), srv.URL+ListDisclosuresProcedure, connectjson.WithCodec(),
	)
	res, err := client.CallUnary(context.Background(), connect.NewRequest(&ListDisclosuresRequest{
		MatchID:   matchID.String(),
		SinceStep: 2,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Msg.MatchID != matchID.String() || res.Msg.Disclosures == nil {
		t.Fatalf("unexpected response: %+v", res.Msg)
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{ErrInvalidRequest, connect.CodeInvalidArgument},
		{models.ErrMatchNotFound, connect.CodeNotFound},
		{models.ErrStepConflict, connect.CodeAborted},
		{errors.New("db down"), connect.CodeUnavailable},
	}
	for _, tt := range tests {
		if got := toConnectError(tt.err).Code(); got != tt.want {
			t.Fatalf("unexpected code for %v: got=%v want=%v", tt.err, got, tt.want)
		}
	}
}
