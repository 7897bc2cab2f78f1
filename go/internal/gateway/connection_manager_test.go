package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

type staticDisclosures []models.Disclosure

func (s staticDisclosures) ListDisclosures(_ context.Context, _ uuid.UUID, sinceStep int) ([]models.Disclosure, error) {
	var out []models.Disclosure
	for _, d := range s {
		if d.Step > sinceStep {
			out = append(out, d)
		}
	}
	return out, nil
}

func readEvent(t *testing.T, conn *websocket.Conn) MatchEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	var event MatchEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unexpected error decoding frame: %v", err)
	}
	return event
}

func TestWebSocket_SyncThenBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	matchID := uuid.New()
	svc := NewLocalService(DefaultConnectionConfig(), staticDisclosures{
		{MatchID: matchID, Step: 1, Question: "Q1", Answer: "A1"},
	})
	go svc.connectionManager.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/match?match_id=" + matchID.String() + "&user_id=u1&since_step=0"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected dial error: %v", err)
	}
	defer conn.Close()

	// the sync frame is only written once the connection is registered
	sync := readEvent(t, conn)
	if sync.Type != EventTypeDisclosureSync || len(sync.SystemMessages) != 1 {
		t.Fatalf("unexpected sync frame: %+v", sync)
	}

	data, err := json.Marshal(fantasyUnlockedEnvelope(t, matchID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Dispatch(svc.connectionManager, data); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}

	event := readEvent(t, conn)
	if event.Type != EventTypeFantasyUnlocked || event.MatchID != matchID.String() {
		t.Fatalf("unexpected event: %+v", event)
	}
	if stats := svc.Stats(); stats.TotalConnections != 1 || stats.ActiveMatches != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestWebSocket_ClientCloseUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	matchID := uuid.New()
	svc := NewLocalService(DefaultConnectionConfig(), staticDisclosures{})
	go svc.connectionManager.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/match?match_id=" + matchID.String() + "&user_id=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected dial error: %v", err)
	}
	// client frames are ignored and do not drop the connection
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":true}`)); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	waitForConnections(t, svc, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForConnections(t, svc, 0)
}

func waitForConnections(t *testing.T, svc *Service, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		got := svc.Stats().TotalConnections
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("unexpected connections: got=%d want=%d", got, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_RejectsMissingMatchID(t *testing.T) {
	svc := NewLocalService(DefaultConnectionConfig(), nil)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/match", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}
