package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DisclosureSource supplies the catch-up disclosures for a reconnecting client.
type DisclosureSource interface {
	ListDisclosures(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error)
}

// WebSocketHandler handles WebSocket upgrade requests for match chats
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	disclosures       DisclosureSource
}

// NewWebSocketHandler creates a new WebSocket handler. disclosures may be nil.
func NewWebSocketHandler(cm *ConnectionManager, disclosures DisclosureSource) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		disclosures:       disclosures,
	}
}

// HandleMatchConnection handles /ws/match?match_id=&user_id=&since_step=
func (h *WebSocketHandler) HandleMatchConnection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	matchIDStr := query.Get("match_id")
	if matchIDStr == "" {
		http.Error(w, "match_id is required", http.StatusBadRequest)
		return
	}
	matchID, err := uuid.Parse(matchIDStr)
	if err != nil {
		http.Error(w, "invalid match_id format", http.StatusBadRequest)
		return
	}

	userID := query.Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	var initial []*MatchEvent
	if raw := query.Get("since_step"); raw != "" && h.disclosures != nil {
		sinceStep, err := strconv.Atoi(raw)
		if err != nil || sinceStep < 0 {
			http.Error(w, "invalid since_step", http.StatusBadRequest)
			return
		}
		disclosures, err := h.disclosures.ListDisclosures(r.Context(), matchID, sinceStep)
		if err != nil {
			log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to load disclosures for sync")
			http.Error(w, "failed to load disclosures", http.StatusBadGateway)
			return
		}
		if len(disclosures) > 0 {
			sync, err := NewDisclosureSyncEvent(matchID, disclosures, time.Now().UTC())
			if err != nil {
				http.Error(w, "failed to build sync event", http.StatusInternalServerError)
				return
			}
			initial = append(initial, sync)
		}
	}

	// the upgrader writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, userID, matchID, initial...); err != nil {
		log.Error().
			Err(err).
			Str("match_id", matchID.String()).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/match", h.HandleMatchConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
