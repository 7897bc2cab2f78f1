package chatlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Handler serves chat log writes over HTTP
type Handler struct {
	app *App
}

// NewHandler creates a new chat log HTTP handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the chat log routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matches/{id}/messages", h.HandleRecordMessage)
}

// HandleRecordMessage handles POST /api/matches/{id}/messages
func (h *Handler) HandleRecordMessage(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: match id: %v", ErrInvalidMessage, err))
		return
	}

	var req RecordMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
		return
	}
	senderID, err := uuid.Parse(req.SenderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: senderId: %v", ErrInvalidMessage, err))
		return
	}

	msg, err := h.app.RecordMessage(r.Context(), matchID, senderID, req.Message, req.CumulativeSeconds)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidMessage):
			status = http.StatusBadRequest
		case errors.Is(err, models.ErrMatchNotFound):
			status = http.StatusNotFound
		default:
			log.Error().Err(err).Str("match_id", matchID.String()).Msg("record message failed")
		}
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "success": false})
}
