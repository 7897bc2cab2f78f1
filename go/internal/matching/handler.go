package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Handler serves matching as plain JSON over HTTP
type Handler struct {
	app MatchingApp
}

// NewHandler creates a new matching HTTP handler
func NewHandler(app MatchingApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the matching routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matches", h.HandleSelectMatch)
}

// HandleSelectMatch handles POST /api/matches {userId}
func (h *Handler) HandleSelectMatch(w http.ResponseWriter, r *http.Request) {
	var req SelectMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: userId: %v", ErrInvalidRequest, err))
		return
	}

	match, created, err := h.app.SelectMatch(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("select match failed")
		writeError(w, statusFor(err), err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, SelectMatchResponse{Match: *match, Created: created})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIntakeIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNoCounterpart):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error(), "success": false})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
