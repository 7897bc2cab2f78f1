package unlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// FunctionPath is the public unlock-check route browsers call directly.
const FunctionPath = "/functions/v1/unlock-fantasy"

// DefaultAllowedHeaders are the request headers a public gateway forwards to the unlock check.
func DefaultAllowedHeaders() []string {
	return []string{"authorization", "x-client-info", "apikey", "content-type"}
}

// NewCORS allows any origin with the given headers and answers preflight with 200.
func NewCORS(allowedHeaders []string) *cors.Cors {
	if len(allowedHeaders) == 0 {
		allowedHeaders = DefaultAllowedHeaders()
	}
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:       allowedHeaders,
		OptionsSuccessStatus: http.StatusOK,
	})
}

// Handler serves the unlock check as plain JSON over HTTP
type Handler struct {
	app UnlockApp
}

// NewHandler creates a new unlock HTTP handler
func NewHandler(app UnlockApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the unlock routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(FunctionPath, h.HandleUnlockFantasy)
	mux.HandleFunc("/api/matches/{id}/unlocks", h.HandleListUnlocks)
}

// HandleUnlockFantasy handles POST {matchId, cumulativeSeconds}
func (h *Handler) HandleUnlockFantasy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writeJSON(w, http.StatusOK, nil)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	var req CheckUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: matchId: %v", ErrInvalidRequest, err))
		return
	}

	res, err := h.app.CheckUnlock(r.Context(), matchID, req.CumulativeSeconds)
	if err != nil {
		log.Error().
			Err(err).
			Str("match_id", matchID.String()).
			Int("cumulative_seconds", req.CumulativeSeconds).
			Msg("unlock check failed")
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListUnlocks handles GET /api/matches/{id}/unlocks?since_step=N
func (h *Handler) HandleListUnlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	matchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: match id: %v", ErrInvalidRequest, err))
		return
	}
	sinceStep := 0
	if raw := r.URL.Query().Get("since_step"); raw != "" {
		sinceStep, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: since_step: %v", ErrInvalidRequest, err))
			return
		}
	}

	disclosures, err := h.app.ListDisclosures(r.Context(), matchID, sinceStep)
	if err != nil {
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("list unlocks failed")
		writeError(w, statusFor(err), err)
		return
	}
	if disclosures == nil {
		disclosures = []models.Disclosure{}
	}
	writeJSON(w, http.StatusOK, ListDisclosuresResponse{
		MatchID:     matchID.String(),
		Disclosures: disclosures,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrMatchNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, CheckUnlockResponse{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
