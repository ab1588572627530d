package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	service "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/logger"
)

// Request and response headers for idempotent submissions.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxBodyBytes = 64 << 10
	maxKeyLength = 200
)

type leaderboardResponse struct {
	Entries []Entry `json:"entries"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// LeaderboardHandler serves GET and POST /api/leaderboard.
type LeaderboardHandler struct {
	board Leaderboard
	log   logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(board Leaderboard, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, log: log}
}

// HandleGetLeaderboard handles GET /api/leaderboard?limit=N.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := service.ParseLimit(r.URL.Query().Get("limit"))
	entries, err := h.board.ListLeaderboard(r.Context(), limit)
	if err != nil {
		h.unavailable(w, r, "api.get_leaderboard", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries})
}

// HandlePostLeaderboard handles POST /api/leaderboard.
func (h *LeaderboardHandler) HandlePostLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	const op = "api.post_leaderboard"

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if len(key) > maxKeyLength {
		writeError(w, http.StatusBadRequest, "invalid_payload", NewKind(op, ErrBadRequest))
		return
	}

	var sub model.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.board.SubmitScoreIdempotent(r.Context(), key, sub)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrConsentRequired):
		writeError(w, http.StatusBadRequest, "consent_required", err)
		return
	case errors.Is(err, service.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "invalid_payload", err)
		return
	case errors.Is(err, service.ErrSubmissionInProgress):
		writeError(w, http.StatusConflict, "submission_in_progress", err)
		return
	case errors.Is(err, service.ErrIdempotencyMismatch):
		writeError(w, http.StatusUnprocessableEntity, "idempotency_mismatch", err)
		return
	default:
		h.unavailable(w, r, op, err)
		return
	}

	if receipt.Replayed {
		w.Header().Set(HeaderReplayed, "true")
	}
	writeJSON(w, http.StatusCreated, submitResponse{ID: receipt.ID})
}

// unavailable logs the cause and answers with a generic 500.
func (h *LeaderboardHandler) unavailable(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(r.Context(), "leaderboard request failed", logger.Error(Wrap(op, err)))
	writeError(w, http.StatusInternalServerError, "service_unavailable", NewKind(op, service.ErrServiceUnavailable))
}
