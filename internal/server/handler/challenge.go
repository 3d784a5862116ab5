package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
	"github.com/alanyoungcy/challengemarket/internal/service"
)

// ChallengeAPI defines the methods that the challenge handler requires from
// the service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type ChallengeAPI interface {
	Create(ctx context.Context, req service.CreateChallengeRequest) (domain.Challenge, error)
	List(ctx context.Context, opts domain.ListOpts) ([]service.ChallengeWithSummary, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (service.ChallengeDetail, error)
}

// ChallengeHandler serves challenge-related HTTP endpoints.
type ChallengeHandler struct {
	challenges ChallengeAPI
	logger     *slog.Logger
}

// NewChallengeHandler creates a ChallengeHandler with the given service and
// logger.
func NewChallengeHandler(challenges ChallengeAPI, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		challenges: challenges,
		logger:     logger,
	}
}

// listChallengesResponse wraps the list endpoint output with metadata.
type listChallengesResponse struct {
	Challenges []service.ChallengeWithSummary `json:"challenges"`
	Total      int64                          `json:"total"`
	Limit      int                            `json:"limit"`
	Offset     int                            `json:"offset"`
}

// ListChallenges returns challenges with their aggregates, newest first.
// GET /api/challenges?limit=50&offset=0
func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	challenges, err := h.challenges.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list challenges failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list challenges")
		return
	}
	if challenges == nil {
		challenges = []service.ChallengeWithSummary{}
	}

	total, err := h.challenges.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count challenges failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count challenges")
		return
	}

	writeJSON(w, http.StatusOK, listChallengesResponse{
		Challenges: challenges,
		Total:      total,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
}

// CreateChallenge creates a new challenge from a JSON body.
// POST /api/challenges
func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	challenge, err := h.challenges.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: create challenge failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create challenge")
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}

// GetChallenge returns a single challenge with its aggregate and bets.
// GET /api/challenges/{id}
func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	detail, err := h.challenges.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get challenge failed",
			slog.String("challenge_id", id.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
