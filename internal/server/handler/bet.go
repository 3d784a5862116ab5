package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// BetAPI defines the methods that the bet handler requires from the service
// layer.
type BetAPI interface {
	SubmitBet(ctx context.Context, req domain.SubmitBetRequest) (domain.Bet, error)
	ListBets(ctx context.Context, challengeID uuid.UUID, opts domain.ListOpts) ([]domain.Bet, error)
	Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error)
}

// BetHandler serves bet-related HTTP endpoints.
type BetHandler struct {
	bets   BetAPI
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given service and logger.
func NewBetHandler(bets BetAPI, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		logger: logger,
	}
}

// submitBetBody is the JSON body accepted by SubmitBet. The challenge ID
// comes from the URL path, not the body.
type submitBetBody struct {
	BettorAddress string  `json:"bettor_address"`
	Amount        float64 `json:"amount"`
	Side          string  `json:"side"`
	Signature     string  `json:"signature"`
	Destination   string  `json:"destination"`
}

// SubmitBet records a bet after verifying its on-chain payment proof.
// POST /api/challenges/{id}/bets
func (h *BetHandler) SubmitBet(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	var body submitBetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bet, err := h.bets.SubmitBet(r.Context(), domain.SubmitBetRequest{
		ChallengeID:   challengeID,
		BettorAddress: body.BettorAddress,
		Amount:        body.Amount,
		Side:          body.Side,
		Signature:     body.Signature,
		Destination:   body.Destination,
	})
	if err != nil {
		h.writeSubmitError(w, r, challengeID, err)
		return
	}

	writeJSON(w, http.StatusCreated, bet)
}

// writeSubmitError maps a submission pipeline error to an HTTP response.
func (h *BetHandler) writeSubmitError(w http.ResponseWriter, r *http.Request, challengeID uuid.UUID, err error) {
	reason := domain.RejectReason(err)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeRejection(w, http.StatusNotFound, reason, "challenge not found")
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDestinationMismatch),
		errors.Is(err, domain.ErrUnverifiableTransfer):
		writeRejection(w, http.StatusBadRequest, reason, err.Error())
	case errors.Is(err, domain.ErrDuplicateProof):
		writeRejection(w, http.StatusConflict, reason, "payment proof already claimed")
	default:
		h.logger.ErrorContext(r.Context(), "handler: submit bet failed",
			slog.String("challenge_id", challengeID.String()),
			slog.String("error", err.Error()),
		)
		writeRejection(w, http.StatusInternalServerError, reason, "failed to record bet")
	}
}

// listBetsResponse wraps the list bets output.
type listBetsResponse struct {
	Bets []domain.Bet `json:"bets"`
}

// ListBets returns the bets recorded against a challenge, newest first.
// GET /api/challenges/{id}/bets?limit=50&offset=0
func (h *BetHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	bets, err := h.bets.ListBets(r.Context(), challengeID, parseListOpts(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: list bets failed",
			slog.String("challenge_id", challengeID.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}
	if bets == nil {
		bets = []domain.Bet{}
	}

	writeJSON(w, http.StatusOK, listBetsResponse{Bets: bets})
}

// GetSummary returns the aggregate totals for a challenge.
// GET /api/challenges/{id}/summary
func (h *BetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	summary, err := h.bets.Summarize(r.Context(), challengeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: summarize failed",
			slog.String("challenge_id", challengeID.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to summarize bets")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
