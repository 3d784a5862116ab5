package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

type stubBetAPI struct {
	submitErr error
	bets      []domain.Bet
	summary   domain.ChallengeSummary
}

func (s *stubBetAPI) SubmitBet(ctx context.Context, req domain.SubmitBetRequest) (domain.Bet, error) {
	if s.submitErr != nil {
		return domain.Bet{}, s.submitErr
	}
	return domain.Bet{
		ID:          uuid.New(),
		ChallengeID: req.ChallengeID,
		Amount:      req.Amount,
		Side:        domain.BetSide(req.Side),
		Signature:   req.Signature,
		Status:      domain.BetStatusConfirmed,
	}, nil
}

func (s *stubBetAPI) ListBets(ctx context.Context, challengeID uuid.UUID, opts domain.ListOpts) ([]domain.Bet, error) {
	return s.bets, nil
}

func (s *stubBetAPI) Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error) {
	return s.summary, nil
}

func newBetMux(api *stubBetAPI) *http.ServeMux {
	h := NewBetHandler(api, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/challenges/{id}/bets", h.SubmitBet)
	mux.HandleFunc("GET /api/challenges/{id}/bets", h.ListBets)
	mux.HandleFunc("GET /api/challenges/{id}/summary", h.GetSummary)
	return mux
}

func submitBody() string {
	return `{"bettor_address":"Bettor1","amount":1.5,"side":"yes","signature":"sig-1","destination":"Treasury1"}`
}

func TestSubmitBetCreated(t *testing.T) {
	mux := newBetMux(&stubBetAPI{})

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/challenges/%s/bets", uuid.New()), strings.NewReader(submitBody()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var bet domain.Bet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bet))
	assert.Equal(t, domain.BetSideYes, bet.Side)
	assert.Equal(t, "sig-1", bet.Signature)
}

func TestSubmitBetErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"unknown challenge", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"destination mismatch", domain.ErrDestinationMismatch, http.StatusBadRequest, "destination_mismatch"},
		{"unverifiable transfer", domain.ErrUnverifiableTransfer, http.StatusBadRequest, "unverifiable_transfer"},
		{"duplicate proof", domain.ErrDuplicateProof, http.StatusConflict, "duplicate_proof"},
		{"storage failure", fmt.Errorf("append: %w", domain.ErrStorage), http.StatusInternalServerError, "storage_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newBetMux(&stubBetAPI{submitErr: tc.err})

			req := httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/api/challenges/%s/bets", uuid.New()), strings.NewReader(submitBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantReason, body["reason"])
		})
	}
}

func TestSubmitBetBadRequests(t *testing.T) {
	mux := newBetMux(&stubBetAPI{})

	// Malformed challenge ID in the path.
	req := httptest.NewRequest(http.MethodPost, "/api/challenges/not-a-uuid/bets", strings.NewReader(submitBody()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed JSON body.
	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/challenges/%s/bets", uuid.New()), strings.NewReader("{"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBetsEmptyArray(t *testing.T) {
	mux := newBetMux(&stubBetAPI{})

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/challenges/%s/bets", uuid.New()), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bets":[]}`, rec.Body.String())
}

func TestGetSummary(t *testing.T) {
	mux := newBetMux(&stubBetAPI{summary: domain.ChallengeSummary{
		BetCount:    3,
		TotalAmount: 4,
		YesAmount:   3.5,
		NoAmount:    0.5,
	}})

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/challenges/%s/summary", uuid.New()), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sum domain.ChallengeSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, int64(3), sum.BetCount)
}
