package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

func newChallengeService(t *testing.T) (*ChallengeService, *fakeChallengeStore, *fakeSignalBus) {
	t.Helper()
	challenges := newFakeChallengeStore()
	bets := newFakeBetStore()
	bus := newFakeSignalBus()
	logger := testLogger()
	agg := NewAggregator(bets, nil, logger)
	svc := NewChallengeService(challenges, bets, agg, bus, &fakeAuditStore{}, logger)
	return svc, challenges, bus
}

func validCreateRequest() CreateChallengeRequest {
	return CreateChallengeRequest{
		Title:           "Cold shower every morning",
		Description:     "31 days, no exceptions",
		Category:        "discipline",
		PrizePool:       50,
		DurationHours:   744,
		TreasuryAddress: "Treasury111",
		CreatorAddress:  "Creator111",
	}
}

func TestCreateChallenge(t *testing.T) {
	svc, _, bus := newChallengeService(t)

	before := time.Now().UTC()
	ch, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, ch.ID)
	assert.Equal(t, domain.ChallengeStatusActive, ch.Status)
	assert.False(t, ch.CreatedAt.Before(before))
	assert.False(t, ch.CreatedAt.After(after))
	assert.Equal(t, ch.CreatedAt.Add(744*time.Hour), ch.Deadline,
		"deadline is always creation time plus duration")
	assert.Equal(t, 1, bus.count(ChannelChallenges))
}

func TestCreateChallengeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateChallengeRequest)
	}{
		{"empty title", func(r *CreateChallengeRequest) { r.Title = "  " }},
		{"empty category", func(r *CreateChallengeRequest) { r.Category = "" }},
		{"empty treasury", func(r *CreateChallengeRequest) { r.TreasuryAddress = "" }},
		{"empty creator", func(r *CreateChallengeRequest) { r.CreatorAddress = "" }},
		{"negative prize pool", func(r *CreateChallengeRequest) { r.PrizePool = -1 }},
		{"zero duration", func(r *CreateChallengeRequest) { r.DurationHours = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, challenges, _ := newChallengeService(t)
			req := validCreateRequest()
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrInvalidInput)

			n, _ := challenges.Count(context.Background())
			assert.Zero(t, n)
		})
	}
}

func TestGetChallengeDetail(t *testing.T) {
	svc, _, _ := newChallengeService(t)
	ctx := context.Background()

	ch, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	detail, err := svc.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, detail.ID)
	assert.NotNil(t, detail.Bets, "bets must serialize as an empty array, not null")
	assert.Zero(t, detail.Summary.BetCount)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListChallengesWithSummaries(t *testing.T) {
	challenges := newFakeChallengeStore()
	bets := newFakeBetStore()
	logger := testLogger()
	agg := NewAggregator(bets, nil, logger)
	svc := NewChallengeService(challenges, bets, agg, nil, nil, logger)
	ctx := context.Background()

	ch, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)
	seedBets(t, bets, ch.ID)

	list, err := svc.List(ctx, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].Summary.BetCount)
}
