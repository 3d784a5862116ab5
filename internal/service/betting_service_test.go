package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

const testTreasury = "Treasury1111111111111111111111111111111111"

type bettingFixture struct {
	svc        *BettingService
	challenges *fakeChallengeStore
	bets       *fakeBetStore
	verifier   *fakeVerifier
	cache      *fakeSummaryCache
	bus        *fakeSignalBus
	audit      *fakeAuditStore
	challenge  domain.Challenge
}

func newBettingFixture(t *testing.T) *bettingFixture {
	t.Helper()

	challenges := newFakeChallengeStore()
	bets := newFakeBetStore()
	verifier := &fakeVerifier{verified: true}
	cache := newFakeSummaryCache()
	bus := newFakeSignalBus()
	audit := &fakeAuditStore{}
	logger := testLogger()

	aggregator := NewAggregator(bets, cache, logger)
	svc := NewBettingService(challenges, bets, verifier, aggregator, bus, audit, logger)

	now := time.Now().UTC()
	challenge := domain.Challenge{
		ID:              uuid.New(),
		Title:           "30 day running streak",
		Category:        "fitness",
		PrizePool:       100,
		DurationHours:   720,
		TreasuryAddress: testTreasury,
		CreatorAddress:  "Creator111",
		CreatedAt:       now,
		Deadline:        now.Add(720 * time.Hour),
		Status:          domain.ChallengeStatusActive,
	}
	require.NoError(t, challenges.Create(context.Background(), challenge))

	return &bettingFixture{
		svc:        svc,
		challenges: challenges,
		bets:       bets,
		verifier:   verifier,
		cache:      cache,
		bus:        bus,
		audit:      audit,
		challenge:  challenge,
	}
}

func (f *bettingFixture) request(signature string) domain.SubmitBetRequest {
	return domain.SubmitBetRequest{
		ChallengeID:   f.challenge.ID,
		BettorAddress: "Bettor111",
		Amount:        1.5,
		Side:          "yes",
		Signature:     signature,
		Destination:   testTreasury,
	}
}

func TestSubmitBetAccepted(t *testing.T) {
	f := newBettingFixture(t)
	ctx := context.Background()

	bet, err := f.svc.SubmitBet(ctx, f.request("sig-1"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, bet.ID)
	assert.Equal(t, f.challenge.ID, bet.ChallengeID)
	assert.Equal(t, domain.BetSideYes, bet.Side)
	assert.Equal(t, domain.BetStatusConfirmed, bet.Status)
	assert.False(t, bet.RecordedAt.IsZero())

	assert.Equal(t, 1, f.bets.count())
	assert.Equal(t, int64(1), f.verifier.calls.Load())
	assert.Equal(t, 1, f.cache.invalidated, "accepted append must invalidate the cached aggregate")
	assert.Equal(t, 1, f.bus.count(ChannelBets))
	assert.Contains(t, f.audit.events, "bet_accepted")
}

func TestSubmitBetRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.SubmitBetRequest)
		wantErr error
	}{
		{
			name:    "unknown challenge",
			mutate:  func(r *domain.SubmitBetRequest) { r.ChallengeID = uuid.New() },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "destination mismatch",
			mutate:  func(r *domain.SubmitBetRequest) { r.Destination = "Mallory111" },
			wantErr: domain.ErrDestinationMismatch,
		},
		{
			name:    "zero amount",
			mutate:  func(r *domain.SubmitBetRequest) { r.Amount = 0 },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative amount",
			mutate:  func(r *domain.SubmitBetRequest) { r.Amount = -3 },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "amount is NaN",
			mutate:  func(r *domain.SubmitBetRequest) { r.Amount = math.NaN() },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "amount is positive infinity",
			mutate:  func(r *domain.SubmitBetRequest) { r.Amount = math.Inf(1) },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "amount is negative infinity",
			mutate:  func(r *domain.SubmitBetRequest) { r.Amount = math.Inf(-1) },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown side",
			mutate:  func(r *domain.SubmitBetRequest) { r.Side = "maybe" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty signature",
			mutate:  func(r *domain.SubmitBetRequest) { r.Signature = "" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty bettor address",
			mutate:  func(r *domain.SubmitBetRequest) { r.BettorAddress = "" },
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBettingFixture(t)
			req := f.request("sig-reject")
			tc.mutate(&req)

			_, err := f.svc.SubmitBet(context.Background(), req)
			require.ErrorIs(t, err, tc.wantErr)

			assert.Equal(t, 0, f.bets.count(), "rejected submission must not reach the ledger")
			assert.Equal(t, int64(0), f.verifier.calls.Load(),
				"local validation failures must never trigger a ledger call")
		})
	}
}

func TestSubmitBetUnverifiableTransfer(t *testing.T) {
	f := newBettingFixture(t)
	f.verifier.verified = false
	f.verifier.err = errors.New("transaction not found at confirmed commitment")

	_, err := f.svc.SubmitBet(context.Background(), f.request("sig-bogus"))
	require.ErrorIs(t, err, domain.ErrUnverifiableTransfer)

	assert.Equal(t, 0, f.bets.count())
	assert.Equal(t, int64(1), f.verifier.calls.Load())
	assert.Equal(t, 0, f.bus.count(ChannelBets))
}

func TestSubmitBetDuplicateProof(t *testing.T) {
	f := newBettingFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitBet(ctx, f.request("sig-dup"))
	require.NoError(t, err)

	// Same proof on the same challenge.
	_, err = f.svc.SubmitBet(ctx, f.request("sig-dup"))
	require.ErrorIs(t, err, domain.ErrDuplicateProof)

	// Same proof on a different challenge is still a duplicate: the proof
	// registry is system-wide.
	other := f.challenge
	other.ID = uuid.New()
	require.NoError(t, f.challenges.Create(ctx, other))

	req := f.request("sig-dup")
	req.ChallengeID = other.ID
	_, err = f.svc.SubmitBet(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicateProof)

	assert.Equal(t, 1, f.bets.count())
}

func TestSubmitBetConcurrentSameProof(t *testing.T) {
	f := newBettingFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitBet(context.Background(), f.request("sig-race"))
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, domain.ErrDuplicateProof)
		}
	}
	assert.Equal(t, 1, accepted, "exactly one claim of a proof may win")
	assert.Equal(t, 1, f.bets.count())
}

func TestSubmitBetConcurrentDistinctProofs(t *testing.T) {
	f := newBettingFixture(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := f.request(fmt.Sprintf("sig-%d", i))
			if i%2 == 1 {
				req.Side = "no"
			}
			_, errs[i] = f.svc.SubmitBet(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, n, f.bets.count())

	sum, err := f.svc.Summarize(context.Background(), f.challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), sum.BetCount)
	assert.InDelta(t, sum.TotalAmount, sum.YesAmount+sum.NoAmount, 1e-9,
		"side totals must partition the overall total")
}

func TestSubmitBetStorageFailureReleasesProof(t *testing.T) {
	f := newBettingFixture(t)
	ctx := context.Background()

	f.bets.appendErr = errors.New("connection reset by peer")

	_, err := f.svc.SubmitBet(ctx, f.request("sig-retry"))
	require.ErrorIs(t, err, domain.ErrStorage)

	// The failed append must not have consumed the proof; a retry with the
	// same signature succeeds once storage recovers.
	f.bets.appendErr = nil

	_, err = f.svc.SubmitBet(ctx, f.request("sig-retry"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.bets.count())
}

func TestListBetsUnknownChallenge(t *testing.T) {
	f := newBettingFixture(t)

	_, err := f.svc.ListBets(context.Background(), uuid.New(), domain.ListOpts{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Summarize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
