package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChallengeStore is an in-memory domain.ChallengeStore.
type fakeChallengeStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]domain.Challenge
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{challenges: make(map[uuid.UUID]domain.Challenge)}
}

func (s *fakeChallengeStore) Create(ctx context.Context, ch domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = ch
	return nil
}

func (s *fakeChallengeStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[id]
	if !ok {
		return domain.Challenge{}, domain.ErrNotFound
	}
	return ch, nil
}

func (s *fakeChallengeStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Challenge, 0, len(s.challenges))
	for _, ch := range s.challenges {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeChallengeStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.challenges)), nil
}

// fakeBetStore is an in-memory domain.BetStore that mirrors the transactional
// semantics of the Postgres implementation: a claimed signature is rejected
// as a duplicate, and a failed append leaves no claim behind.
type fakeBetStore struct {
	mu        sync.Mutex
	bets      []domain.Bet
	claimed   map[string]bool
	appendErr error
}

func newFakeBetStore() *fakeBetStore {
	return &fakeBetStore{claimed: make(map[string]bool)}
}

func (s *fakeBetStore) Append(ctx context.Context, bet domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[bet.Signature] {
		return domain.ErrDuplicateProof
	}
	if s.appendErr != nil {
		return s.appendErr
	}
	s.claimed[bet.Signature] = true
	s.bets = append(s.bets, bet)
	return nil
}

func (s *fakeBetStore) ListForChallenge(ctx context.Context, challengeID uuid.UUID, opts domain.ListOpts) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bet
	for _, b := range s.bets {
		if b.ChallengeID == challengeID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (s *fakeBetStore) Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum domain.ChallengeSummary
	for _, b := range s.bets {
		if b.ChallengeID != challengeID {
			continue
		}
		sum.BetCount++
		sum.TotalAmount += b.Amount
		switch b.Side {
		case domain.BetSideYes:
			sum.YesAmount += b.Amount
		case domain.BetSideNo:
			sum.NoAmount += b.Amount
		}
	}
	return sum, nil
}

func (s *fakeBetStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bet
	for _, b := range s.bets {
		if b.RecordedAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBetStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bets)
}

// fakeVerifier is a scripted domain.TransferVerifier that counts calls.
type fakeVerifier struct {
	calls    atomic.Int64
	verified bool
	err      error
}

func (v *fakeVerifier) VerifyTransfer(ctx context.Context, signature, destination string, minAmount float64) (bool, error) {
	v.calls.Add(1)
	return v.verified, v.err
}

// fakeSummaryCache is an in-memory domain.SummaryCache that counts
// invalidations.
type fakeSummaryCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]domain.ChallengeSummary
	getErr      error
	invalidated int
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[uuid.UUID]domain.ChallengeSummary)}
}

func (c *fakeSummaryCache) Get(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return domain.ChallengeSummary{}, false, c.getErr
	}
	sum, ok := c.entries[challengeID]
	return sum, ok, nil
}

func (c *fakeSummaryCache) Set(ctx context.Context, challengeID uuid.UUID, sum domain.ChallengeSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[challengeID] = sum
	return nil
}

func (c *fakeSummaryCache) Invalidate(ctx context.Context, challengeID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, challengeID)
	c.invalidated++
	return nil
}

// fakeSignalBus records published payloads per channel.
type fakeSignalBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakeSignalBus() *fakeSignalBus {
	return &fakeSignalBus{published: make(map[string][][]byte)}
}

func (b *fakeSignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeSignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *fakeSignalBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[channel])
}

// fakeAuditStore records audit events.
type fakeAuditStore struct {
	mu     sync.Mutex
	events []string
}

func (a *fakeAuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}
