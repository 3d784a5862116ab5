package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// Aggregator derives per-challenge betting aggregates from the bet ledger,
// fronted by an explicitly invalidated read-through cache. The cache is an
// optimization only: every value it serves originated as a fold over the
// ledger, and it is invalidated synchronously on every accepted append for
// the same challenge.
type Aggregator struct {
	bets   domain.BetStore
	cache  domain.SummaryCache
	logger *slog.Logger
}

// NewAggregator creates an Aggregator. cache may be nil, in which case every
// read folds over the ledger directly.
func NewAggregator(bets domain.BetStore, cache domain.SummaryCache, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		bets:   bets,
		cache:  cache,
		logger: logger,
	}
}

// Summarize returns the challenge's aggregate, from cache when present.
func (a *Aggregator) Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error) {
	if a.cache != nil {
		sum, hit, err := a.cache.Get(ctx, challengeID)
		if err != nil {
			// A broken cache degrades to a ledger fold, never to an error.
			a.logger.WarnContext(ctx, "aggregator: cache read failed",
				slog.String("challenge_id", challengeID.String()),
				slog.String("error", err.Error()),
			)
		} else if hit {
			return sum, nil
		}
	}

	sum, err := a.bets.Summarize(ctx, challengeID)
	if err != nil {
		return domain.ChallengeSummary{}, fmt.Errorf("aggregator: summarize: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, challengeID, sum); err != nil {
			a.logger.WarnContext(ctx, "aggregator: cache write failed",
				slog.String("challenge_id", challengeID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	return sum, nil
}

// Invalidate drops the cached aggregate for a challenge. Called after every
// accepted bet, before the acceptance is reported to the caller, so a caller
// re-reading its own write never sees the pre-append aggregate.
func (a *Aggregator) Invalidate(ctx context.Context, challengeID uuid.UUID) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, challengeID); err != nil {
		a.logger.WarnContext(ctx, "aggregator: cache invalidation failed",
			slog.String("challenge_id", challengeID.String()),
			slog.String("error", err.Error()),
		)
	}
}
