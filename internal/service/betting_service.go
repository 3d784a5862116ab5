// Package service contains the application services: the bet submission
// pipeline, challenge management, aggregation, and the ledger health prober.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
	"github.com/alanyoungcy/challengemarket/internal/metrics"
)

// ChannelBets is the signal bus channel carrying accepted-bet events.
const ChannelBets = "ch:bets"

// BettingService runs the bet submission pipeline: challenge lookup,
// precondition checks, ledger verification, proof reservation, and the
// ledger append, in that order. Rejections are returned as the sentinel
// errors in the domain package; no partial bet is ever visible for a
// rejected submission.
type BettingService struct {
	challenges domain.ChallengeStore
	bets       domain.BetStore
	verifier   domain.TransferVerifier
	aggregator *Aggregator
	bus        domain.SignalBus
	audit      domain.AuditStore
	logger     *slog.Logger
}

// NewBettingService creates a BettingService. bus and audit may be nil; the
// pipeline then skips event publication and audit logging.
func NewBettingService(
	challenges domain.ChallengeStore,
	bets domain.BetStore,
	verifier domain.TransferVerifier,
	aggregator *Aggregator,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *BettingService {
	return &BettingService{
		challenges: challenges,
		bets:       bets,
		verifier:   verifier,
		aggregator: aggregator,
		bus:        bus,
		audit:      audit,
		logger:     logger,
	}
}

// SubmitBet accepts or rejects a single bet submission. Concurrent
// submissions are safe: the only shared mutable state is the bet store,
// whose reservation-then-append step is atomic, and no lock is held while
// the ledger verification call blocks.
func (s *BettingService) SubmitBet(ctx context.Context, req domain.SubmitBetRequest) (domain.Bet, error) {
	challenge, err := s.challenges.GetByID(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Bet{}, s.reject(ctx, req, domain.ErrNotFound)
		}
		return domain.Bet{}, s.reject(ctx, req,
			fmt.Errorf("betting: challenge lookup: %w", errors.Join(domain.ErrStorage, err)))
	}

	if req.Destination != challenge.TreasuryAddress {
		return domain.Bet{}, s.reject(ctx, req, domain.ErrDestinationMismatch)
	}

	// The amount must be a strictly positive finite number. NaN and the
	// infinities slip past a plain <= 0 comparison and would poison the
	// summary fold once appended.
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return domain.Bet{}, s.reject(ctx, req, domain.ErrInvalidInput)
	}
	side, err := domain.ParseBetSide(req.Side)
	if err != nil {
		return domain.Bet{}, s.reject(ctx, req, domain.ErrInvalidInput)
	}
	if req.Signature == "" || req.BettorAddress == "" {
		return domain.Bet{}, s.reject(ctx, req, domain.ErrInvalidInput)
	}

	// The one blocking external call in the pipeline. Every failure mode —
	// unknown signature, failed transaction, wrong destination on chain,
	// underfunded transfer, RPC outage — collapses into the same rejection
	// so callers cannot probe ledger internals through the betting path.
	start := time.Now()
	verified, verr := s.verifier.VerifyTransfer(ctx, req.Signature, req.Destination, req.Amount)
	metrics.LedgerVerifyDuration.Observe(time.Since(start).Seconds())

	switch {
	case verified:
		metrics.LedgerVerifications.WithLabelValues("verified").Inc()
	case verr != nil:
		metrics.LedgerVerifications.WithLabelValues("error").Inc()
	default:
		metrics.LedgerVerifications.WithLabelValues("unverified").Inc()
	}

	if !verified {
		if verr != nil {
			s.logger.InfoContext(ctx, "betting: transfer verification failed",
				slog.String("challenge_id", req.ChallengeID.String()),
				slog.String("signature", req.Signature),
				slog.String("cause", verr.Error()),
			)
		}
		return domain.Bet{}, s.reject(ctx, req, domain.ErrUnverifiableTransfer)
	}

	bet := domain.Bet{
		ID:            uuid.New(),
		ChallengeID:   challenge.ID,
		BettorAddress: req.BettorAddress,
		Amount:        req.Amount,
		Side:          side,
		Signature:     req.Signature,
		Destination:   req.Destination,
		RecordedAt:    time.Now().UTC(),
		Status:        domain.BetStatusConfirmed,
	}

	if err := s.bets.Append(ctx, bet); err != nil {
		if errors.Is(err, domain.ErrDuplicateProof) {
			return domain.Bet{}, s.reject(ctx, req, domain.ErrDuplicateProof)
		}
		return domain.Bet{}, s.reject(ctx, req,
			fmt.Errorf("betting: append bet: %w", errors.Join(domain.ErrStorage, err)))
	}

	// The append is committed; everything below is best-effort follow-up.
	s.aggregator.Invalidate(ctx, challenge.ID)
	metrics.BetsAccepted.Inc()

	s.publish(ctx, bet)

	if s.audit != nil {
		if auditErr := s.audit.Log(ctx, "bet_accepted", map[string]any{
			"bet_id":       bet.ID.String(),
			"challenge_id": bet.ChallengeID.String(),
			"amount":       bet.Amount,
			"side":         string(bet.Side),
		}); auditErr != nil {
			s.logger.WarnContext(ctx, "betting: audit log failed",
				slog.String("error", auditErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "betting: bet accepted",
		slog.String("bet_id", bet.ID.String()),
		slog.String("challenge_id", bet.ChallengeID.String()),
		slog.Float64("amount", bet.Amount),
		slog.String("side", string(bet.Side)),
	)

	return bet, nil
}

// ListBets returns a challenge's accepted bets, most recent first. The
// challenge must exist.
func (s *BettingService) ListBets(ctx context.Context, challengeID uuid.UUID, opts domain.ListOpts) ([]domain.Bet, error) {
	if _, err := s.challenges.GetByID(ctx, challengeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("betting: challenge lookup: %w", err)
	}

	bets, err := s.bets.ListForChallenge(ctx, challengeID, opts)
	if err != nil {
		return nil, fmt.Errorf("betting: list bets: %w", err)
	}
	return bets, nil
}

// Summarize returns the challenge's betting aggregate. The challenge must
// exist.
func (s *BettingService) Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error) {
	if _, err := s.challenges.GetByID(ctx, challengeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ChallengeSummary{}, domain.ErrNotFound
		}
		return domain.ChallengeSummary{}, fmt.Errorf("betting: challenge lookup: %w", err)
	}

	return s.aggregator.Summarize(ctx, challengeID)
}

// reject counts the rejection under its taxonomy reason and returns err
// unchanged.
func (s *BettingService) reject(ctx context.Context, req domain.SubmitBetRequest, err error) error {
	reason := domain.RejectReason(err)
	metrics.BetsRejected.WithLabelValues(reason).Inc()

	s.logger.InfoContext(ctx, "betting: bet rejected",
		slog.String("challenge_id", req.ChallengeID.String()),
		slog.String("reason", reason),
	)
	return err
}

// publish emits an accepted-bet event on the signal bus for the WebSocket
// feed. Failures are logged, never propagated: the bet is already durable.
func (s *BettingService) publish(ctx context.Context, bet domain.Bet) {
	if s.bus == nil {
		return
	}

	evt, _ := json.Marshal(map[string]any{
		"event":        "bet_accepted",
		"bet_id":       bet.ID.String(),
		"challenge_id": bet.ChallengeID.String(),
		"amount":       bet.Amount,
		"side":         string(bet.Side),
		"recorded_at":  bet.RecordedAt.Format(time.RFC3339),
	})
	if err := s.bus.Publish(ctx, ChannelBets, evt); err != nil {
		s.logger.WarnContext(ctx, "betting: publish event failed",
			slog.String("bet_id", bet.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
