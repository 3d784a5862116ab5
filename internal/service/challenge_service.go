package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// ChannelChallenges is the signal bus channel carrying challenge events.
const ChannelChallenges = "ch:challenges"

// CreateChallengeRequest is the payload for creating a challenge.
type CreateChallengeRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	PrizePool       float64 `json:"prize_pool"`
	DurationHours   int     `json:"duration_hours"`
	AllowRandomStop bool    `json:"allow_random_stop"`
	Image           string  `json:"image,omitempty"`
	TreasuryAddress string  `json:"treasury_address"`
	CreatorAddress  string  `json:"creator_address"`
}

// ChallengeWithSummary is a challenge together with its derived betting
// aggregate.
type ChallengeWithSummary struct {
	domain.Challenge
	Summary domain.ChallengeSummary `json:"summary"`
}

// ChallengeDetail additionally carries the challenge's bet ledger.
type ChallengeDetail struct {
	ChallengeWithSummary
	Bets []domain.Bet `json:"bets"`
}

// ChallengeService manages challenge definitions. It never mutates challenge
// status; settlement processes own lifecycle transitions.
type ChallengeService struct {
	challenges domain.ChallengeStore
	bets       domain.BetStore
	aggregator *Aggregator
	bus        domain.SignalBus
	audit      domain.AuditStore
	logger     *slog.Logger
}

// NewChallengeService creates a ChallengeService. bus and audit may be nil.
func NewChallengeService(
	challenges domain.ChallengeStore,
	bets domain.BetStore,
	aggregator *Aggregator,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		bets:       bets,
		aggregator: aggregator,
		bus:        bus,
		audit:      audit,
		logger:     logger,
	}
}

// Create validates and persists a new challenge. The deadline is always the
// creation time plus the requested duration.
func (s *ChallengeService) Create(ctx context.Context, req CreateChallengeRequest) (domain.Challenge, error) {
	if strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.TreasuryAddress) == "" ||
		strings.TrimSpace(req.CreatorAddress) == "" {
		return domain.Challenge{}, domain.ErrInvalidInput
	}
	if req.PrizePool < 0 || req.DurationHours < 1 {
		return domain.Challenge{}, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	challenge := domain.Challenge{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		PrizePool:       req.PrizePool,
		DurationHours:   req.DurationHours,
		AllowRandomStop: req.AllowRandomStop,
		Image:           req.Image,
		TreasuryAddress: req.TreasuryAddress,
		CreatorAddress:  req.CreatorAddress,
		CreatedAt:       now,
		Deadline:        now.Add(time.Duration(req.DurationHours) * time.Hour),
		Status:          domain.ChallengeStatusActive,
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("challenge: create: %w", errors.Join(domain.ErrStorage, err))
	}

	if s.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":        "challenge_created",
			"challenge_id": challenge.ID.String(),
			"title":        challenge.Title,
			"category":     challenge.Category,
			"deadline":     challenge.Deadline.Format(time.RFC3339),
		})
		if err := s.bus.Publish(ctx, ChannelChallenges, evt); err != nil {
			s.logger.WarnContext(ctx, "challenge: publish event failed",
				slog.String("challenge_id", challenge.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.audit != nil {
		if err := s.audit.Log(ctx, "challenge_created", map[string]any{
			"challenge_id": challenge.ID.String(),
			"title":        challenge.Title,
		}); err != nil {
			s.logger.WarnContext(ctx, "challenge: audit log failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "challenge: created",
		slog.String("challenge_id", challenge.ID.String()),
		slog.String("title", challenge.Title),
	)

	return challenge, nil
}

// List returns challenges, most recent first, each with its aggregate.
func (s *ChallengeService) List(ctx context.Context, opts domain.ListOpts) ([]ChallengeWithSummary, error) {
	challenges, err := s.challenges.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("challenge: list: %w", err)
	}

	out := make([]ChallengeWithSummary, 0, len(challenges))
	for _, ch := range challenges {
		sum, err := s.aggregator.Summarize(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("challenge: summarize %s: %w", ch.ID, err)
		}
		out = append(out, ChallengeWithSummary{Challenge: ch, Summary: sum})
	}
	return out, nil
}

// Count returns the total number of challenges.
func (s *ChallengeService) Count(ctx context.Context) (int64, error) {
	return s.challenges.Count(ctx)
}

// Get returns a single challenge with its aggregate and bet ledger.
func (s *ChallengeService) Get(ctx context.Context, id uuid.UUID) (ChallengeDetail, error) {
	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ChallengeDetail{}, domain.ErrNotFound
		}
		return ChallengeDetail{}, fmt.Errorf("challenge: get: %w", err)
	}

	sum, err := s.aggregator.Summarize(ctx, id)
	if err != nil {
		return ChallengeDetail{}, fmt.Errorf("challenge: summarize: %w", err)
	}

	bets, err := s.bets.ListForChallenge(ctx, id, domain.ListOpts{})
	if err != nil {
		return ChallengeDetail{}, fmt.Errorf("challenge: list bets: %w", err)
	}
	if bets == nil {
		bets = []domain.Bet{}
	}

	return ChallengeDetail{
		ChallengeWithSummary: ChallengeWithSummary{Challenge: challenge, Summary: sum},
		Bets:                 bets,
	}, nil
}
