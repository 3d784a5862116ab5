package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeStatus tracks the challenge lifecycle. The betting core never
// mutates it; settlement and moderation processes own the transitions.
type ChallengeStatus string

const (
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusVoting    ChallengeStatus = "voting"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusFailed    ChallengeStatus = "failed"
)

// Challenge is a wagered commitment with a prize pool, a deadline, and a
// treasury address that side-bet transfers must target.
type Challenge struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	PrizePool       float64         `json:"prize_pool"` // SOL
	DurationHours   int             `json:"duration_hours"`
	AllowRandomStop bool            `json:"allow_random_stop"`
	Image           string          `json:"image,omitempty"`
	TreasuryAddress string          `json:"treasury_address"`
	CreatorAddress  string          `json:"creator_address"`
	CreatedAt       time.Time       `json:"created_at"`
	Deadline        time.Time       `json:"deadline"` // always CreatedAt + DurationHours
	Status          ChallengeStatus `json:"status"`
}

// ChallengeSummary is the derived per-challenge betting aggregate. It is
// never stored; it is always the fold over the accepted bets of a challenge.
type ChallengeSummary struct {
	BetCount    int64   `json:"bet_count"`
	TotalAmount float64 `json:"total_amount"`
	YesAmount   float64 `json:"yes_amount"`
	NoAmount    float64 `json:"no_amount"`
}
