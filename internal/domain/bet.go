package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetSide is the outcome a bettor stakes on.
type BetSide string

const (
	BetSideYes BetSide = "yes"
	BetSideNo  BetSide = "no"
)

// ParseBetSide validates a raw side string. Anything other than the exact
// strings "yes" and "no" is rejected with ErrInvalidInput.
func ParseBetSide(s string) (BetSide, error) {
	switch BetSide(s) {
	case BetSideYes, BetSideNo:
		return BetSide(s), nil
	default:
		return "", ErrInvalidInput
	}
}

// BetStatus tracks the bet lifecycle after acceptance. The betting core only
// ever writes BetStatusConfirmed; settlement owns later transitions.
type BetStatus string

const (
	BetStatusConfirmed BetStatus = "confirmed"
	BetStatusSettled   BetStatus = "settled"
	BetStatusRefunded  BetStatus = "refunded"
)

// Bet is an accepted side-bet on a challenge, backed by a verified SOL
// transfer to the challenge treasury. Once accepted a bet is immutable
// except for Status.
type Bet struct {
	ID            uuid.UUID `json:"id"`
	ChallengeID   uuid.UUID `json:"challenge_id"`
	BettorAddress string    `json:"bettor_address"`
	Amount        float64   `json:"amount"` // SOL, strictly positive
	Side          BetSide   `json:"side"`
	Signature     string    `json:"signature"` // ledger transaction proof, globally unique
	Destination   string    `json:"destination"`
	RecordedAt    time.Time `json:"recorded_at"`
	Status        BetStatus `json:"status"`
}

// SubmitBetRequest is the submission entrypoint payload, as received from
// the routing layer. All fields come from an untrusted client.
type SubmitBetRequest struct {
	ChallengeID   uuid.UUID `json:"challenge_id"`
	BettorAddress string    `json:"bettor_address"`
	Amount        float64   `json:"amount"`
	Side          string    `json:"side"`
	Signature     string    `json:"signature"`
	Destination   string    `json:"destination"`
}
