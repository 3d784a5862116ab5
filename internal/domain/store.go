package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// ChallengeStore persists challenge definitions.
type ChallengeStore interface {
	Create(ctx context.Context, ch Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (Challenge, error)
	List(ctx context.Context, opts ListOpts) ([]Challenge, error)
	Count(ctx context.Context) (int64, error)
}

// BetStore is the authoritative append-only bet ledger together with the
// system-wide proof registry.
type BetStore interface {
	// Append durably records an accepted bet. The proof reservation and the
	// bet insert are a single atomic unit: Append returns ErrDuplicateProof
	// when the bet's Signature has ever been consumed before (across all
	// challenges), and a failed insert leaves no reservation behind.
	Append(ctx context.Context, bet Bet) error

	// ListForChallenge returns the challenge's accepted bets ordered by
	// recorded timestamp, most recent first.
	ListForChallenge(ctx context.Context, challengeID uuid.UUID, opts ListOpts) ([]Bet, error)

	// Summarize folds the challenge's accepted bets into their aggregate.
	Summarize(ctx context.Context, challengeID uuid.UUID) (ChallengeSummary, error)

	// ListBefore returns all bets recorded strictly before the cutoff, for
	// archival.
	ListBefore(ctx context.Context, before time.Time) ([]Bet, error)
}

// TransferVerifier confirms, against the external ledger, that a claimed
// transaction proof carries a native transfer of at least minAmount (in SOL)
// to the given destination. The boolean is authoritative and fail-closed; a
// non-nil error only carries the internal cause for logging and must still
// be treated as "not verified" by callers.
type TransferVerifier interface {
	VerifyTransfer(ctx context.Context, signature, destination string, minAmount float64) (bool, error)
}

// SummaryCache fronts BetStore.Summarize. Implementations must treat
// Invalidate as synchronous: once it returns, a following Get for the same
// challenge misses.
type SummaryCache interface {
	Get(ctx context.Context, challengeID uuid.UUID) (ChallengeSummary, bool, error)
	Set(ctx context.Context, challengeID uuid.UUID, sum ChallengeSummary) error
	Invalidate(ctx context.Context, challengeID uuid.UUID) error
}

// SignalBus is a lightweight pub/sub fabric used to fan accepted-bet and
// challenge events out to the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter bounds request rates per key across all server instances.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under a sliding
	// window of at most limit requests per window. Allowed requests are
	// counted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// BlobWriter uploads a named object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
