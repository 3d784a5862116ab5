package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// SummaryCache implements domain.SummaryCache using Redis string values
// holding JSON-encoded aggregates. Entries expire after a TTL so a missed
// invalidation can only produce bounded staleness; the betting service still
// invalidates synchronously on every accepted bet.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache creates a SummaryCache backed by the given Client. A zero
// ttl disables expiry.
func NewSummaryCache(c *Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		rdb: c.Underlying(),
		ttl: ttl,
	}
}

func summaryKey(challengeID uuid.UUID) string {
	return "summary:" + challengeID.String()
}

// Get returns the cached aggregate for a challenge, with a hit indicator.
func (c *SummaryCache) Get(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, bool, error) {
	data, err := c.rdb.Get(ctx, summaryKey(challengeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ChallengeSummary{}, false, nil
		}
		return domain.ChallengeSummary{}, false, fmt.Errorf("redis: get summary: %w", err)
	}

	var sum domain.ChallengeSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		return domain.ChallengeSummary{}, false, nil
	}
	return sum, true, nil
}

// Set stores the aggregate for a challenge.
func (c *SummaryCache) Set(ctx context.Context, challengeID uuid.UUID, sum domain.ChallengeSummary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("redis: marshal summary: %w", err)
	}
	if err := c.rdb.Set(ctx, summaryKey(challengeID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set summary: %w", err)
	}
	return nil
}

// Invalidate removes the cached aggregate for a challenge. It is called
// synchronously after every accepted bet so a caller re-reading its own
// write never sees the pre-append aggregate.
func (c *SummaryCache) Invalidate(ctx context.Context, challengeID uuid.UUID) error {
	if err := c.rdb.Del(ctx, summaryKey(challengeID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate summary: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SummaryCache = (*SummaryCache)(nil)
