package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations, used to translate races on bets.signature into the domain
// duplicate-proof rejection.
const uniqueViolation = "23505"

// BetStore implements domain.BetStore using PostgreSQL. The proof registry
// lives in the proof_claims table; a claim and its bet are written in one
// transaction so neither is ever visible without the other.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

const betSelectCols = `id, challenge_id, bettor_address, amount, side,
	signature, destination, recorded_at, status`

func scanBetRows(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		if err := rows.Scan(
			&b.ID, &b.ChallengeID, &b.BettorAddress, &b.Amount, &b.Side,
			&b.Signature, &b.Destination, &b.RecordedAt, &b.Status,
		); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// Append atomically reserves the bet's transaction signature in the proof
// registry and inserts the bet. It returns domain.ErrDuplicateProof when the
// signature was ever consumed before, by any bet on any challenge. Any
// failure rolls the transaction back, releasing the reservation.
func (s *BetStore) Append(ctx context.Context, bet domain.Bet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin append bet: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO proof_claims (signature) VALUES ($1) ON CONFLICT (signature) DO NOTHING`,
		bet.Signature,
	)
	if err != nil {
		return fmt.Errorf("postgres: reserve proof: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateProof
	}

	const insertBet = `
		INSERT INTO bets (
			id, challenge_id, bettor_address, amount, side,
			signature, destination, recorded_at, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		)`

	if _, err := tx.Exec(ctx, insertBet,
		bet.ID, bet.ChallengeID, bet.BettorAddress, bet.Amount, bet.Side,
		bet.Signature, bet.Destination, bet.RecordedAt, bet.Status,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateProof
		}
		return fmt.Errorf("postgres: insert bet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit append bet: %w", err)
	}
	return nil
}

// ListForChallenge returns a challenge's bets ordered by recorded timestamp,
// most recent first.
func (s *BetStore) ListForChallenge(ctx context.Context, challengeID uuid.UUID, opts domain.ListOpts) ([]domain.Bet, error) {
	query := `SELECT ` + betSelectCols + ` FROM bets WHERE challenge_id = $1 ORDER BY recorded_at DESC`
	args := []any{challengeID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	defer rows.Close()

	bets, err := scanBetRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan bets: %w", err)
	}
	return bets, nil
}

// Summarize folds a challenge's bets into their aggregate directly in SQL.
// The result is always exactly the fold over the bets table; no counters are
// maintained elsewhere.
func (s *BetStore) Summarize(ctx context.Context, challengeID uuid.UUID) (domain.ChallengeSummary, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE side = 'yes'), 0),
			COALESCE(SUM(amount) FILTER (WHERE side = 'no'), 0)
		FROM bets
		WHERE challenge_id = $1`

	var sum domain.ChallengeSummary
	err := s.pool.QueryRow(ctx, query, challengeID).Scan(
		&sum.BetCount, &sum.TotalAmount, &sum.YesAmount, &sum.NoAmount,
	)
	if err != nil {
		return domain.ChallengeSummary{}, fmt.Errorf("postgres: summarize bets: %w", err)
	}
	return sum, nil
}

// ListBefore returns all bets recorded strictly before the given time, in
// recording order, for archival.
func (s *BetStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Bet, error) {
	query := `SELECT ` + betSelectCols + ` FROM bets WHERE recorded_at < $1 ORDER BY recorded_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets before: %w", err)
	}
	defer rows.Close()

	bets, err := scanBetRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan bets before: %w", err)
	}
	return bets, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
