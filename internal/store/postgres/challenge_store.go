package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// ChallengeStore implements domain.ChallengeStore using PostgreSQL.
type ChallengeStore struct {
	pool *pgxpool.Pool
}

// NewChallengeStore creates a ChallengeStore backed by the given pool.
func NewChallengeStore(pool *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{pool: pool}
}

const challengeSelectCols = `id, title, description, category, prize_pool,
	duration_hours, allow_random_stop, COALESCE(image, ''), treasury_address,
	creator_address, created_at, deadline, status`

func scanChallengeRows(rows pgx.Rows) ([]domain.Challenge, error) {
	var challenges []domain.Challenge
	for rows.Next() {
		var ch domain.Challenge
		if err := rows.Scan(
			&ch.ID, &ch.Title, &ch.Description, &ch.Category, &ch.PrizePool,
			&ch.DurationHours, &ch.AllowRandomStop, &ch.Image, &ch.TreasuryAddress,
			&ch.CreatorAddress, &ch.CreatedAt, &ch.Deadline, &ch.Status,
		); err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

// Create inserts a new challenge definition.
func (s *ChallengeStore) Create(ctx context.Context, ch domain.Challenge) error {
	const query = `
		INSERT INTO challenges (
			id, title, description, category, prize_pool,
			duration_hours, allow_random_stop, image, treasury_address,
			creator_address, created_at, deadline, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, NULLIF($8, ''), $9,
			$10, $11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		ch.ID, ch.Title, ch.Description, ch.Category, ch.PrizePool,
		ch.DurationHours, ch.AllowRandomStop, ch.Image, ch.TreasuryAddress,
		ch.CreatorAddress, ch.CreatedAt, ch.Deadline, ch.Status,
	)
	if err != nil {
		return fmt.Errorf("postgres: create challenge: %w", err)
	}
	return nil
}

// GetByID returns a single challenge, or domain.ErrNotFound.
func (s *ChallengeStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Challenge, error) {
	query := `SELECT ` + challengeSelectCols + ` FROM challenges WHERE id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("postgres: get challenge: %w", err)
	}
	defer rows.Close()

	challenges, err := scanChallengeRows(rows)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("postgres: scan challenge: %w", err)
	}
	if len(challenges) == 0 {
		return domain.Challenge{}, domain.ErrNotFound
	}
	return challenges[0], nil
}

// List returns challenges ordered by creation time, most recent first.
func (s *ChallengeStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Challenge, error) {
	query := `SELECT ` + challengeSelectCols + ` FROM challenges ORDER BY created_at DESC`
	args := []any{}
	argIdx := 1

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
		return nil, fmt.Errorf("postgres: list challenges: %w", err)
	}
	defer rows.Close()

	challenges, err := scanChallengeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan challenges: %w", err)
	}
	return challenges, nil
}

// Count returns the total number of challenges.
func (s *ChallengeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM challenges").Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: count challenges: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.ChallengeStore = (*ChallengeStore)(nil)
