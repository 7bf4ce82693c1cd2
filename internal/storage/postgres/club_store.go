package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// ClubStore implements storage.ClubStore using PostgreSQL.
type ClubStore struct {
	pool *Pool
}

// NewClubStore creates a new ClubStore.
func NewClubStore(pool *Pool) *ClubStore {
	return &ClubStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClubStore = (*ClubStore)(nil)

// Upsert inserts or replaces a club row keyed by club_id.
func (s *ClubStore) Upsert(ctx context.Context, c *domain.Club) error {
	if c == nil || c.ClubID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO clubs (
			club_id, creator, supply, reserve, holders, completed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (club_id) DO UPDATE SET
			supply = EXCLUDED.supply,
			reserve = EXCLUDED.reserve,
			holders = EXCLUDED.holders,
			completed = EXCLUDED.completed
	`

	_, err := s.pool.Exec(ctx, query,
		c.ClubID,
		c.Creator,
		numericFromBig(c.Supply),
		numericFromBig(c.Reserve),
		c.Holders,
		c.Completed,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert club: %w", err)
	}
	return nil
}

// GetByID retrieves a club. Returns ErrNotFound if not exists.
func (s *ClubStore) GetByID(ctx context.Context, clubID string) (*domain.Club, error) {
	query := `
		SELECT club_id, creator, supply, reserve, holders, completed, created_at
		FROM clubs
		WHERE club_id = $1
	`

	row := s.pool.QueryRow(ctx, query, clubID)
	c, err := scanClub(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get club by id: %w", err)
	}
	return c, nil
}

// List retrieves all known clubs ordered by created_at ASC.
func (s *ClubStore) List(ctx context.Context) ([]*domain.Club, error) {
	query := `
		SELECT club_id, creator, supply, reserve, holders, completed, created_at
		FROM clubs
		ORDER BY created_at ASC, club_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*domain.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

// scanClub scans a club row.
func scanClub(row pgx.Row) (*domain.Club, error) {
	var (
		c       domain.Club
		supply  pgtype.Numeric
		reserve pgtype.Numeric
	)
	err := row.Scan(&c.ClubID, &c.Creator, &supply, &reserve, &c.Holders, &c.Completed, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if c.Supply, err = bigFromNumeric(supply); err != nil {
		return nil, fmt.Errorf("decode supply: %w", err)
	}
	if c.Reserve, err = bigFromNumeric(reserve); err != nil {
		return nil, fmt.Errorf("decode reserve: %w", err)
	}
	return &c, nil
}
