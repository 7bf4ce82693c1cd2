package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a trade. Returns ErrDuplicateKey if
// (club_id, tx_signature, event_index) exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.ClubID == "" || t.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trades (
			club_id, tx_signature, event_index, is_buy,
			amount_in, amount_out, price, trader, timestamp, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	createdAt := t.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, query,
		t.ClubID,
		t.TxSignature,
		t.EventIndex,
		t.IsBuy,
		numericFromBig(t.AmountIn),
		numericFromBig(t.AmountOut),
		numericFromBig(t.Price),
		t.Trader,
		t.Timestamp,
		createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves trades for a club within [start, end]
// (inclusive, ms), ordered by timestamp ASC.
func (s *TradeStore) GetByTimeRange(ctx context.Context, clubID string, start, end int64) ([]*domain.Trade, error) {
	query := `
		SELECT id, club_id, tx_signature, event_index, is_buy,
		       amount_in, amount_out, price, trader, timestamp, created_at
		FROM trades
		WHERE club_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, clubID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// VolumeSince sums quote-side volume for a club's trades with
// timestamp >= since. The quote side is amount_in for buys and
// amount_out for sells.
func (s *TradeStore) VolumeSince(ctx context.Context, clubID string, since int64) (*big.Int, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN is_buy THEN amount_in ELSE amount_out END), 0)
		FROM trades
		WHERE club_id = $1 AND timestamp >= $2
	`

	var volume pgtype.Numeric
	if err := s.pool.QueryRow(ctx, query, clubID, since).Scan(&volume); err != nil {
		return nil, fmt.Errorf("sum volume: %w", err)
	}
	return bigFromNumeric(volume)
}

// LastPriceAt returns the execution price of the latest trade at or
// before the given timestamp. Returns ErrNotFound when the club has no
// trade that early.
func (s *TradeStore) LastPriceAt(ctx context.Context, clubID string, at int64) (*big.Int, error) {
	query := `
		SELECT price
		FROM trades
		WHERE club_id = $1 AND timestamp <= $2
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`

	var price pgtype.Numeric
	err := s.pool.QueryRow(ctx, query, clubID, at).Scan(&price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("last price at: %w", err)
	}
	return bigFromNumeric(price)
}

// scanTrade scans a trade row.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var (
		t         domain.Trade
		amountIn  pgtype.Numeric
		amountOut pgtype.Numeric
		price     pgtype.Numeric
	)
	err := row.Scan(
		&t.ID, &t.ClubID, &t.TxSignature, &t.EventIndex, &t.IsBuy,
		&amountIn, &amountOut, &price, &t.Trader, &t.Timestamp, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.AmountIn, err = bigFromNumeric(amountIn); err != nil {
		return nil, fmt.Errorf("decode amount_in: %w", err)
	}
	if t.AmountOut, err = bigFromNumeric(amountOut); err != nil {
		return nil, fmt.Errorf("decode amount_out: %w", err)
	}
	if t.Price, err = bigFromNumeric(price); err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	return &t, nil
}
