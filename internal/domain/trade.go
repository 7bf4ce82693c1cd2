package domain

import "math/big"

// Trade represents one executed trade against a club's curve.
// Corresponds to the trades table; the log is append-only.
type Trade struct {
	ID          int64    // BIGSERIAL primary key
	ClubID      string   // FK to clubs
	TxSignature string   // chain transaction signature
	EventIndex  int      // index of trade within transaction
	IsBuy       bool     // buy (quote in, tokens out) or sell
	AmountIn    *big.Int // quote units for buys, token units for sells
	AmountOut   *big.Int // token units for buys, quote units for sells
	Price       *big.Int // execution price, quote units per whole token
	Trader      string   // base58 trader address
	Timestamp   int64    // Unix timestamp in milliseconds
	CreatedAt   int64    // record creation timestamp (ms)
}
