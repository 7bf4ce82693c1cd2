package domain

import "math/big"

// Token decimal configuration for the platform.
const (
	// TokenDecimals is the club token's decimal exponent.
	// All supply and token amounts are integers in 10^-9 units.
	TokenDecimals = 9

	// QuoteDecimals is the quote stablecoin's decimal exponent.
	// All prices and quote amounts are integers in 10^-6 units.
	QuoteDecimals = 6
)

// Club represents a creator token and its bonding-curve state.
// Mirrors the on-chain club account; the local row is an indexer copy.
type Club struct {
	ClubID    string   // base58 club account address
	Creator   string   // base58 creator address
	Supply    *big.Int // circulating supply in token smallest units
	Reserve   *big.Int // quote currency held by the curve, smallest units
	Holders   int      // distinct holder count
	Completed bool     // graduated to open liquidity
	CreatedAt int64    // Unix timestamp in milliseconds
}

// Graduated reports whether bonding-curve pricing no longer applies.
// A club graduates when Completed is set or its supply reached the
// configured flat threshold; the threshold check lives in the curve package.
func (c *Club) Graduated() bool {
	return c.Completed
}
