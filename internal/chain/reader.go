// Package chain provides read-only access to on-chain club, vesting and
// liquidity state over the platform's JSON-RPC endpoint. The engine only
// reads; it never signs or submits transactions.
package chain

import (
	"context"

	"club-token-engine/internal/domain"
)

// Reader defines the chain read interface the engine computes from.
type Reader interface {
	// ClubState retrieves a club's current curve state.
	// Returns ErrNotFound if the club does not exist.
	ClubState(ctx context.Context, clubID string) (*domain.Club, error)

	// VestingGrant retrieves a holder's grant for a token.
	// Returns ErrNotFound if no grant exists.
	VestingGrant(ctx context.Context, tokenAddress, beneficiary string) (*domain.VestingGrant, error)

	// LiquidityPosition retrieves a CLMM position by its position mint.
	LiquidityPosition(ctx context.Context, positionMint string) (*domain.LiquidityPosition, error)

	// StakeRecord retrieves a position's stake against an incentive.
	StakeRecord(ctx context.Context, positionMint, incentiveKey string) (*domain.StakeRecord, error)

	// Incentive retrieves an incentive program by key.
	Incentive(ctx context.Context, incentiveKey string) (*domain.Incentive, error)
}
