package domain

import "math/big"

// LiquidityPosition is a concentrated-liquidity position from the CLMM
// venue a graduated club trades on. Identified by its position mint.
type LiquidityPosition struct {
	PositionMint string   // base58 position mint address
	Pool         string   // base58 pool address
	TickLower    int32
	TickUpper    int32
	Liquidity    *big.Int // position liquidity (pool units)
}

// Incentive is a liquidity-mining program window. All positions staked
// against the same key share one reward rate and end time.
type Incentive struct {
	Key                 string   // incentive program key
	Pool                string   // base58 pool address
	RewardToken         string   // base58 reward token mint
	StartTime           int64    // Unix timestamp in seconds
	EndTime             int64    // Unix timestamp in seconds
	RewardRatePerSecond *big.Int // reward token smallest units per second
	RewardPoolRemaining *big.Int // undistributed reward budget
	TotalLiquidity      *big.Int // pool-wide staked liquidity
}

// StakeRecord ties a position to an incentive program with the
// cumulative time the position's range was active.
type StakeRecord struct {
	PositionMint       string
	IncentiveKey       string
	SecondsInsideTotal int64 // cumulative seconds-inside at last checkpoint
}
