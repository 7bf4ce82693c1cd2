// Package vesting computes available vs. locked balances for token grants
// under a cliff-plus-linear unlock schedule. Balances are derived from
// wall-clock time and grant parameters; nothing is mutated.
package vesting

import (
	"errors"
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// Computation errors.
var (
	// ErrZeroDuration is returned for grants with a zero vesting
	// duration; the linear formula would divide by it.
	ErrZeroDuration = errors.New("vesting duration is zero")

	// ErrInconsistentState is returned when the computed balances break
	// the conservation invariant. Never silently corrected.
	ErrInconsistentState = errors.New("available + vesting != total")
)

// Balances is the derived unlock state of a grant at a point in time.
// Available + Vesting == Total holds for every result.
type Balances struct {
	Available *big.Int // unlocked, token smallest units
	Vesting   *big.Int // still locked
	Total     *big.Int // the grant's full allocation
}

// Compute derives the grant's balances at the given Unix time (seconds).
//
// Before and at the cliff end (startTime + cliffDuration) nothing is
// unlocked. After the cliff, unlock is linear in time elapsed since the
// cliff end over vestingDuration, so the grant fully unlocks at
// startTime + cliffDuration + vestingDuration. The result is
// monotonically non-decreasing in now for a fixed grant.
//
// Already-claimed amounts are not subtracted here; the caller owns that
// deduction (the chain reports claimed-so-far separately).
func Compute(g *domain.VestingGrant, now int64) (*Balances, error) {
	if g.VestingDuration <= 0 {
		return nil, ErrZeroDuration
	}
	total := g.TotalAllocated
	if total == nil || total.Sign() < 0 {
		return nil, fixedpoint.ErrNegativeAmount
	}

	available := unlocked(g, now)
	balances := &Balances{
		Available: available,
		Vesting:   new(big.Int).Sub(total, available),
		Total:     new(big.Int).Set(total),
	}

	sum := new(big.Int).Add(balances.Available, balances.Vesting)
	if sum.Cmp(balances.Total) != 0 {
		return nil, ErrInconsistentState
	}
	return balances, nil
}

// unlocked returns the unlocked amount, clamped to [0, total].
func unlocked(g *domain.VestingGrant, now int64) *big.Int {
	cliffEnd := g.StartTime + g.CliffDuration
	if now <= cliffEnd {
		return new(big.Int)
	}

	elapsed := now - cliffEnd
	if elapsed >= g.VestingDuration {
		return new(big.Int).Set(g.TotalAllocated)
	}

	v := new(big.Int).Mul(g.TotalAllocated, big.NewInt(elapsed))
	v.Quo(v, big.NewInt(g.VestingDuration))
	return fixedpoint.Clamp(v, new(big.Int), g.TotalAllocated)
}
