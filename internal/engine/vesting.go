package engine

import (
	"context"
	"math/big"
	"time"

	"club-token-engine/internal/vesting"
)

// VestingBalance is a beneficiary's unlock state net of what they have
// already withdrawn. AvailableBalance + VestingBalance == TotalBalance.
type VestingBalance struct {
	AvailableBalance string
	VestingBalance   string
	TotalBalance     string
}

// GetVestingBalance derives the grant's balances at the current time.
//
// The chain reports claimed-so-far alongside the grant; the claimed
// amount is deducted from the unlocked side, so the result reflects what
// the beneficiary can still withdraw. A claim exceeding the unlocked
// amount is InconsistentState, never clamped into plausibility.
func (e *Engine) GetVestingBalance(ctx context.Context, tokenAddress, account string) (_ *VestingBalance, retErr error) {
	defer observe("get_vesting_balance", time.Now(), &retErr)

	rctx, cancel := e.withDeadline(ctx)
	defer cancel()

	grant, err := e.reader.VestingGrant(rctx, tokenAddress, account)
	if err != nil {
		return nil, classify(err)
	}

	balances, err := vesting.Compute(grant, e.now().Unix())
	if err != nil {
		return nil, classify(err)
	}

	claimed := grant.Claimed
	if claimed == nil {
		claimed = new(big.Int)
	}
	if claimed.Sign() < 0 {
		return nil, errInconsistentState("chain reports negative claimed amount")
	}
	if claimed.Cmp(balances.Available) > 0 {
		return nil, errInconsistentState("claimed amount exceeds unlocked balance")
	}

	available := new(big.Int).Sub(balances.Available, claimed)
	total := new(big.Int).Sub(balances.Total, claimed)

	// available + vesting == total must survive the deduction.
	check := new(big.Int).Add(available, balances.Vesting)
	if check.Cmp(total) != 0 {
		return nil, errInconsistentState("balance conservation violated after claim deduction")
	}

	return &VestingBalance{
		AvailableBalance: formatTokens(available),
		VestingBalance:   formatTokens(balances.Vesting),
		TotalBalance:     formatTokens(total),
	}, nil
}
