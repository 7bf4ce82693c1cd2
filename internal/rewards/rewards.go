// Package rewards computes liquidity-mining accruals using seconds-inside
// accounting: a position earns in proportion to the time its price range
// was active within the incentive program window.
package rewards

import (
	"errors"
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// Accrual errors.
var (
	// ErrProgramNotStarted is returned when now is before the program
	// window opens; nothing can have accrued yet.
	ErrProgramNotStarted = errors.New("incentive program not started")

	// ErrInvalidWindow is returned for programs whose end does not
	// follow their start.
	ErrInvalidWindow = errors.New("incentive program window is invalid")
)

// Accrual is a position's earned state under one incentive program.
type Accrual struct {
	EarnedAmount          *big.Int // reward token smallest units
	SecondsInsideSnapshot int64    // clamped seconds-inside used for the figure
}

// Accrue computes a position's currently earned rewards.
//
// The reward is secondsInside * rewardRatePerSecond * liquidityShare,
// where liquidityShare is the position's fraction of the pool-wide staked
// liquidity. secondsInside is clamped to the elapsed program window,
// min(now, programEnd) - programStart, to guard against upstream
// accounting drift; the earned amount is capped at the program's
// remaining reward pool.
func Accrue(pos *domain.LiquidityPosition, stake *domain.StakeRecord, inc *domain.Incentive, now int64) (*Accrual, error) {
	if inc.EndTime <= inc.StartTime {
		return nil, ErrInvalidWindow
	}
	if now < inc.StartTime {
		return nil, ErrProgramNotStarted
	}
	if inc.TotalLiquidity == nil || inc.TotalLiquidity.Sign() == 0 {
		return nil, fixedpoint.ErrDivisionByZero
	}
	if pos.Liquidity == nil || pos.Liquidity.Sign() < 0 {
		return nil, fixedpoint.ErrNegativeAmount
	}

	elapsed := min64(now, inc.EndTime) - inc.StartTime
	seconds := stake.SecondsInsideTotal
	if seconds < 0 {
		seconds = 0
	}
	if seconds > elapsed {
		seconds = elapsed
	}

	// seconds * rate * positionLiquidity / totalLiquidity
	earned := new(big.Int).Mul(big.NewInt(seconds), inc.RewardRatePerSecond)
	earned, err := fixedpoint.MulDiv(earned, pos.Liquidity, inc.TotalLiquidity)
	if err != nil {
		return nil, err
	}

	if inc.RewardPoolRemaining != nil && earned.Cmp(inc.RewardPoolRemaining) > 0 {
		earned.Set(inc.RewardPoolRemaining)
	}

	return &Accrual{
		EarnedAmount:          earned,
		SecondsInsideSnapshot: seconds,
	}, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
