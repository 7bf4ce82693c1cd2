package curve

import (
	"fmt"
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// PowerCurve prices supply along a polynomial schedule:
//
//	price(s) = basePrice + coefficient * s^exponent / 10^(TokenDecimals*exponent)
//
// with s in token smallest units, so the coefficient applies per
// whole-token power. The single trailing division keeps the schedule
// exact and strictly increasing per whole token for coefficient >= 1.
type PowerCurve struct {
	basePrice   *big.Int // price at supply zero, quote units
	coefficient *big.Int
	exponent    uint
	denom       *big.Int // 10^(TokenDecimals * exponent)
}

// NewPowerCurve creates a power curve. basePrice must be positive so the
// schedule is continuous at zero; coefficient must be positive for strict
// monotonicity.
func NewPowerCurve(basePrice, coefficient *big.Int, exponent uint) *PowerCurve {
	denom := new(big.Int).Exp(
		fixedpoint.Pow10(domain.TokenDecimals),
		big.NewInt(int64(exponent)),
		nil,
	)
	return &PowerCurve{
		basePrice:   new(big.Int).Set(basePrice),
		coefficient: new(big.Int).Set(coefficient),
		exponent:    exponent,
		denom:       denom,
	}
}

// PriceForSupply returns the spot price at the given supply.
func (c *PowerCurve) PriceForSupply(supply *big.Int) *big.Int {
	if supply == nil || supply.Sign() <= 0 {
		return new(big.Int).Set(c.basePrice)
	}
	term := new(big.Int).Exp(supply, big.NewInt(int64(c.exponent)), nil)
	term.Mul(term, c.coefficient)
	term.Quo(term, c.denom)
	return term.Add(term, c.basePrice)
}

// ID returns the curve identifier including its parameters.
func (c *PowerCurve) ID() string {
	return fmt.Sprintf("POWER:base=%s,coeff=%s,exp=%d", c.basePrice, c.coefficient, c.exponent)
}
