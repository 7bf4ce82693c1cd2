package curve

import (
	"fmt"
	"math/big"
)

// ExponentialCurve prices supply along a geometric schedule:
//
//	price(s) = basePrice * growthNum^k / growthDen^k, k = s / stepSize
//
// with stepSize in token smallest units. Price is constant within a step
// and multiplies by growthNum/growthDen (> 1) at each step boundary, so
// the schedule is strictly increasing per step.
type ExponentialCurve struct {
	basePrice *big.Int
	growthNum *big.Int
	growthDen *big.Int
	stepSize  *big.Int
}

// NewExponentialCurve creates an exponential curve. growthNum must exceed
// growthDen, both positive; stepSize must be positive.
func NewExponentialCurve(basePrice, growthNum, growthDen, stepSize *big.Int) *ExponentialCurve {
	return &ExponentialCurve{
		basePrice: new(big.Int).Set(basePrice),
		growthNum: new(big.Int).Set(growthNum),
		growthDen: new(big.Int).Set(growthDen),
		stepSize:  new(big.Int).Set(stepSize),
	}
}

// PriceForSupply returns the spot price at the given supply.
func (c *ExponentialCurve) PriceForSupply(supply *big.Int) *big.Int {
	if supply == nil || supply.Sign() <= 0 {
		return new(big.Int).Set(c.basePrice)
	}
	k := new(big.Int).Quo(supply, c.stepSize)
	num := new(big.Int).Exp(c.growthNum, k, nil)
	den := new(big.Int).Exp(c.growthDen, k, nil)
	price := new(big.Int).Mul(c.basePrice, num)
	return price.Quo(price, den)
}

// ID returns the curve identifier including its parameters.
func (c *ExponentialCurve) ID() string {
	return fmt.Sprintf("EXPONENTIAL:base=%s,growth=%s/%s,step=%s",
		c.basePrice, c.growthNum, c.growthDen, c.stepSize)
}
