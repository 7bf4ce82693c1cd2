// Package fixedpoint provides exact integer math over token-decimal
// quantities. Monetary values are arbitrary-precision integers scaled by a
// fixed decimal exponent; no floating point ever touches a monetary value.
package fixedpoint

import (
	"errors"
	"math/big"
)

// Computation errors.
var (
	// ErrDivisionByZero is returned when a computation's denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNegativeAmount is returned when a quantity that must be
	// non-negative carries a negative sign.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInexactRescale is returned when scaling down would discard a
	// non-zero remainder and the caller demanded exactness.
	ErrInexactRescale = errors.New("inexact rescale: non-zero remainder")
)

// PercentDecimals is the number of fractional digits carried by percentage
// values. A Percent value of 1050 renders as "10.50".
const PercentDecimals = 2

var (
	oneHundred   = big.NewInt(100)
	percentScale = Pow10(PercentDecimals)
)

// Pow10 returns 10^n as a fresh big.Int. n must be non-negative.
func Pow10(n int) *big.Int {
	if n < 0 {
		panic("fixedpoint: negative power of ten")
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Rescale converts v from one decimal exponent to another by the exact
// power-of-ten difference. Scaling up is always exact. Scaling down uses
// integer division; the discarded remainder is returned alongside so
// callers can detect precision loss.
func Rescale(v *big.Int, fromDecimals, toDecimals int) (scaled, remainder *big.Int) {
	if v == nil {
		return new(big.Int), new(big.Int)
	}
	diff := toDecimals - fromDecimals
	switch {
	case diff == 0:
		return new(big.Int).Set(v), new(big.Int)
	case diff > 0:
		return new(big.Int).Mul(v, Pow10(diff)), new(big.Int)
	default:
		q, r := new(big.Int).QuoRem(v, Pow10(-diff), new(big.Int))
		return q, r
	}
}

// RescaleExact converts v between decimal exponents and fails with
// ErrInexactRescale if the conversion would lose precision.
func RescaleExact(v *big.Int, fromDecimals, toDecimals int) (*big.Int, error) {
	scaled, rem := Rescale(v, fromDecimals, toDecimals)
	if rem.Sign() != 0 {
		return nil, ErrInexactRescale
	}
	return scaled, nil
}

// MulDiv computes a * b / den with full intermediate precision.
// Returns ErrDivisionByZero when den is zero.
func MulDiv(a, b, den *big.Int) (*big.Int, error) {
	if den == nil || den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	prod := new(big.Int).Mul(a, b)
	return prod.Quo(prod, den), nil
}

// MulDivCeil computes ceil(a * b / den) for non-negative operands.
// Returns ErrDivisionByZero when den is zero.
func MulDivCeil(a, b, den *big.Int) (*big.Int, error) {
	if den == nil || den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	prod := new(big.Int).Mul(a, b)
	q, r := prod.QuoRem(prod, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// Clamp bounds v to [lo, hi] and returns a fresh value.
func Clamp(v, lo, hi *big.Int) *big.Int {
	if v.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if v.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return new(big.Int).Set(v)
}

// Percent is an unsigned fixed-point percentage with an explicit sign flag.
// Value carries PercentDecimals fractional digits; the separate flag avoids
// representational ambiguity at zero.
type Percent struct {
	Positive bool
	Value    *big.Int // |pct| scaled by 10^PercentDecimals
}

// Delta computes the signed percentage change from base to current:
// |current - base| / base * 100, in fixed point. Positive is true when
// current >= base. Returns ErrDivisionByZero when base is zero.
func Delta(current, base *big.Int) (Percent, error) {
	if base == nil || base.Sign() == 0 {
		return Percent{}, ErrDivisionByZero
	}
	diff := new(big.Int).Sub(current, base)
	positive := diff.Sign() >= 0
	diff.Abs(diff)
	diff.Mul(diff, oneHundred)
	diff.Mul(diff, percentScale)
	value := diff.Quo(diff, new(big.Int).Abs(base))
	return Percent{Positive: positive, Value: value}, nil
}

// Ratio computes part / whole * 100 as an unsigned fixed-point percentage
// clamped to [0, 100.00]. Returns ErrDivisionByZero when whole is zero.
func Ratio(part, whole *big.Int) (*big.Int, error) {
	if whole == nil || whole.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if part == nil || part.Sign() < 0 {
		part = new(big.Int)
	}
	v := new(big.Int).Mul(part, oneHundred)
	v.Mul(v, percentScale)
	v.Quo(v, whole)
	max := new(big.Int).Mul(oneHundred, percentScale)
	return Clamp(v, new(big.Int), max), nil
}
