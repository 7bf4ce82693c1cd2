// Package curve implements two-phase bonding-curve pricing: a pluggable
// price schedule below the graduation threshold, and a graduation signal
// once supply reaches it.
package curve

import (
	"errors"
	"math/big"
)

// Pricing errors.
var (
	// ErrGraduated signals that the club has transitioned to
	// open-liquidity pricing; not a failure, just use the other source.
	ErrGraduated = errors.New("bonding curve graduated")

	// ErrInvalidAmount is returned for non-positive trade amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientSupply is returned when a sell exceeds supply.
	ErrInsufficientSupply = errors.New("sell amount exceeds circulating supply")
)

// PriceCurve maps cumulative supply to spot price.
//
// Implementations must be deterministic, side-effect-free, defined at
// supply zero, and strictly increasing in whole-token supply steps below
// the flat threshold.
type PriceCurve interface {
	// PriceForSupply returns the spot price at the given circulating
	// supply: quote smallest units per one whole token. Supply is in
	// token smallest units.
	PriceForSupply(supply *big.Int) *big.Int

	// ID returns the curve identifier including its parameters.
	ID() string
}
