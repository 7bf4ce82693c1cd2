package curve

import (
	"errors"
	"math/big"
)

// Curve shape identifiers.
const (
	ShapePower       = "POWER"
	ShapeExponential = "EXPONENTIAL"
)

// Factory errors.
var (
	ErrUnknownCurveShape    = errors.New("unknown curve shape")
	ErrMissingBasePrice     = errors.New("curve requires positive BasePrice")
	ErrMissingCoefficient   = errors.New("POWER requires positive Coefficient")
	ErrMissingExponent      = errors.New("POWER requires Exponent >= 1")
	ErrInvalidGrowth        = errors.New("EXPONENTIAL requires GrowthNum > GrowthDen > 0")
	ErrMissingStepSize      = errors.New("EXPONENTIAL requires positive StepSize")
	ErrMissingFlatThreshold = errors.New("curve requires positive FlatThreshold")
)

// Config selects and parameterizes a curve shape. All big.Int fields are
// decimal strings so configs survive flag/env plumbing without precision
// loss.
type Config struct {
	Shape string

	// BasePrice is the price at supply zero, quote smallest units per
	// whole token. Shared by all shapes.
	BasePrice string

	// FlatThreshold is the graduation supply in token smallest units.
	FlatThreshold string

	// POWER parameters.
	Coefficient string
	Exponent    uint

	// EXPONENTIAL parameters.
	GrowthNum string
	GrowthDen string
	StepSize  string // token smallest units per price step
}

// FromConfig creates a PriceCurve from Config, validating required
// parameters per shape.
func FromConfig(cfg Config) (PriceCurve, error) {
	base, ok := parsePositive(cfg.BasePrice)
	if !ok {
		return nil, ErrMissingBasePrice
	}

	switch cfg.Shape {
	case ShapePower:
		coeff, ok := parsePositive(cfg.Coefficient)
		if !ok {
			return nil, ErrMissingCoefficient
		}
		if cfg.Exponent < 1 {
			return nil, ErrMissingExponent
		}
		return NewPowerCurve(base, coeff, cfg.Exponent), nil

	case ShapeExponential:
		num, okN := parsePositive(cfg.GrowthNum)
		den, okD := parsePositive(cfg.GrowthDen)
		if !okN || !okD || num.Cmp(den) <= 0 {
			return nil, ErrInvalidGrowth
		}
		step, ok := parsePositive(cfg.StepSize)
		if !ok {
			return nil, ErrMissingStepSize
		}
		return NewExponentialCurve(base, num, den, step), nil

	default:
		return nil, ErrUnknownCurveShape
	}
}

// ParseFlatThreshold extracts and validates the graduation supply.
func ParseFlatThreshold(cfg Config) (*big.Int, error) {
	threshold, ok := parsePositive(cfg.FlatThreshold)
	if !ok {
		return nil, ErrMissingFlatThreshold
	}
	return threshold, nil
}

// parsePositive parses a decimal string into a positive big.Int.
func parsePositive(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, false
	}
	return v, true
}
