package engine

import (
	"context"
	"errors"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/curve"
	"club-token-engine/internal/fixedpoint"
	"club-token-engine/internal/rewards"
	"club-token-engine/internal/vesting"
)

// Kind classifies an engine failure for the caller. The request layer
// maps kinds onto transport status codes; the engine never does.
type Kind string

const (
	// KindInvalidAmount marks a non-positive or malformed quantity.
	// Always a caller bug, never retried.
	KindInvalidAmount Kind = "InvalidAmount"

	// KindDivisionByZero marks a zero denominator in a computation
	// (snapshot price, vesting duration, pool liquidity).
	KindDivisionByZero Kind = "DivisionByZero"

	// KindGraduatedCurve signals that bonding-curve pricing no longer
	// applies and the open liquidity venue is the pricing source.
	KindGraduatedCurve Kind = "GraduatedCurve"

	// KindUpstreamTimeout marks a chain or indexer read that missed its
	// deadline. Safe for the caller to retry with backoff.
	KindUpstreamTimeout Kind = "UpstreamTimeout"

	// KindUpstreamUnavailable marks a chain or indexer endpoint that
	// could not be reached.
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"

	// KindInconsistentState marks fetched data that violates an
	// invariant. Never silently corrected.
	KindInconsistentState Kind = "InconsistentState"

	// KindNotFound marks a club, grant or position that does not exist.
	KindNotFound Kind = "NotFound"

	// KindInternal marks a failure outside the taxonomy.
	KindInternal Kind = "Internal"
)

// Error is the {kind, message} pair every engine operation returns on
// failure.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// classify maps a sentinel error from the computation and chain layers
// onto the engine taxonomy, preserving the cause for errors.Is checks.
func classify(err error) *Error {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr
	}

	kind := KindInternal
	switch {
	case errors.Is(err, curve.ErrInvalidAmount),
		errors.Is(err, curve.ErrInsufficientSupply),
		errors.Is(err, fixedpoint.ErrNegativeAmount):
		kind = KindInvalidAmount
	case errors.Is(err, curve.ErrGraduated):
		kind = KindGraduatedCurve
	case errors.Is(err, fixedpoint.ErrDivisionByZero),
		errors.Is(err, vesting.ErrZeroDuration):
		kind = KindDivisionByZero
	case errors.Is(err, vesting.ErrInconsistentState),
		errors.Is(err, rewards.ErrInvalidWindow):
		kind = KindInconsistentState
	case errors.Is(err, chain.ErrUpstreamTimeout),
		errors.Is(err, context.DeadlineExceeded):
		kind = KindUpstreamTimeout
	case errors.Is(err, chain.ErrUpstreamUnavailable):
		kind = KindUpstreamUnavailable
	case errors.Is(err, chain.ErrNotFound):
		kind = KindNotFound
	}

	return &Error{Kind: kind, Message: err.Error(), cause: err}
}

func errInvalidAmount(msg string) *Error {
	return &Error{Kind: KindInvalidAmount, Message: msg}
}

func errInconsistentState(msg string) *Error {
	return &Error{Kind: KindInconsistentState, Message: msg}
}
