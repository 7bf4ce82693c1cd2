// Package engine is the typed API the platform's request layer calls:
// trade quotes, trading info, vesting balances, staking rewards and
// bonding progress. Every operation fetches request-scoped chain and
// indexer state, runs the pure computations from the inner packages and
// returns decimal-string amounts. The engine holds no mutable state and
// performs no writes.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/curve"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
	"club-token-engine/internal/observability"
	"club-token-engine/internal/storage"
)

// DefaultReadTimeout bounds every outbound read. A stalled RPC call
// fails the operation with UpstreamTimeout instead of hanging the caller.
const DefaultReadTimeout = 5 * time.Second

// Engine serves the token-economics API. Stateless; safe for concurrent
// use.
type Engine struct {
	reader chain.Reader
	pricer *curve.Pricer
	trades storage.TradeStore
	snaps  storage.SnapshotStore

	logger      *log.Logger
	readTimeout time.Duration
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithReadTimeout overrides the per-read deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.readTimeout = d }
}

// WithClock overrides the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the given chain reader, curve pricer and
// indexer read stores.
func New(reader chain.Reader, pricer *curve.Pricer, trades storage.TradeStore, snaps storage.SnapshotStore, opts ...Option) *Engine {
	e := &Engine{
		reader:      reader,
		pricer:      pricer,
		trades:      trades,
		snaps:       snaps,
		logger:      log.New(io.Discard, "", 0),
		readTimeout: DefaultReadTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// withDeadline scopes one outbound read. Results arriving after the
// deadline are discarded by the caller, never acted upon.
func (e *Engine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.readTimeout)
}

// parseAmount converts a boundary decimal string into smallest units at
// the given scale. The amount must be positive and must not carry more
// fractional digits than the scale holds.
func parseAmount(s string, decimals int) (*big.Int, *Error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errInvalidAmount("malformed amount " + s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, errInvalidAmount("amount " + s + " has too many decimal places")
	}
	v := scaled.BigInt()
	if v.Sign() <= 0 {
		return nil, errInvalidAmount("amount must be positive")
	}
	return v, nil
}

// formatAmount renders smallest units as a boundary decimal string.
func formatAmount(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// formatPercent renders a fixed-point percentage with its full
// fractional width, e.g. 8750 -> "87.50".
func formatPercent(v *big.Int) string {
	if v == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(v, -fixedpoint.PercentDecimals).
		StringFixed(fixedpoint.PercentDecimals)
}

// formatTokens renders token smallest units.
func formatTokens(v *big.Int) string {
	return formatAmount(v, domain.TokenDecimals)
}

// formatQuote renders quote smallest units.
func formatQuote(v *big.Int) string {
	return formatAmount(v, domain.QuoteDecimals)
}

// observe records one operation's outcome in the process metrics.
// Deferred with the error pointer so the final error is read at exit.
func observe(op string, start time.Time, errp *error) {
	var kind string
	if *errp != nil {
		kind = string(KindInternal)
		var e *Error
		if errors.As(*errp, &e) {
			kind = string(e.Kind)
		}
	}
	observability.ObserveEngineOp(op, start, kind)
}
