package domain

import (
	"math/big"
	"time"
)

// SnapshotWindow names a canonical historical price sample.
type SnapshotWindow string

// Canonical look-back windows bracketing the last day.
const (
	Window24h SnapshotWindow = "24h"
	Window6h  SnapshotWindow = "6h"
	Window1h  SnapshotWindow = "1h"
	Window5m  SnapshotWindow = "5m"
)

// CanonicalWindows lists all snapshot windows in fixed order.
var CanonicalWindows = []SnapshotWindow{Window24h, Window6h, Window1h, Window5m}

// Lookback returns the window's offset from now.
func (w SnapshotWindow) Lookback() time.Duration {
	switch w {
	case Window24h:
		return 24 * time.Hour
	case Window6h:
		return 6 * time.Hour
	case Window1h:
		return time.Hour
	case Window5m:
		return 5 * time.Minute
	default:
		return 0
	}
}

// Valid reports whether w is one of the canonical windows.
func (w SnapshotWindow) Valid() bool {
	return w.Lookback() > 0
}

// PriceSnapshot is a historical price sample for a club at a fixed
// look-back offset. Immutable once written; owned by the club aggregate.
type PriceSnapshot struct {
	ClubID     string
	Window     SnapshotWindow
	Price      *big.Int // quote units per whole token
	CapturedAt int64    // Unix timestamp in milliseconds
}

// TradeTimeseriesPoint is one trade projected onto the analytics
// timeseries: execution price plus quote-side volume at a timestamp.
type TradeTimeseriesPoint struct {
	ClubID      string
	TimestampMs int64
	Price       *big.Int // quote units per whole token
	Volume      *big.Int // quote smallest units moved by the trade
	IsBuy       bool
}
