// Package analytics computes time-windowed price deltas from historical
// snapshots. Pure fixed-point computation; no I/O.
package analytics

import (
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// Delta is the signed percentage change for one snapshot window.
type Delta struct {
	Positive bool
	ValuePct *big.Int // |delta| percentage, fixedpoint.PercentDecimals digits
}

// Result maps each window to its delta. A window absent from both maps
// was never recorded for the club; a window in Omitted had a snapshot
// whose price made the computation undefined.
type Result struct {
	Deltas  map[domain.SnapshotWindow]Delta
	Omitted map[domain.SnapshotWindow]error
}

// ComputeDeltas computes the percentage change from each snapshot to the
// current price. Missing windows are omitted rather than defaulted to
// zero; a zero snapshot price omits the window with a DivisionByZero flag
// instead of failing the whole result.
func ComputeDeltas(current *big.Int, snapshots []*domain.PriceSnapshot) *Result {
	res := &Result{
		Deltas:  make(map[domain.SnapshotWindow]Delta),
		Omitted: make(map[domain.SnapshotWindow]error),
	}
	if current == nil {
		return res
	}

	for _, snap := range snapshots {
		if snap == nil || !snap.Window.Valid() {
			continue
		}
		pct, err := fixedpoint.Delta(current, snap.Price)
		if err != nil {
			res.Omitted[snap.Window] = err
			continue
		}
		res.Deltas[snap.Window] = Delta{Positive: pct.Positive, ValuePct: pct.Value}
	}
	return res
}
