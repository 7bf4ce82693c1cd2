package analytics

import (
	"math/big"
	"testing"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

func snap(w domain.SnapshotWindow, price int64) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{ClubID: "club-A", Window: w, Price: big.NewInt(price)}
}

func TestComputeDeltas_AllWindows(t *testing.T) {
	current := big.NewInt(100)
	res := ComputeDeltas(current, []*domain.PriceSnapshot{
		snap(domain.Window24h, 50),  // +100.00%
		snap(domain.Window6h, 80),   // +25.00%
		snap(domain.Window1h, 100),  // +0.00%
		snap(domain.Window5m, 125),  // -20.00%
	})

	if len(res.Deltas) != 4 {
		t.Fatalf("expected 4 deltas, got %d", len(res.Deltas))
	}
	if len(res.Omitted) != 0 {
		t.Fatalf("expected no omitted windows, got %d", len(res.Omitted))
	}

	cases := []struct {
		window   domain.SnapshotWindow
		positive bool
		value    int64
	}{
		{domain.Window24h, true, 10000},
		{domain.Window6h, true, 2500},
		{domain.Window1h, true, 0},
		{domain.Window5m, false, 2000},
	}
	for _, tc := range cases {
		d, ok := res.Deltas[tc.window]
		if !ok {
			t.Fatalf("window %s missing", tc.window)
		}
		if d.Positive != tc.positive {
			t.Errorf("window %s: expected positive=%v", tc.window, tc.positive)
		}
		if d.ValuePct.Cmp(big.NewInt(tc.value)) != 0 {
			t.Errorf("window %s: expected %d, got %s", tc.window, tc.value, d.ValuePct)
		}
	}
}

func TestComputeDeltas_TenPercentDown(t *testing.T) {
	res := ComputeDeltas(big.NewInt(90), []*domain.PriceSnapshot{
		snap(domain.Window24h, 100),
	})

	d, ok := res.Deltas[domain.Window24h]
	if !ok {
		t.Fatal("expected 24h delta")
	}
	if d.Positive {
		t.Error("expected negative delta")
	}
	if d.ValuePct.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("expected 10.00%%, got %s", d.ValuePct)
	}
}

func TestComputeDeltas_MissingWindowOmitted(t *testing.T) {
	// Only 24h recorded; other windows must be absent, never zeroed.
	res := ComputeDeltas(big.NewInt(100), []*domain.PriceSnapshot{
		snap(domain.Window24h, 50),
	})

	if len(res.Deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(res.Deltas))
	}
	for _, w := range []domain.SnapshotWindow{domain.Window6h, domain.Window1h, domain.Window5m} {
		if _, ok := res.Deltas[w]; ok {
			t.Errorf("window %s should be absent", w)
		}
		if _, ok := res.Omitted[w]; ok {
			t.Errorf("window %s should not be flagged", w)
		}
	}
}

func TestComputeDeltas_ZeroSnapshotOmittedWithFlag(t *testing.T) {
	res := ComputeDeltas(big.NewInt(100), []*domain.PriceSnapshot{
		snap(domain.Window24h, 0),
		snap(domain.Window1h, 50),
	})

	if _, ok := res.Deltas[domain.Window24h]; ok {
		t.Error("zero-price window must not produce a delta")
	}
	if err := res.Omitted[domain.Window24h]; err != fixedpoint.ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero flag, got %v", err)
	}
	if _, ok := res.Deltas[domain.Window1h]; !ok {
		t.Error("valid window must still be computed")
	}
}

func TestComputeDeltas_UnknownWindowIgnored(t *testing.T) {
	res := ComputeDeltas(big.NewInt(100), []*domain.PriceSnapshot{
		{ClubID: "club-A", Window: "48h", Price: big.NewInt(50)},
	})
	if len(res.Deltas) != 0 || len(res.Omitted) != 0 {
		t.Error("non-canonical window must be ignored")
	}
}
