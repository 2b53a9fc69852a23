package core_test

import (
	"errors"
	"testing"
	"time"

	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

func TestRatePricing(t *testing.T) {
	total := core.RateTotal(dec("45"), 3)
	assertMoney(t, "total", total, "135.00")
	assertMoney(t, "profit", core.RateProfit(total, dec("0.95")), "128.25")

	asset := &core.CatalogEntry{ID: "gen-1", Name: "Generator", Kind: core.KindAsset, Rate: dec("45"), RateUnit: core.RateDay}
	line := core.RateLine(asset, core.SourceAsset, 3)
	s := core.Settle([]core.LineItem{line}, decimal.Zero)
	assertMoney(t, "settled total", s.Total, "135.00")
	assertMoney(t, "settled profit", s.Profit, "128.25")

	asset.Margin = dec("0.5")
	s = core.Settle([]core.LineItem{core.RateLine(asset, core.SourceAsset, 3)}, decimal.Zero)
	assertMoney(t, "profit with explicit margin", s.Profit, "67.50")
}

func TestRateUnit_Advance(t *testing.T) {
	start := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		unit core.RateUnit
		n    int
		want time.Time
	}{
		{core.RateHour, 5, time.Date(2026, 1, 31, 14, 0, 0, 0, time.UTC)},
		{core.RateDay, 3, time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)},
		{core.RateMonth, 1, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := tt.unit.Advance(start, tt.n); !got.Equal(tt.want) {
			t.Errorf("%s.Advance(%d) = %s, want %s", tt.unit, tt.n, got, tt.want)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	all := []core.Status{core.StatusPending, core.StatusInProgress, core.StatusCompleted, core.StatusCancelled}
	allowed := map[[2]core.Status]bool{
		{core.StatusPending, core.StatusInProgress}:    true,
		{core.StatusPending, core.StatusCancelled}:     true,
		{core.StatusInProgress, core.StatusCompleted}:  true,
		{core.StatusInProgress, core.StatusCancelled}:  true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]core.Status{from, to}]
			if got := core.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
			err := core.Transition(from, to)
			if want && err != nil {
				t.Errorf("Transition(%s, %s) unexpected error: %v", from, to, err)
			}
			if !want && !errors.Is(err, core.ErrInvalidTransition) {
				t.Errorf("Transition(%s, %s) = %v, want ErrInvalidTransition", from, to, err)
			}
		}
	}
	if !core.StatusCompleted.IsTerminal() || !core.StatusCancelled.IsTerminal() {
		t.Errorf("completed and cancelled must be terminal")
	}
	if core.StatusPending.IsTerminal() {
		t.Errorf("pending must not be terminal")
	}
}

func TestSplitWorkOrder(t *testing.T) {
	items := []core.LineItem{
		{SourceID: "svc", Source: core.SourceService, UnitPrice: dec("100"), UnitCost: dec("0"), Quantity: 1},
		{SourceID: "mat", Source: core.SourceMaterial, UnitPrice: dec("0"), UnitCost: dec("10"), Quantity: 2},
		{SourceID: "mart", Source: core.SourceMart, UnitPrice: dec("15"), UnitCost: dec("9"), Quantity: 1},
	}
	split := core.SplitWorkOrder(items, dec("110"))

	assertMoney(t, "mart revenue", split.MartRevenue, "15.00")
	assertMoney(t, "mart cost", split.MartCost, "9.00")
	assertMoney(t, "service revenue", split.ServiceRevenue, "95.00")
	assertMoney(t, "material cost", split.MaterialCost, "20.00")
	assertMoney(t, "net profit", split.NetProfit, "81.00")

	split = core.SplitWorkOrder(items[2:], dec("10"))
	assertMoney(t, "service revenue floors at zero", split.ServiceRevenue, "0.00")
}
