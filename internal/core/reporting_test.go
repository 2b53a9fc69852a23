package core_test

import (
	"testing"
	"time"

	"retail-suite/internal/core"
)

func TestReporting(t *testing.T) {
	f := newFixture(t, "100", "0")
	a := f.product(t, "A", "10.00", "6.00", 10)
	b := f.product(t, "B", "4.00", "1.00", 3)

	for _, items := range [][]core.ItemRequest{
		{{EntryID: a.ID, Quantity: 2}},
		{{EntryID: a.ID, Quantity: 1}, {EntryID: b.ID, Quantity: 2}},
	} {
		if _, err := f.checkout.Checkout(f.ctx, core.CheckoutRequest{CompanyCode: f.code(), Items: items}); err != nil {
			t.Fatalf("Checkout failed: %v", err)
		}
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	summary, err := f.reports.SalesSummary(f.ctx, f.code(), from, to)
	if err != nil {
		t.Fatalf("SalesSummary failed: %v", err)
	}
	if summary.Total.Transactions != 2 {
		t.Errorf("transactions = %d, want 2", summary.Total.Transactions)
	}
	assertMoney(t, "revenue", summary.Total.Revenue, "38.00")
	assertMoney(t, "profit", summary.Total.Profit, "18.00")
	if len(summary.Modules) != len(core.AllModules) || summary.Modules[0].Module != core.ModuleMart {
		t.Errorf("unexpected module breakdown: %+v", summary.Modules)
	}

	empty, err := f.reports.SalesSummary(f.ctx, f.code(), to, to.Add(time.Hour))
	if err != nil || empty.Total.Transactions != 0 {
		t.Errorf("future window = %+v, %v", empty, err)
	}
	if _, err := f.reports.SalesSummary(f.ctx, f.code(), to, from); !core.IsValidation(err) {
		t.Errorf("reversed period should fail validation, got %v", err)
	}

	top, err := f.reports.TopItems(f.ctx, f.code(), from, to, 1)
	if err != nil {
		t.Fatalf("TopItems failed: %v", err)
	}
	if len(top) != 1 || top[0].SourceID != a.ID || top[0].Quantity != 3 {
		t.Errorf("unexpected top items: %+v", top)
	}

	low, err := f.reports.LowStock(f.ctx, f.code(), 2)
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].ID != b.ID {
		t.Errorf("unexpected low stock: %+v", low)
	}

	d, err := f.reports.Dashboard(f.ctx, f.code(), from, to, 2)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.Sales.Total.Transactions != 2 || len(d.LowStock) != 1 || d.Capital == nil {
		t.Errorf("unexpected dashboard: %+v", d)
	}
	assertMoney(t, "dashboard balance", d.Capital.Balance, "138.00")
}
