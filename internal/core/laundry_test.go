package core_test

import (
	"errors"
	"testing"
	"time"

	"retail-suite/internal/core"
)

func TestLaundry_SubscriptionQuota(t *testing.T) {
	f := newFixture(t, "0", "0")
	plan := f.entry(t, core.CatalogEntryInput{
		Kind:           core.KindPlan,
		Name:           "Family 20kg",
		Rate:           dec("30"),
		UnitCost:       dec("8"),
		QuotaPerPeriod: dec("20"),
	})

	sub, txn, err := f.laundry.Subscribe(f.ctx, core.SubscribeRequest{
		CompanyCode: f.code(),
		PlanID:      plan.ID,
		Months:      2,
		Customer:    &core.Customer{Name: "Rina"},
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	assertMoney(t, "total", txn.TotalAmount, "60.00")
	assertMoney(t, "profit", txn.Profit, "44.00")
	assertMoney(t, "quota", sub.QuotaKg, "40.00")
	if sub.TransactionID != txn.ID || txn.SubscriptionID != sub.ID {
		t.Errorf("subscription and transaction are not linked")
	}

	steps := []struct {
		kg      string
		wantErr error
		used    string
	}{
		{"15", nil, "15.00"},
		{"30", core.ErrQuotaExceeded, "15.00"},
		{"25", nil, "40.00"},
		{"0.1", core.ErrQuotaExceeded, "40.00"},
		{"0", core.ErrValidation, "40.00"},
	}
	for _, s := range steps {
		_, err := f.laundry.RecordUsage(f.ctx, f.code(), sub.ID, dec(s.kg))
		if s.wantErr == nil && err != nil {
			t.Fatalf("RecordUsage(%s) failed: %v", s.kg, err)
		}
		if s.wantErr != nil && !errors.Is(err, s.wantErr) {
			t.Fatalf("RecordUsage(%s) = %v, want %v", s.kg, err, s.wantErr)
		}
		got, err := f.laundry.GetSubscription(f.ctx, f.code(), sub.ID)
		if err != nil {
			t.Fatalf("GetSubscription failed: %v", err)
		}
		assertMoney(t, "used after "+s.kg, got.UsedKg, s.used)
	}
}

func TestLaundry_ExpireAndReverse(t *testing.T) {
	f := newFixture(t, "0", "0")
	plan := f.entry(t, core.CatalogEntryInput{Kind: core.KindPlan, Name: "Solo", Rate: dec("10"), QuotaPerPeriod: dec("5")})

	first, _, err := f.laundry.Subscribe(f.ctx, core.SubscribeRequest{
		CompanyCode: f.code(), PlanID: plan.ID, Months: 1, Customer: &core.Customer{Name: "A"},
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	second, secondTxn, err := f.laundry.Subscribe(f.ctx, core.SubscribeRequest{
		CompanyCode: f.code(), PlanID: plan.ID, Months: 6, Customer: &core.Customer{Name: "B"},
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	n, err := f.laundry.ExpireEnded(f.ctx, time.Now().UTC().AddDate(0, 2, 0))
	if err != nil || n != 1 {
		t.Fatalf("ExpireEnded = %d, %v; want 1", n, err)
	}
	if _, err := f.laundry.RecordUsage(f.ctx, f.code(), first.ID, dec("1")); !errors.Is(err, core.ErrSubscriptionClosed) {
		t.Errorf("usage on expired subscription should fail, got %v", err)
	}

	if _, err := f.transactions.Reverse(f.ctx, f.code(), secondTxn.Number); err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	got, err := f.laundry.GetSubscription(f.ctx, f.code(), second.ID)
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if got.Status != core.SubscriptionCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	active, err := f.laundry.ListSubscriptions(f.ctx, f.code(), core.SubscriptionActive)
	if err != nil {
		t.Fatalf("ListSubscriptions failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active subscriptions, got %d", len(active))
	}
}

func TestLaundry_SubscribeValidation(t *testing.T) {
	f := newFixture(t, "0", "0")
	prod := f.product(t, "SOAP", "2.00", "1.00", 5)

	tests := []struct {
		name string
		req  core.SubscribeRequest
	}{
		{"zero months", core.SubscribeRequest{CompanyCode: f.code(), PlanID: prod.ID, Customer: &core.Customer{Name: "x"}}},
		{"no customer", core.SubscribeRequest{CompanyCode: f.code(), PlanID: prod.ID, Months: 1}},
		{"not a plan", core.SubscribeRequest{CompanyCode: f.code(), PlanID: prod.ID, Months: 1, Customer: &core.Customer{Name: "x"}}},
		{"unknown plan", core.SubscribeRequest{CompanyCode: f.code(), PlanID: "missing", Months: 1, Customer: &core.Customer{Name: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := f.laundry.Subscribe(f.ctx, tt.req); !core.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
