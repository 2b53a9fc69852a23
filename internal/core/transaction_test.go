package core_test

import (
	"errors"
	"testing"

	"retail-suite/internal/core"
)

func TestReverse_RestoresEverything(t *testing.T) {
	f := newFixture(t, "200", "10")
	a := f.product(t, "A-1", "20.00", "8.00", 6)
	if _, err := f.coupons.CreateCoupon(f.ctx, f.code(), "TEN", dec("10"), nil); err != nil {
		t.Fatalf("CreateCoupon failed: %v", err)
	}

	txn, err := f.checkout.Checkout(f.ctx, core.CheckoutRequest{
		CompanyCode: f.code(),
		Items:       []core.ItemRequest{{EntryID: a.ID, Quantity: 2}},
		CouponCode:  "TEN",
	})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	assertMoney(t, "balance after sale", f.balance(t), "230.00")

	if _, err := f.transactions.Cancel(f.ctx, f.code(), txn.Number); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("cancelling a completed sale should fail with ErrInvalidTransition, got %v", err)
	}

	reversed, err := f.transactions.Reverse(f.ctx, f.code(), txn.Number)
	if err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	if reversed.Status != core.StatusCancelled {
		t.Errorf("reversed status = %s, want cancelled", reversed.Status)
	}

	if got := f.onHand(t, a.ID); got != 6 {
		t.Errorf("stock not restored: %d", got)
	}
	assertMoney(t, "balance after reversal", f.balance(t), "200.00")
	if _, err := f.coupons.Validate(f.ctx, f.code(), "TEN"); err != nil {
		t.Errorf("coupon should be redeemable again: %v", err)
	}
	drawings, _ := f.reports.DrawingEntries(f.ctx, f.code())
	if len(drawings) != 0 {
		t.Errorf("drawing entries not removed: %+v", drawings)
	}
	if _, err := f.transactions.Get(f.ctx, f.code(), txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("reversed transaction should be deleted, got %v", err)
	}

	if _, err := f.transactions.Reverse(f.ctx, f.code(), txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second reversal should find nothing, got %v", err)
	}
}

func TestWorkOrder_Lifecycle(t *testing.T) {
	f := newFixture(t, "0", "0")
	svc := f.entry(t, core.CatalogEntryInput{Kind: core.KindService, Name: "AC service", UnitPrice: dec("100")})
	mat := f.entry(t, core.CatalogEntryInput{Kind: core.KindMaterial, Name: "Freon", UnitCost: dec("10"), TracksStock: true, OpeningStock: 5})
	mart := f.product(t, "FLT", "15.00", "9.00", 4)

	req := core.BookServiceRequest{
		CompanyCode: f.code(),
		Services:    []core.ItemRequest{{EntryID: svc.ID, Quantity: 1}},
		Materials:   []core.ItemRequest{{EntryID: mat.ID, Quantity: 2}},
		MartItems:   []core.ItemRequest{{EntryID: mart.ID, Quantity: 1}},
		Customer:    &core.Customer{Name: "Sari"},
	}

	txn, err := f.workOrders.BookService(f.ctx, req)
	if err != nil {
		t.Fatalf("BookService failed: %v", err)
	}
	if txn.Status != core.StatusPending || txn.Module != core.ModuleServices {
		t.Fatalf("unexpected work order: %s %s", txn.Module, txn.Status)
	}
	assertMoney(t, "total", txn.TotalAmount, "115.00")
	if f.onHand(t, mat.ID) != 3 || f.onHand(t, mart.ID) != 3 {
		t.Fatalf("booking should consume materials and mart stock")
	}

	if _, err := f.transactions.Complete(f.ctx, f.code(), txn.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("pending → completed must be rejected, got %v", err)
	}

	started, err := f.transactions.Start(f.ctx, f.code(), txn.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.WorkOrder == nil {
		t.Fatalf("expected revenue split on start")
	}
	assertMoney(t, "service revenue", started.WorkOrder.ServiceRevenue, "100.00")
	assertMoney(t, "material cost", started.WorkOrder.MaterialCost, "20.00")
	assertMoney(t, "net profit", started.WorkOrder.NetProfit, "86.00")
	if started.StartedAt == nil {
		t.Errorf("StartedAt not set")
	}

	done, err := f.transactions.Complete(f.ctx, f.code(), txn.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != core.StatusCompleted || done.CompletedAt == nil {
		t.Errorf("unexpected completed record: %+v", done)
	}
	if _, err := f.transactions.Start(f.ctx, f.code(), txn.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("completed → in-progress must be rejected, got %v", err)
	}
}

func TestWorkOrder_CancelRestoresStock(t *testing.T) {
	f := newFixture(t, "0", "0")
	svc := f.entry(t, core.CatalogEntryInput{Kind: core.KindService, Name: "Tune-up", UnitPrice: dec("50")})
	mat := f.entry(t, core.CatalogEntryInput{Kind: core.KindMaterial, Name: "Oil", UnitCost: dec("4"), TracksStock: true, OpeningStock: 10})

	txn, err := f.workOrders.BookService(f.ctx, core.BookServiceRequest{
		CompanyCode: f.code(),
		Services:    []core.ItemRequest{{EntryID: svc.ID, Quantity: 1}},
		Materials:   []core.ItemRequest{{EntryID: mat.ID, Quantity: 3}},
		Customer:    &core.Customer{Name: "Joko"},
	})
	if err != nil {
		t.Fatalf("BookService failed: %v", err)
	}
	if _, err := f.transactions.Start(f.ctx, f.code(), txn.Number); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.transactions.Cancel(f.ctx, f.code(), txn.Number); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got := f.onHand(t, mat.ID); got != 10 {
		t.Errorf("materials not restored: %d", got)
	}
	assertMoney(t, "balance", f.balance(t), "0.00")
}

func TestWorkOrder_Validation(t *testing.T) {
	f := newFixture(t, "0", "0")
	svc := f.entry(t, core.CatalogEntryInput{Kind: core.KindService, Name: "Repair", UnitPrice: dec("10")})
	prod := f.product(t, "P", "1.00", "0.50", 1)

	tests := []struct {
		name string
		req  core.BookServiceRequest
	}{
		{"no services", core.BookServiceRequest{CompanyCode: f.code(), Customer: &core.Customer{Name: "x"}}},
		{"no customer", core.BookServiceRequest{CompanyCode: f.code(), Services: []core.ItemRequest{{EntryID: svc.ID, Quantity: 1}}}},
		{"product as service", core.BookServiceRequest{CompanyCode: f.code(), Customer: &core.Customer{Name: "x"},
			Services: []core.ItemRequest{{EntryID: prod.ID, Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.workOrders.BookService(f.ctx, tt.req); !core.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
