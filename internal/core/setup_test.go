package core_test

import (
	"context"
	"testing"

	"retail-suite/internal/core"
	"retail-suite/internal/store/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func boolPtr(b bool) *bool { return &b }

// fixture is one registered company on a fresh in-memory store.
type fixture struct {
	ctx          context.Context
	store        *memory.Store
	company      *core.Company
	companies    core.CompanyService
	catalog      core.CatalogService
	checkout     core.CheckoutService
	transactions core.TransactionService
	workOrders   core.WorkOrderService
	rentals      core.RentalService
	laundry      core.LaundryService
	capital      core.CapitalService
	coupons      core.CouponService
	reports      core.ReportingService
	users        core.UserService
}

func newFixture(t *testing.T, openingCapital string, threshold string) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		ctx:          context.Background(),
		store:        store,
		companies:    core.NewCompanyService(store),
		catalog:      core.NewCatalogService(store),
		checkout:     core.NewCheckoutService(store),
		transactions: core.NewTransactionService(store),
		workOrders:   core.NewWorkOrderService(store),
		rentals:      core.NewRentalService(store),
		laundry:      core.NewLaundryService(store),
		capital:      core.NewCapitalService(store),
		coupons:      core.NewCouponService(store),
		reports:      core.NewReportingService(store),
		users:        core.NewUserService(store),
	}
	company, _, err := f.companies.Register(f.ctx, core.RegisterCompanyRequest{
		Name:             "Sunrise Store",
		OwnerName:        "Dewi",
		BaseCurrency:     "IDR",
		OpeningCapital:   dec(openingCapital),
		DrawingThreshold: dec(threshold),
		OwnerUsername:    "owner",
		OwnerPassword:    "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	f.company = company
	return f
}

func (f *fixture) code() string { return f.company.CompanyCode }

func (f *fixture) product(t *testing.T, sku, price, cost string, stock int) *core.CatalogEntry {
	t.Helper()
	e, err := f.catalog.CreateEntry(f.ctx, core.CatalogEntryInput{
		CompanyCode:  f.code(),
		Kind:         core.KindProduct,
		SKU:          sku,
		Name:         "Product " + sku,
		UnitPrice:    dec(price),
		UnitCost:     dec(cost),
		TracksStock:  true,
		OpeningStock: stock,
	})
	if err != nil {
		t.Fatalf("CreateEntry(%s) failed: %v", sku, err)
	}
	return e
}

func (f *fixture) entry(t *testing.T, in core.CatalogEntryInput) *core.CatalogEntry {
	t.Helper()
	in.CompanyCode = f.code()
	e, err := f.catalog.CreateEntry(f.ctx, in)
	if err != nil {
		t.Fatalf("CreateEntry(%s) failed: %v", in.Name, err)
	}
	return e
}

func (f *fixture) onHand(t *testing.T, id string) int {
	t.Helper()
	e, err := f.catalog.GetEntry(f.ctx, f.code(), id)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	return e.QuantityOnHand
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	w, err := f.capital.Balance(f.ctx, f.code())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return w.Balance
}

func assertMoney(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if core.FormatMoney(got) != want {
		t.Errorf("%s: got %s, want %s", what, core.FormatMoney(got), want)
	}
}
