package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"retail-suite/internal/core"
	"retail-suite/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *postgres.Store {
	_ = godotenv.Load("../../../.env")

	// Integration tests run against a dedicated database; they truncate every table.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	store := postgres.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE number_sequences, subscriptions, wallet_entries, wallets, drawing_entries,
			coupons, transaction_items, transactions, catalog_entries, users, companies CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func registerCompany(t *testing.T, store core.Store, capital string) *core.Company {
	t.Helper()
	c, _, err := core.NewCompanyService(store).Register(context.Background(), core.RegisterCompanyRequest{
		Name:             "Integration Mart",
		OpeningCapital:   dec(capital),
		DrawingThreshold: dec("10"),
		OwnerUsername:    "owner",
		OwnerPassword:    "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return c
}

func TestPostgres_CheckoutAndReverse(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	company := registerCompany(t, store, "100")

	catalog := core.NewCatalogService(store)
	checkout := core.NewCheckoutService(store)
	transactions := core.NewTransactionService(store)
	coupons := core.NewCouponService(store)
	capital := core.NewCapitalService(store)

	a, err := catalog.CreateEntry(ctx, core.CatalogEntryInput{
		CompanyCode: company.CompanyCode, Kind: core.KindProduct, SKU: "A", Name: "Apple",
		UnitPrice: dec("24.99"), UnitCost: dec("12"), TracksStock: true, OpeningStock: 10,
	})
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if _, err := coupons.CreateCoupon(ctx, company.CompanyCode, "SAVE5", dec("5"), nil); err != nil {
		t.Fatalf("CreateCoupon failed: %v", err)
	}

	req := core.CheckoutRequest{
		CompanyCode: company.CompanyCode,
		Items:       []core.ItemRequest{{EntryID: a.ID, Quantity: 2}},
		CouponCode:  "save5",
		Customer:    &core.Customer{Name: "Budi"},
		Payment:     &core.Payment{Method: core.PaymentCard, Reference: "AUTH-1"},
	}
	txn, err := checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if want := fmt.Sprintf("PS-%d-00001", time.Now().UTC().Year()); txn.Number != want {
		t.Errorf("number = %s, want %s", txn.Number, want)
	}

	loaded, err := transactions.Get(ctx, company.CompanyCode, txn.Number)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Quantity != 2 || !loaded.TotalAmount.Equal(dec("44.98")) {
		t.Errorf("unexpected stored transaction: %+v", loaded)
	}
	if loaded.Customer == nil || loaded.Customer.Name != "Budi" || loaded.Payment == nil || loaded.Payment.Reference != "AUTH-1" {
		t.Errorf("customer/payment not persisted: %+v %+v", loaded.Customer, loaded.Payment)
	}

	if _, err := checkout.Checkout(ctx, req); !errors.Is(err, core.ErrCouponInvalid) {
		t.Fatalf("second use of coupon should fail, got %v", err)
	}

	if _, err := transactions.Reverse(ctx, company.CompanyCode, txn.ID); err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	e, err := catalog.GetEntry(ctx, company.CompanyCode, a.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if e.QuantityOnHand != 10 {
		t.Errorf("stock not restored: %d", e.QuantityOnHand)
	}
	w, err := capital.Balance(ctx, company.CompanyCode)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if !w.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100", w.Balance)
	}
	if _, err := coupons.Validate(ctx, company.CompanyCode, "SAVE5"); err != nil {
		t.Errorf("coupon should be redeemable after reversal: %v", err)
	}
}

func TestPostgres_ConcurrentStockAndCapital(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	company := registerCompany(t, store, "50")

	catalog := core.NewCatalogService(store)
	checkout := core.NewCheckoutService(store)
	capital := core.NewCapitalService(store)

	a, err := catalog.CreateEntry(ctx, core.CatalogEntryInput{
		CompanyCode: company.CompanyCode, Kind: core.KindProduct, Name: "Limited",
		UnitPrice: dec("1"), UnitCost: dec("0.5"), TracksStock: true, OpeningStock: 5,
	})
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}

	var sold, withdrawn atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := checkout.Checkout(ctx, core.CheckoutRequest{
				CompanyCode: company.CompanyCode,
				Items:       []core.ItemRequest{{EntryID: a.ID, Quantity: 1}},
			})
			if err == nil {
				sold.Add(1)
			} else if !errors.Is(err, core.ErrInsufficientStock) {
				t.Errorf("unexpected checkout error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := capital.Withdraw(ctx, company.CompanyCode, dec("10"), "")
			if err == nil {
				withdrawn.Add(1)
			} else if !errors.Is(err, core.ErrInsufficientBalance) {
				t.Errorf("unexpected withdraw error: %v", err)
			}
		}()
	}
	wg.Wait()

	if sold.Load() != 5 {
		t.Errorf("sold %d, want 5", sold.Load())
	}
	e, _ := catalog.GetEntry(ctx, company.CompanyCode, a.ID)
	if e.QuantityOnHand != 0 {
		t.Errorf("on hand = %d, want 0", e.QuantityOnHand)
	}
	w, err := capital.Balance(ctx, company.CompanyCode)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if w.Balance.IsNegative() {
		t.Fatalf("balance went negative: %s", w.Balance)
	}
	want := dec("55").Sub(decimal.NewFromInt(int64(withdrawn.Load()) * 10))
	if !w.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", w.Balance, want)
	}
}

func TestPostgres_SequencesAreGapless(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	company := registerCompany(t, store, "0")

	var wg sync.WaitGroup
	seen := make(chan int64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Sequences().Next(ctx, company.ID, "PS", 2026)
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	got := make(map[int64]bool)
	for n := range seen {
		got[n] = true
	}
	for i := int64(1); i <= 20; i++ {
		if !got[i] {
			t.Errorf("sequence number %d missing", i)
		}
	}
}

func TestPostgres_SubscriptionQuota(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	company := registerCompany(t, store, "0")

	plan, err := core.NewCatalogService(store).CreateEntry(ctx, core.CatalogEntryInput{
		CompanyCode: company.CompanyCode, Kind: core.KindPlan, Name: "Monthly 10kg",
		Rate: dec("20"), QuotaPerPeriod: dec("10"),
	})
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	laundry := core.NewLaundryService(store)
	sub, _, err := laundry.Subscribe(ctx, core.SubscribeRequest{
		CompanyCode: company.CompanyCode, PlanID: plan.ID, Months: 1, Customer: &core.Customer{Name: "Rina"},
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := laundry.RecordUsage(ctx, company.CompanyCode, sub.ID, dec("7.5")); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if _, err := laundry.RecordUsage(ctx, company.CompanyCode, sub.ID, dec("3")); !errors.Is(err, core.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	got, err := laundry.GetSubscription(ctx, company.CompanyCode, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if !got.UsedKg.Equal(dec("7.5")) {
		t.Errorf("used = %s, want 7.5", got.UsedKg)
	}
}
