package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-suite/internal/app"
	"retail-suite/internal/core"
	"retail-suite/internal/events"
	"retail-suite/internal/store/memory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T, defaultCompany string) (app.ApplicationService, *events.Recorder) {
	t.Helper()
	rec := events.NewRecorder()
	return app.NewAppService(memory.New(), rec, zap.NewNop(), defaultCompany), rec
}

func register(t *testing.T, svc app.ApplicationService, name string) *app.CompanyResult {
	t.Helper()
	res, err := svc.RegisterCompany(context.Background(), core.RegisterCompanyRequest{
		Name:           name,
		OwnerName:      "Dewi",
		BaseCurrency:   "IDR",
		OpeningCapital: dec("500"),
		OwnerUsername:  "owner",
		OwnerPassword:  "correct-horse",
	})
	if err != nil {
		t.Fatalf("RegisterCompany(%s) failed: %v", name, err)
	}
	return res
}

func eventTypes(rec *events.Recorder) []events.Type {
	var out []events.Type
	for _, e := range rec.Events() {
		out = append(out, e.Type)
	}
	return out
}

func TestCheckoutAndReversePublishEvents(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t, "")
	company := register(t, svc, "Sunrise Store").Company
	code := company.CompanyCode

	entry, err := svc.CreateCatalogEntry(ctx, core.CatalogEntryInput{
		CompanyCode:  code,
		Kind:         core.KindProduct,
		SKU:          "TEA-01",
		Name:         "Jasmine Tea",
		UnitPrice:    dec("12.495"),
		UnitCost:     dec("7"),
		TracksStock:  true,
		OpeningStock: 10,
	})
	if err != nil {
		t.Fatalf("CreateCatalogEntry failed: %v", err)
	}

	quote, err := svc.QuoteCheckout(ctx, core.CheckoutRequest{
		CompanyCode: code,
		Items:       []core.ItemRequest{{EntryID: entry.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("QuoteCheckout failed: %v", err)
	}
	if got := quote.Rounded.Total.StringFixed(2); got != "24.99" {
		t.Errorf("rounded quote total = %s, want 24.99", got)
	}

	res, err := svc.Checkout(ctx, core.CheckoutRequest{
		CompanyCode: code,
		Items:       []core.ItemRequest{{EntryID: entry.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if res.Transaction.Status != core.StatusCompleted {
		t.Errorf("status = %s, want completed", res.Transaction.Status)
	}
	if !res.Transaction.TotalAmount.Equal(dec("24.99")) {
		t.Errorf("stored total = %s, want full precision 24.99", res.Transaction.TotalAmount)
	}

	got, err := svc.GetTransaction(ctx, code, res.Transaction.Number)
	if err != nil {
		t.Fatalf("GetTransaction by number failed: %v", err)
	}
	if got.Transaction.ID != res.Transaction.ID {
		t.Errorf("GetTransaction returned %s, want %s", got.Transaction.ID, res.Transaction.ID)
	}

	if _, err := svc.ReverseTransaction(ctx, code, res.Transaction.ID); err != nil {
		t.Fatalf("ReverseTransaction failed: %v", err)
	}
	after, err := svc.GetCatalogEntry(ctx, code, entry.ID)
	if err != nil {
		t.Fatalf("GetCatalogEntry failed: %v", err)
	}
	if after.QuantityOnHand != 10 {
		t.Errorf("stock after reversal = %d, want 10", after.QuantityOnHand)
	}

	want := []events.Type{events.CompanyRegistered, events.TransactionSettled, events.TransactionReversed}
	types := eventTypes(rec)
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
	settled := rec.Events()[1]
	if settled.CompanyCode != code || settled.Subject != res.Transaction.Number {
		t.Errorf("settled event = %+v, want company %s subject %s", settled, code, res.Transaction.Number)
	}
}

func TestFailedCheckoutPublishesNothing(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t, "")
	code := register(t, svc, "Sunrise Store").Company.CompanyCode
	before := len(rec.Events())

	_, err := svc.Checkout(ctx, core.CheckoutRequest{
		CompanyCode: code,
		Items:       []core.ItemRequest{{EntryID: "missing", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected checkout of unknown entry to fail")
	}
	if n := len(rec.Events()); n != before {
		t.Errorf("events after failed checkout = %d, want %d", n, before)
	}
}

func TestLoadDefaultCompany(t *testing.T) {
	ctx := context.Background()

	svc, _ := newService(t, "")
	if _, err := svc.LoadDefaultCompany(ctx); !core.IsNotFound(err) {
		t.Errorf("LoadDefaultCompany on empty store = %v, want not found", err)
	}
	first := register(t, svc, "Sunrise Store").Company
	c, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultCompany failed: %v", err)
	}
	if c.CompanyCode != first.CompanyCode {
		t.Errorf("default company = %s, want %s", c.CompanyCode, first.CompanyCode)
	}
	register(t, svc, "Harbor Laundry")
	if _, err := svc.LoadDefaultCompany(ctx); err == nil {
		t.Error("expected ambiguity error with two companies and no configured code")
	}
}

func TestLoadDefaultCompanyConfigured(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed := app.NewAppService(store, events.NewRecorder(), zap.NewNop(), "")
	register(t, seed, "Sunrise Store")
	second := register(t, seed, "Harbor Laundry").Company

	svc := app.NewAppService(store, events.NewRecorder(), zap.NewNop(), second.CompanyCode)
	c, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultCompany failed: %v", err)
	}
	if c.ID != second.ID {
		t.Errorf("default company = %s, want %s", c.CompanyCode, second.CompanyCode)
	}
}

func TestAuthenticateAndUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "")
	res := register(t, svc, "Sunrise Store")
	code := res.Company.CompanyCode

	if res.Owner == nil || res.Owner.Role != string(core.RoleOwner) {
		t.Fatalf("owner = %+v, want owner role", res.Owner)
	}

	session, err := svc.AuthenticateUser(ctx, code, "owner", "correct-horse")
	if err != nil {
		t.Fatalf("AuthenticateUser failed: %v", err)
	}
	if session.CompanyCode != code || session.CompanyID != res.Company.ID {
		t.Errorf("session = %+v, want company %s", session, code)
	}
	if _, err := svc.AuthenticateUser(ctx, code, "owner", "wrong"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}

	cashier, err := svc.CreateUser(ctx, app.CreateUserRequest{
		CompanyCode: code,
		Username:    "kasir1",
		Password:    "s3cret-pass",
		Role:        core.RoleCashier,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	profile, err := svc.GetUser(ctx, cashier.UserID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if profile.CompanyCode != code || profile.Role != string(core.RoleCashier) {
		t.Errorf("profile = %+v", profile)
	}
	users, err := svc.ListUsers(ctx, code)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("users = %d, want 2", len(users))
	}
}

func TestMoveCapital(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t, "")
	code := register(t, svc, "Sunrise Store").Company.CompanyCode

	tests := []struct {
		name    string
		req     app.CapitalMovementRequest
		balance string
		wantErr func(error) bool
	}{
		{"deposit", app.CapitalMovementRequest{CompanyCode: code, Kind: app.CapitalDeposit, Amount: dec("100")}, "600.00", nil},
		{"withdraw", app.CapitalMovementRequest{CompanyCode: code, Kind: app.CapitalWithdraw, Amount: dec("50")}, "550.00", nil},
		{"expense", app.CapitalMovementRequest{CompanyCode: code, Kind: app.CapitalExpense, Amount: dec("25.5"), Note: "electricity"}, "524.50", nil},
		{"overdraw", app.CapitalMovementRequest{CompanyCode: code, Kind: app.CapitalWithdraw, Amount: dec("1000")}, "", func(err error) bool {
			return errors.Is(err, core.ErrInsufficientBalance)
		}},
		{"unknown kind", app.CapitalMovementRequest{CompanyCode: code, Kind: "gift", Amount: dec("1")}, "", core.IsValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, err := svc.MoveCapital(ctx, tc.req)
			if tc.wantErr != nil {
				if !tc.wantErr(err) {
					t.Errorf("MoveCapital = %v, want matching error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MoveCapital failed: %v", err)
			}
			if got := core.FormatMoney(w.Balance); got != tc.balance {
				t.Errorf("balance = %s, want %s", got, tc.balance)
			}
		})
	}

	moved := 0
	for _, e := range rec.Events() {
		if e.Type == events.CapitalMoved {
			moved++
		}
	}
	if moved != 3 {
		t.Errorf("capital.moved events = %d, want 3", moved)
	}

	stmt, err := svc.GetCapital(ctx, code, 0)
	if err != nil {
		t.Fatalf("GetCapital failed: %v", err)
	}
	if got := core.FormatMoney(stmt.Balance); got != "524.50" {
		t.Errorf("statement balance = %s, want 524.50", got)
	}
}

func TestHousekeepingOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "")
	register(t, svc, "Sunrise Store")
	now := time.Now()

	for name, run := range map[string]func(context.Context, time.Time) (int, error){
		"rentals":       svc.ReleaseEndedRentals,
		"subscriptions": svc.ExpireSubscriptions,
		"coupons":       svc.ExpireCoupons,
	} {
		n, err := run(ctx, now)
		if err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if n != 0 {
			t.Errorf("%s: touched %d records, want 0", name, n)
		}
	}
}
