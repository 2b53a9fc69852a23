package repl_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"retail-suite/internal/adapters/repl"
	"retail-suite/internal/app"
	"retail-suite/internal/core"
	"retail-suite/internal/events"
	"retail-suite/internal/store/memory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestRegisterSession(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAppService(memory.New(), events.NewRecorder(), zap.NewNop(), "")
	reg, err := svc.RegisterCompany(ctx, core.RegisterCompanyRequest{
		Name:           "Sunrise Store",
		OwnerUsername:  "owner",
		OwnerPassword:  "correct-horse",
		OpeningCapital: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("RegisterCompany failed: %v", err)
	}
	code := reg.Company.CompanyCode
	entry, err := svc.CreateCatalogEntry(ctx, core.CatalogEntryInput{
		CompanyCode:  code,
		Kind:         core.KindProduct,
		SKU:          "TEA-01",
		Name:         "Jasmine Tea",
		UnitPrice:    decimal.RequireFromString("4.25"),
		UnitCost:     decimal.NewFromInt(2),
		TracksStock:  true,
		OpeningStock: 10,
	})
	if err != nil {
		t.Fatalf("CreateCatalogEntry failed: %v", err)
	}
	if _, err := svc.CreateCoupon(ctx, app.CreateCouponRequest{CompanyCode: code, Code: "HEMAT2", Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("CreateCoupon failed: %v", err)
	}

	script := strings.Join([]string{
		"add " + entry.ID + " 2",
		"add " + entry.ID,
		"coupon HEMAT2",
		"bogus",
		"pay 20",
		"/catalog list",
		"exit",
	}, "\n")
	var out bytes.Buffer
	if err := repl.Run(ctx, svc, strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	text := out.String()

	// 3 × 4.25 = 12.75, minus the 2.00 coupon.
	for _, want := range []string{"12.75", "10.75", "change 9.25", "unknown command: bogus", "TEA-01"} {
		if !strings.Contains(text, want) {
			t.Errorf("session output missing %q:\n%s", want, text)
		}
	}

	got, err := svc.GetCatalogEntry(ctx, code, entry.ID)
	if err != nil {
		t.Fatalf("GetCatalogEntry failed: %v", err)
	}
	if got.QuantityOnHand != 7 {
		t.Errorf("stock = %d, want 7", got.QuantityOnHand)
	}
}

func TestPayEmptyCart(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAppService(memory.New(), events.NewRecorder(), zap.NewNop(), "")
	if _, err := svc.RegisterCompany(ctx, core.RegisterCompanyRequest{
		Name: "Sunrise Store", OwnerUsername: "owner", OwnerPassword: "correct-horse",
	}); err != nil {
		t.Fatalf("RegisterCompany failed: %v", err)
	}
	var out bytes.Buffer
	if err := repl.Run(ctx, svc, strings.NewReader("pay\n"), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Error: cart is empty") {
		t.Errorf("output = %q", out.String())
	}
}
