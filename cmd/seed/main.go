// seed registers a demo company with a small catalog for every module.
// Run it against an empty database to get something to click through.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"retail-suite/internal/app"
	"retail-suite/internal/bootstrap"
	"retail-suite/internal/config"
	"retail-suite/internal/core"
	"retail-suite/internal/logging"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, Level: "warn", Stderr: true})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer rt.Close()

	if err := seed(ctx, rt.Service); err != nil {
		rt.Close()
		log.Fatalf("seed failed: %v", err)
	}
}

func seed(ctx context.Context, svc app.ApplicationService) error {
	d := decimal.RequireFromString

	log.Println("Registering company...")
	reg, err := svc.RegisterCompany(ctx, core.RegisterCompanyRequest{
		Name:             "Sunrise Store",
		OwnerName:        "Dewi Lestari",
		BaseCurrency:     "IDR",
		OpeningCapital:   d("5000000"),
		DrawingThreshold: d("100000"),
		OwnerUsername:    "owner",
		OwnerPassword:    "change-me-now",
	})
	if err != nil {
		return err
	}
	code := reg.Company.CompanyCode

	log.Println("Creating catalog...")
	entries := []core.CatalogEntryInput{
		{Kind: core.KindProduct, SKU: "RICE-5KG", Name: "Rice 5kg", UnitPrice: d("78000"), UnitCost: d("70000"), TracksStock: true, OpeningStock: 40},
		{Kind: core.KindProduct, SKU: "OIL-2L", Name: "Cooking Oil 2L", UnitPrice: d("36500"), UnitCost: d("32000"), TracksStock: true, OpeningStock: 30},
		{Kind: core.KindProduct, SKU: "TEA-25", Name: "Jasmine Tea 25s", UnitPrice: d("9500"), UnitCost: d("7000"), TracksStock: true, OpeningStock: 60},
		{Kind: core.KindMaterial, SKU: "FILTER-AC", Name: "AC Filter", UnitPrice: d("45000"), UnitCost: d("30000"), TracksStock: true, OpeningStock: 15},
		{Kind: core.KindService, SKU: "SVC-AC", Name: "AC Service", UnitPrice: d("150000"), UnitCost: d("50000")},
		{Kind: core.KindAsset, SKU: "GEN-5KVA", Name: "Generator 5kVA", Rate: d("250000"), RateUnit: core.RateDay, UnitCost: d("15000000")},
		{Kind: core.KindPlan, SKU: "LAUNDRY-20", Name: "Laundry 20kg/month", Rate: d("120000"), UnitCost: d("60000"), QuotaPerPeriod: d("20")},
	}
	for _, in := range entries {
		in.CompanyCode = code
		if _, err := svc.CreateCatalogEntry(ctx, in); err != nil {
			return err
		}
	}

	if _, err := svc.CreateCoupon(ctx, app.CreateCouponRequest{CompanyCode: code, Code: "WELCOME10K", Amount: d("10000")}); err != nil {
		return err
	}

	log.Printf("Seed complete. Company %s, login owner / change-me-now", code)
	return nil
}
