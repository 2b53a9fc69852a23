package core_test

import (
	"errors"
	"testing"
	"time"

	"retail-suite/internal/core"
)

func newAsset(t *testing.T, f *fixture) *core.CatalogEntry {
	t.Helper()
	return f.entry(t, core.CatalogEntryInput{
		Kind:     core.KindAsset,
		SKU:      "GEN-5K",
		Name:     "Generator 5kVA",
		Rate:     dec("45"),
		RateUnit: core.RateDay,
	})
}

func TestRental_AgreementLifecycle(t *testing.T) {
	f := newFixture(t, "0", "0")
	asset := newAsset(t, f)
	start := time.Now().UTC().Add(-4 * 24 * time.Hour)

	txn, err := f.rentals.CreateAgreement(f.ctx, core.RentalRequest{
		CompanyCode: f.code(),
		AssetID:     asset.ID,
		Duration:    3,
		StartsAt:    start,
		Customer:    &core.Customer{Name: "Andi"},
	})
	if err != nil {
		t.Fatalf("CreateAgreement failed: %v", err)
	}
	assertMoney(t, "total", txn.TotalAmount, "135.00")
	assertMoney(t, "profit", txn.Profit, "128.25")
	if txn.Rental == nil || !txn.Rental.EndsAt.Equal(start.AddDate(0, 0, 3)) {
		t.Fatalf("unexpected rental terms: %+v", txn.Rental)
	}

	e, _ := f.catalog.GetEntry(f.ctx, f.code(), asset.ID)
	if e.Available {
		t.Fatalf("asset should be reserved")
	}
	_, err = f.rentals.CreateAgreement(f.ctx, core.RentalRequest{
		CompanyCode: f.code(), AssetID: asset.ID, Duration: 1, Customer: &core.Customer{Name: "Other"},
	})
	if !errors.Is(err, core.ErrAssetUnavailable) {
		t.Fatalf("double booking should fail with ErrAssetUnavailable, got %v", err)
	}

	// Pending agreements are not released by the sweep.
	if n, err := f.rentals.ReleaseEnded(f.ctx, time.Now().UTC()); err != nil || n != 0 {
		t.Fatalf("ReleaseEnded on pending = %d, %v", n, err)
	}

	if _, err := f.transactions.Start(f.ctx, f.code(), txn.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	n, err := f.rentals.ReleaseEnded(f.ctx, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("ReleaseEnded = %d, %v; want 1", n, err)
	}

	e, _ = f.catalog.GetEntry(f.ctx, f.code(), asset.ID)
	if !e.Available {
		t.Errorf("asset should be available after the term ended")
	}
	got, err := f.transactions.Get(f.ctx, f.code(), txn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != core.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	if n, _ := f.rentals.ReleaseEnded(f.ctx, time.Now().UTC()); n != 0 {
		t.Errorf("second sweep released %d agreements", n)
	}
}

func TestRental_CancelReleasesAsset(t *testing.T) {
	f := newFixture(t, "0", "0")
	asset := newAsset(t, f)

	txn, err := f.rentals.CreateAgreement(f.ctx, core.RentalRequest{
		CompanyCode: f.code(), AssetID: asset.ID, Duration: 2, Customer: &core.Customer{Name: "Andi"},
	})
	if err != nil {
		t.Fatalf("CreateAgreement failed: %v", err)
	}
	if _, err := f.transactions.Cancel(f.ctx, f.code(), txn.Number); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	e, _ := f.catalog.GetEntry(f.ctx, f.code(), asset.ID)
	if !e.Available {
		t.Errorf("cancelled agreement should release the asset")
	}
	assertMoney(t, "balance", f.balance(t), "0.00")
}

func TestRental_Quote(t *testing.T) {
	f := newFixture(t, "0", "0")
	asset := newAsset(t, f)

	q, err := f.rentals.Quote(f.ctx, core.RentalRequest{
		CompanyCode: f.code(), AssetID: asset.ID, Duration: 3, Customer: &core.Customer{Name: "Andi"},
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	assertMoney(t, "quoted total", q.Settlement.Total, "135.00")

	e, _ := f.catalog.GetEntry(f.ctx, f.code(), asset.ID)
	if !e.Available {
		t.Errorf("quote must not reserve the asset")
	}

	_, err = f.rentals.Quote(f.ctx, core.RentalRequest{CompanyCode: f.code(), AssetID: asset.ID, Duration: 0, Customer: &core.Customer{Name: "Andi"}})
	if !core.IsValidation(err) {
		t.Errorf("zero duration should be rejected, got %v", err)
	}
}
