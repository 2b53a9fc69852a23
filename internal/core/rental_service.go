package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RentalRequest books an equipment rental agreement.
type RentalRequest struct {
	CompanyCode string
	AssetID     string
	Duration    int       // number of RateUnit periods
	StartsAt    time.Time // zero means now
	CouponCode  string
	Customer    *Customer
	Payment     *Payment
	Notes       string
}

// RentalService books rental agreements and releases assets whose term has ended.
type RentalService interface {
	Quote(ctx context.Context, req RentalRequest) (*Quote, error)
	CreateAgreement(ctx context.Context, req RentalRequest) (*Transaction, error)
	// ReleaseEnded completes in-progress agreements whose term ended at or before now,
	// across all companies, returning the number completed.
	ReleaseEnded(ctx context.Context, now time.Time) (int, error)
}

type rentalService struct {
	store Store
}

func NewRentalService(store Store) RentalService {
	return &rentalService{store: store}
}

func (s *rentalService) build(ctx context.Context, r Repos, req RentalRequest, now time.Time) (booking, error) {
	if req.Duration <= 0 {
		return booking{}, invalid("duration", "duration must be positive, got %d", req.Duration)
	}
	if req.Customer == nil || req.Customer.Name == "" {
		return booking{}, invalid("customer.name", "customer name is required for a rental")
	}
	company, err := resolveCompany(ctx, r, req.CompanyCode)
	if err != nil {
		return booking{}, err
	}
	if err := requireModule(company, ModuleRental); err != nil {
		return booking{}, err
	}
	asset, err := r.Catalog().Get(ctx, company.ID, req.AssetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return booking{}, invalid("asset_id", "asset %s not found", req.AssetID)
		}
		return booking{}, fmt.Errorf("failed to load asset %s: %w", req.AssetID, err)
	}
	if asset.Kind != KindAsset || !asset.IsActive {
		return booking{}, invalid("asset_id", "%s is not a rentable asset", asset.Name)
	}
	if !asset.Available {
		return booking{}, fmt.Errorf("%w: %s", ErrAssetUnavailable, asset.Name)
	}

	startsAt := req.StartsAt
	if startsAt.IsZero() {
		startsAt = now
	}
	return booking{
		company:    company,
		module:     ModuleRental,
		status:     StatusPending,
		items:      []LineItem{RateLine(asset, SourceAsset, req.Duration)},
		couponCode: req.CouponCode,
		customer:   req.Customer,
		payment:    req.Payment,
		notes:      req.Notes,
		rental: &RentalTerms{
			AssetID:  asset.ID,
			Rate:     asset.Rate,
			RateUnit: asset.RateUnit,
			Duration: req.Duration,
			StartsAt: startsAt,
			EndsAt:   asset.RateUnit.Advance(startsAt, req.Duration),
		},
	}, nil
}

func (s *rentalService) Quote(ctx context.Context, req RentalRequest) (*Quote, error) {
	now := time.Now().UTC()
	b, err := s.build(ctx, s.store, req, now)
	if err != nil {
		return nil, err
	}
	settlement, err := quoteBooking(ctx, s.store, b, now)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: b.items, Settlement: settlement, CouponCode: req.CouponCode}, nil
}

func (s *rentalService) CreateAgreement(ctx context.Context, req RentalRequest) (*Transaction, error) {
	var result *Transaction
	err := s.store.InTx(ctx, func(r Repos) error {
		now := time.Now().UTC()
		b, err := s.build(ctx, r, req, now)
		if err != nil {
			return err
		}
		if err := r.Catalog().ReserveAsset(ctx, b.company.ID, b.rental.AssetID); err != nil {
			return fmt.Errorf("failed to reserve asset: %w", err)
		}
		t, err := commitBooking(ctx, r, b, now)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *rentalService) ReleaseEnded(ctx context.Context, now time.Time) (int, error) {
	active, err := s.store.Transactions().List(ctx, TransactionFilter{Module: ModuleRental, Status: StatusInProgress})
	if err != nil {
		return 0, fmt.Errorf("failed to list active rentals: %w", err)
	}

	released := 0
	for _, candidate := range active {
		if candidate.Rental == nil || candidate.Rental.EndsAt.After(now) {
			continue
		}
		err := s.store.InTx(ctx, func(r Repos) error {
			t, err := r.Transactions().Get(ctx, candidate.CompanyID, candidate.ID)
			if err != nil {
				return err
			}
			// Completed or cancelled by an operator since the listing.
			if t.Status != StatusInProgress {
				return nil
			}
			if err := completeTransaction(ctx, r, t, now); err != nil {
				return err
			}
			released++
			return nil
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return released, fmt.Errorf("failed to release rental %s: %w", candidate.Number, err)
		}
	}
	return released, nil
}
