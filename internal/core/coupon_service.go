package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponService issues and validates single-use flat-discount coupons.
type CouponService interface {
	CreateCoupon(ctx context.Context, companyCode, code string, amount decimal.Decimal, expiresAt *time.Time) (*Coupon, error)
	ListCoupons(ctx context.Context, companyCode string) ([]Coupon, error)
	DeleteCoupon(ctx context.Context, companyCode, id string) error
	// Validate returns the coupon if it can be redeemed now. It never consumes it.
	Validate(ctx context.Context, companyCode, code string) (*Coupon, error)
	// ExpireDue marks unused coupons past their expiry as expired.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type couponService struct {
	store Store
}

func NewCouponService(store Store) CouponService {
	return &couponService{store: store}
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *couponService) CreateCoupon(ctx context.Context, companyCode, code string, amount decimal.Decimal, expiresAt *time.Time) (*Coupon, error) {
	code = normalizeCouponCode(code)
	if code == "" {
		return nil, invalid("code", "coupon code is required")
	}
	if !amount.IsPositive() {
		return nil, invalid("amount", "coupon amount must be positive")
	}
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	c := &Coupon{
		ID:        uuid.NewString(),
		CompanyID: company.ID,
		Code:      code,
		Amount:    amount,
		Status:    CouponUnused,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Coupons().Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("coupon %s: %w", code, err)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return c, nil
}

func (s *couponService) ListCoupons(ctx context.Context, companyCode string) ([]Coupon, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	coupons, err := s.store.Coupons().List(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *couponService) DeleteCoupon(ctx context.Context, companyCode, id string) error {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return err
	}
	if err := s.store.Coupons().Delete(ctx, company.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("coupon %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete coupon %s: %w", id, err)
	}
	return nil
}

func (s *couponService) Validate(ctx context.Context, companyCode, code string) (*Coupon, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	return lookupCoupon(ctx, s.store, company.ID, normalizeCouponCode(code), time.Now().UTC())
}

func (s *couponService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	n, err := s.store.Coupons().ExpireBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire coupons: %w", err)
	}
	return n, nil
}
