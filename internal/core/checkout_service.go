package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest is a mart point-of-sale checkout.
type CheckoutRequest struct {
	CompanyCode string
	Items       []ItemRequest
	CouponCode  string
	Customer    *Customer
	Payment     *Payment
	Notes       string
}

// Quote is the settlement a request would produce, with the lines priced from the catalog.
type Quote struct {
	Items      []LineItem `json:"items"`
	Settlement Settlement `json:"settlement"`
	CouponCode string     `json:"coupon_code,omitempty"`
}

// CheckoutService settles mart sales at the point of sale.
type CheckoutService interface {
	// Quote prices a cart and validates its coupon without writing anything.
	Quote(ctx context.Context, req CheckoutRequest) (*Quote, error)
	// Checkout settles a cart as one unit of work and returns the completed transaction.
	Checkout(ctx context.Context, req CheckoutRequest) (*Transaction, error)
}

type checkoutService struct {
	store Store
}

func NewCheckoutService(store Store) CheckoutService {
	return &checkoutService{store: store}
}

func (s *checkoutService) build(ctx context.Context, r Repos, req CheckoutRequest) (booking, error) {
	company, err := resolveCompany(ctx, r, req.CompanyCode)
	if err != nil {
		return booking{}, err
	}
	if err := requireModule(company, ModuleMart); err != nil {
		return booking{}, err
	}
	if len(req.Items) == 0 {
		return booking{}, invalid("items", "cart is empty")
	}
	items, err := resolveItems(ctx, r, company.ID, req.Items, KindProduct)
	if err != nil {
		return booking{}, err
	}
	return booking{
		company:    company,
		module:     ModuleMart,
		status:     StatusCompleted,
		items:      items,
		couponCode: req.CouponCode,
		customer:   req.Customer,
		payment:    req.Payment,
		notes:      req.Notes,
	}, nil
}

func (s *checkoutService) Quote(ctx context.Context, req CheckoutRequest) (*Quote, error) {
	b, err := s.build(ctx, s.store, req)
	if err != nil {
		return nil, err
	}
	settlement, err := quoteBooking(ctx, s.store, b, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &Quote{Items: b.items, Settlement: settlement, CouponCode: req.CouponCode}, nil
}

func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest) (*Transaction, error) {
	var result *Transaction
	err := s.store.InTx(ctx, func(r Repos) error {
		b, err := s.build(ctx, r, req)
		if err != nil {
			return err
		}
		t, err := commitBooking(ctx, r, b, time.Now().UTC())
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

// QuoteItems settles already-priced lines. Used by adapters that build carts client-side.
func QuoteItems(items []LineItem, discount decimal.Decimal) (Settlement, error) {
	if err := ValidateItems(items); err != nil {
		return Settlement{}, err
	}
	return Settle(items, discount), nil
}
