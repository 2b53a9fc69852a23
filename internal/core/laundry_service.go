package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscribeRequest buys a laundry plan for a number of months.
type SubscribeRequest struct {
	CompanyCode string
	PlanID      string
	Months      int
	StartsAt    time.Time // zero means now
	CouponCode  string
	Customer    *Customer
	Payment     *Payment
}

// LaundryService sells laundry subscriptions and tracks quota usage.
type LaundryService interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscription, *Transaction, error)
	GetSubscription(ctx context.Context, companyCode, id string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, companyCode string, status SubscriptionStatus) ([]Subscription, error)
	// RecordUsage draws kg from an active subscription's quota.
	RecordUsage(ctx context.Context, companyCode, subscriptionID string, kg decimal.Decimal) (*Subscription, error)
	// ExpireEnded marks subscriptions whose term ended at or before now as expired.
	ExpireEnded(ctx context.Context, now time.Time) (int, error)
}

type laundryService struct {
	store Store
}

func NewLaundryService(store Store) LaundryService {
	return &laundryService{store: store}
}

func (s *laundryService) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscription, *Transaction, error) {
	if req.Months <= 0 {
		return nil, nil, invalid("months", "months must be positive, got %d", req.Months)
	}
	if req.Customer == nil || req.Customer.Name == "" {
		return nil, nil, invalid("customer.name", "customer name is required for a subscription")
	}

	var sub *Subscription
	var txn *Transaction
	err := s.store.InTx(ctx, func(r Repos) error {
		now := time.Now().UTC()
		company, err := resolveCompany(ctx, r, req.CompanyCode)
		if err != nil {
			return err
		}
		if err := requireModule(company, ModuleLaundry); err != nil {
			return err
		}
		plan, err := r.Catalog().Get(ctx, company.ID, req.PlanID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return invalid("plan_id", "plan %s not found", req.PlanID)
			}
			return fmt.Errorf("failed to load plan %s: %w", req.PlanID, err)
		}
		if plan.Kind != KindPlan || !plan.IsActive {
			return invalid("plan_id", "%s is not an active laundry plan", plan.Name)
		}

		startsAt := req.StartsAt
		if startsAt.IsZero() {
			startsAt = now
		}
		line := plan.Line(req.Months)
		line.UnitPrice = plan.Rate
		line.ConsumesStock = false

		sub = &Subscription{
			ID:        uuid.NewString(),
			CompanyID: company.ID,
			PlanID:    plan.ID,
			Customer:  *req.Customer,
			Months:    req.Months,
			QuotaKg:   plan.QuotaPerPeriod.Mul(decimal.NewFromInt(int64(req.Months))),
			UsedKg:    decimal.Zero,
			Status:    SubscriptionActive,
			StartsAt:  startsAt,
			EndsAt:    startsAt.AddDate(0, req.Months, 0),
			CreatedAt: now,
			UpdatedAt: now,
		}

		txn, err = commitBooking(ctx, r, booking{
			company:        company,
			module:         ModuleLaundry,
			status:         StatusCompleted,
			items:          []LineItem{line},
			couponCode:     req.CouponCode,
			customer:       req.Customer,
			payment:        req.Payment,
			subscriptionID: sub.ID,
		}, now)
		if err != nil {
			return err
		}

		sub.TransactionID = txn.ID
		if err := r.Subscriptions().Create(ctx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sub, txn, nil
}

func (s *laundryService) GetSubscription(ctx context.Context, companyCode, id string) (*Subscription, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.Subscriptions().Get(ctx, company.ID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("subscription %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load subscription %s: %w", id, err)
	}
	return sub, nil
}

func (s *laundryService) ListSubscriptions(ctx context.Context, companyCode string, status SubscriptionStatus) ([]Subscription, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.Subscriptions().List(ctx, company.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *laundryService) RecordUsage(ctx context.Context, companyCode, subscriptionID string, kg decimal.Decimal) (*Subscription, error) {
	if !kg.IsPositive() {
		return nil, invalid("kg", "weight must be positive")
	}
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	current, err := s.GetSubscription(ctx, companyCode, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !time.Now().UTC().Before(current.EndsAt) {
		return nil, fmt.Errorf("subscription %s ended on %s: %w", subscriptionID, current.EndsAt.Format("2006-01-02"), ErrSubscriptionClosed)
	}
	sub, err := s.store.Subscriptions().AddUsage(ctx, company.ID, subscriptionID, kg)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("subscription %s not found: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to record %s kg on subscription %s: %w", kg.String(), subscriptionID, err)
	}
	return sub, nil
}

func (s *laundryService) ExpireEnded(ctx context.Context, now time.Time) (int, error) {
	n, err := s.store.Subscriptions().ExpireEnded(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return n, nil
}
