package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the lifecycle of a laundry subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a prepaid laundry plan with a weight quota for its whole term.
type Subscription struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	PlanID        string             `json:"plan_id"`
	TransactionID string             `json:"transaction_id"`
	Customer      Customer           `json:"customer"`
	Months        int                `json:"months"`
	QuotaKg       decimal.Decimal    `json:"quota_kg"`
	UsedKg        decimal.Decimal    `json:"used_kg"`
	Status        SubscriptionStatus `json:"status"`
	StartsAt      time.Time          `json:"starts_at"`
	EndsAt        time.Time          `json:"ends_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// RemainingKg is QuotaKg − UsedKg.
func (s *Subscription) RemainingKg() decimal.Decimal {
	return s.QuotaKg.Sub(s.UsedKg)
}
