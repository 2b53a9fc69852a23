package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the persisted record of one checkout or booking.
// Status progresses through the table in status.go. A cancelled or reversed
// transaction is deleted together with its dependent records.
type Transaction struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	Number         string          `json:"number"`
	Module         ModuleTag       `json:"module"`
	Status         Status          `json:"status"`
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Profit         decimal.Decimal `json:"profit"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Customer       *Customer       `json:"customer,omitempty"`
	Payment        *Payment        `json:"payment,omitempty"`
	Rental         *RentalTerms    `json:"rental,omitempty"`
	WorkOrder      *WorkOrderSplit `json:"work_order,omitempty"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// Settlement reconstructs the stored settlement figures.
func (t *Transaction) Settlement() Settlement {
	return Settlement{Subtotal: t.Subtotal, Discount: t.Discount, Total: t.TotalAmount, Profit: t.Profit}
}

func (t *Transaction) applySettlement(s Settlement) {
	t.Subtotal = s.Subtotal
	t.Discount = s.Discount
	t.TotalAmount = s.Total
	t.Profit = s.Profit
}

// RentalTerms records the agreement behind a rental transaction.
type RentalTerms struct {
	AssetID  string          `json:"asset_id"`
	Rate     decimal.Decimal `json:"rate"`
	RateUnit RateUnit        `json:"rate_unit"`
	Duration int             `json:"duration"`
	StartsAt time.Time       `json:"starts_at"`
	EndsAt   time.Time       `json:"ends_at"`
}

// WorkOrderSplit is the revenue split computed when a services work order starts.
type WorkOrderSplit struct {
	ServiceRevenue decimal.Decimal `json:"service_revenue"`
	MaterialCost   decimal.Decimal `json:"material_cost"`
	MartRevenue    decimal.Decimal `json:"mart_revenue"`
	MartCost       decimal.Decimal `json:"mart_cost"`
	NetProfit      decimal.Decimal `json:"net_profit"`
}

// TransactionFilter narrows transaction listings. Zero values mean "any";
// an empty CompanyID spans all companies (used by scheduled jobs).
type TransactionFilter struct {
	CompanyID string
	Module    ModuleTag
	Status    Status
	From      *time.Time
	To        *time.Time
	Limit     int
}
