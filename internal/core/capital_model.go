package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a company's operating capital. Its balance never goes negative:
// outgoing entries larger than the balance are rejected with ErrInsufficientBalance.
type Wallet struct {
	CompanyID string          `json:"company_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Direction of a wallet movement.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// WalletEntry is one movement of capital. BalanceAfter is filled in by the repository.
type WalletEntry struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	Direction    Direction       `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	RefID        string          `json:"ref_id,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Signed returns Amount with the sign of the direction.
func (e *WalletEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionOut {
		return e.Amount.Neg()
	}
	return e.Amount
}

const (
	ReasonOpening  = "opening capital"
	ReasonDeposit  = "deposit"
	ReasonWithdraw = "withdrawal"
	ReasonExpense  = "expense"
	ReasonRestock  = "restock"
	ReasonSale     = "sale"
	ReasonReversal = "reversal"
)

// CouponStatus is the lifecycle of a coupon.
type CouponStatus string

const (
	CouponUnused  CouponStatus = "unused"
	CouponUsed    CouponStatus = "used"
	CouponExpired CouponStatus = "expired"
)

// Coupon is a single-use flat discount.
type Coupon struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
	Status    CouponStatus    `json:"status"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	UsedBy    string          `json:"used_by,omitempty"` // transaction id
	UsedAt    *time.Time      `json:"used_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ExpiredAt reports whether the coupon is past its expiry at t.
func (c *Coupon) ExpiredAt(t time.Time) bool {
	return c.ExpiresAt != nil && !t.Before(*c.ExpiresAt)
}
