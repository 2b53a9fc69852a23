package app

import (
	"time"

	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

// CreateUserRequest is the input for adding a user to a company.
type CreateUserRequest struct {
	CompanyCode string
	Username    string
	Email       string
	Password    string
	Role        core.Role
}

// CreateCouponRequest is the input for issuing a coupon.
type CreateCouponRequest struct {
	CompanyCode string
	Code        string
	Amount      decimal.Decimal
	ExpiresAt   *time.Time
}

// CapitalMovementKind selects the wallet operation of a CapitalMovementRequest.
type CapitalMovementKind string

const (
	CapitalDeposit  CapitalMovementKind = "deposit"
	CapitalWithdraw CapitalMovementKind = "withdraw"
	CapitalExpense  CapitalMovementKind = "expense"
)

// CapitalMovementRequest moves capital in or out of a company's wallet.
type CapitalMovementRequest struct {
	CompanyCode string
	Kind        CapitalMovementKind
	Amount      decimal.Decimal
	Note        string // required for expenses
}
