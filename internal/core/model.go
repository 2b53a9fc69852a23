package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModuleTag identifies the business module a transaction belongs to.
type ModuleTag string

const (
	ModuleMart     ModuleTag = "mart"
	ModuleLaundry  ModuleTag = "laundry"
	ModuleRental   ModuleTag = "rental"
	ModuleServices ModuleTag = "services"
)

// AllModules lists every module in display order.
var AllModules = []ModuleTag{ModuleMart, ModuleLaundry, ModuleRental, ModuleServices}

func (m ModuleTag) Valid() bool {
	switch m {
	case ModuleMart, ModuleLaundry, ModuleRental, ModuleServices:
		return true
	}
	return false
}

// numberPrefix is the document prefix used for human-readable transaction numbers.
func (m ModuleTag) numberPrefix() string {
	switch m {
	case ModuleLaundry:
		return "LD"
	case ModuleRental:
		return "RN"
	case ModuleServices:
		return "WO"
	default:
		return "PS"
	}
}

// Company is a tenant. Every other record is scoped to exactly one company.
type Company struct {
	ID               string          `json:"id"`
	CompanyCode      string          `json:"company_code"`
	Name             string          `json:"name"`
	OwnerName        string          `json:"owner_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	BaseCurrency     string          `json:"base_currency"`
	Modules          []ModuleTag     `json:"modules"`
	DrawingThreshold decimal.Decimal `json:"drawing_threshold"` // zero disables promotional drawing entries
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HasModule reports whether the company has the module enabled.
// A company with no modules configured has all of them.
func (c *Company) HasModule(m ModuleTag) bool {
	if len(c.Modules) == 0 {
		return true
	}
	for _, enabled := range c.Modules {
		if enabled == m {
			return true
		}
	}
	return false
}

// Customer is optional metadata attached to a transaction.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PaymentMethod is how the customer settled a transaction.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQR       PaymentMethod = "qr"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentQR:
		return true
	}
	return false
}

// Payment is optional payment metadata attached to a transaction.
type Payment struct {
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Tendered  decimal.Decimal `json:"tendered"`
	Change    decimal.Decimal `json:"change"`
}

// DrawingEntry is a promotional drawing (raffle) entry earned by a transaction.
type DrawingEntry struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	TransactionID string    `json:"transaction_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Tickets       int       `json:"tickets"`
	CreatedAt     time.Time `json:"created_at"`
}
