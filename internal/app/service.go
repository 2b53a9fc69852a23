package app

import (
	"context"
	"time"

	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ── Companies & users ───────────────────────────────────────────────────

	// RegisterCompany creates a tenant, its capital wallet and its owner account.
	RegisterCompany(ctx context.Context, req core.RegisterCompanyRequest) (*CompanyResult, error)

	// GetCompany returns a company by its code.
	GetCompany(ctx context.Context, companyCode string) (*core.Company, error)

	// UpdateCompany changes a company's profile, modules or drawing threshold.
	UpdateCompany(ctx context.Context, req core.UpdateCompanyRequest) (*core.Company, error)

	// LoadDefaultCompany loads the active company. Uses the configured default
	// company code if set; otherwise expects exactly one company in the store.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, companyCode, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID string) (*UserResult, error)

	// CreateUser adds a cashier or owner account to a company.
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error)

	// ListUsers returns every user of a company.
	ListUsers(ctx context.Context, companyCode string) ([]UserResult, error)

	// ── Catalog ─────────────────────────────────────────────────────────────

	CreateCatalogEntry(ctx context.Context, in core.CatalogEntryInput) (*core.CatalogEntry, error)
	GetCatalogEntry(ctx context.Context, companyCode, id string) (*core.CatalogEntry, error)
	ListCatalog(ctx context.Context, companyCode string, filter core.CatalogFilter) (*CatalogListResult, error)
	UpdateCatalogEntry(ctx context.Context, id string, in core.CatalogEntryInput) (*core.CatalogEntry, error)
	DeleteCatalogEntry(ctx context.Context, companyCode, id string) error

	// Restock buys stock with company capital.
	Restock(ctx context.Context, req core.RestockRequest) (*RestockResult, error)

	// ── Coupons ─────────────────────────────────────────────────────────────

	CreateCoupon(ctx context.Context, req CreateCouponRequest) (*core.Coupon, error)
	ListCoupons(ctx context.Context, companyCode string) ([]core.Coupon, error)
	DeleteCoupon(ctx context.Context, companyCode, id string) error

	// ValidateCoupon checks that a coupon can be redeemed now without consuming it.
	ValidateCoupon(ctx context.Context, companyCode, code string) (*core.Coupon, error)

	// ── Selling ─────────────────────────────────────────────────────────────

	// QuoteCheckout prices a mart cart without writing anything.
	QuoteCheckout(ctx context.Context, req core.CheckoutRequest) (*QuoteResult, error)

	// Checkout settles a mart cart and returns the completed transaction.
	Checkout(ctx context.Context, req core.CheckoutRequest) (*TransactionResult, error)

	// QuoteRental prices a rental agreement without reserving the asset.
	QuoteRental(ctx context.Context, req core.RentalRequest) (*QuoteResult, error)

	// CreateRental books a rental agreement and reserves the asset.
	CreateRental(ctx context.Context, req core.RentalRequest) (*TransactionResult, error)

	// Subscribe sells a laundry plan.
	Subscribe(ctx context.Context, req core.SubscribeRequest) (*SubscriptionResult, error)

	// RecordLaundryUsage draws weight from a subscription's quota.
	RecordLaundryUsage(ctx context.Context, companyCode, subscriptionID string, kg decimal.Decimal) (*core.Subscription, error)

	GetSubscription(ctx context.Context, companyCode, id string) (*core.Subscription, error)
	ListSubscriptions(ctx context.Context, companyCode string, status core.SubscriptionStatus) ([]core.Subscription, error)

	// BookService books a professional services work order.
	BookService(ctx context.Context, req core.BookServiceRequest) (*TransactionResult, error)

	// ── Transaction lifecycle ───────────────────────────────────────────────
	// ref may be a transaction id or its number (e.g. PS-2026-00001).

	GetTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error)
	ListTransactions(ctx context.Context, companyCode string, filter core.TransactionFilter) (*TransactionListResult, error)
	StartTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error)
	CompleteTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error)

	// CancelTransaction cancels a pending or in-progress transaction and reverses its effects.
	CancelTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error)

	// ReverseTransaction voids a completed transaction.
	ReverseTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error)

	// ── Capital ─────────────────────────────────────────────────────────────

	GetCapital(ctx context.Context, companyCode string, limit int) (*core.CapitalStatement, error)

	// MoveCapital deposits, withdraws or spends capital depending on req.Kind.
	MoveCapital(ctx context.Context, req CapitalMovementRequest) (*core.Wallet, error)

	// ── Reports ─────────────────────────────────────────────────────────────

	SalesSummary(ctx context.Context, companyCode string, from, to time.Time) (*core.SalesSummary, error)
	TopItems(ctx context.Context, companyCode string, from, to time.Time, limit int) ([]core.ItemSales, error)
	LowStock(ctx context.Context, companyCode string, threshold int) ([]core.CatalogEntry, error)
	DrawingEntries(ctx context.Context, companyCode string) ([]core.DrawingEntry, error)
	Dashboard(ctx context.Context, companyCode string, from, to time.Time, lowStockAt int) (*core.Dashboard, error)

	// ── Housekeeping (scheduled) ────────────────────────────────────────────

	// ReleaseEndedRentals completes in-progress rentals whose term has ended.
	ReleaseEndedRentals(ctx context.Context, now time.Time) (int, error)

	// ExpireSubscriptions marks ended laundry subscriptions as expired.
	ExpireSubscriptions(ctx context.Context, now time.Time) (int, error)

	// ExpireCoupons marks unused coupons past their expiry as expired.
	ExpireCoupons(ctx context.Context, now time.Time) (int, error)
}
