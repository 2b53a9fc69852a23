package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary injected into every service.
// Implementations: internal/store/postgres (pgx) and internal/store/memory.
type Store interface {
	Repos
	// InTx runs fn as one atomic unit of work. If fn returns an error, every
	// write made through the Repos handed to fn is discarded and the error is
	// returned unchanged.
	InTx(ctx context.Context, fn func(r Repos) error) error
}

// Repos groups the repositories. Inside InTx they share the unit of work.
type Repos interface {
	Companies() CompanyRepository
	Users() UserRepository
	Catalog() CatalogRepository
	Transactions() TransactionRepository
	Coupons() CouponRepository
	Drawings() DrawingRepository
	Wallets() WalletRepository
	Subscriptions() SubscriptionRepository
	Sequences() SequenceRepository
}

type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	Get(ctx context.Context, id string) (*Company, error)
	GetByCode(ctx context.Context, code string) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	Update(ctx context.Context, c *Company) error
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, companyID, username string) (*User, error)
	List(ctx context.Context, companyID string) ([]User, error)
}

type CatalogRepository interface {
	Create(ctx context.Context, e *CatalogEntry) error
	Get(ctx context.Context, companyID, id string) (*CatalogEntry, error)
	List(ctx context.Context, companyID string, filter CatalogFilter) ([]CatalogEntry, error)
	// Update writes descriptive and price fields. QuantityOnHand and Available are not touched.
	Update(ctx context.Context, e *CatalogEntry) error
	Delete(ctx context.Context, companyID, id string) error
	// AdjustQuantity atomically adds delta to QuantityOnHand and returns the new
	// value. It fails with ErrInsufficientStock, changing nothing, if the result
	// would be negative. This is the only mutation path for quantity-on-hand.
	AdjustQuantity(ctx context.Context, companyID, id string, delta int) (int, error)
	// ReserveAsset flips Available from true to false, or fails with ErrAssetUnavailable.
	ReserveAsset(ctx context.Context, companyID, id string) error
	// ReleaseAsset sets Available back to true.
	ReleaseAsset(ctx context.Context, companyID, id string) error
}

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	// Get loads a transaction with its items. Inside InTx the record is locked
	// for the rest of the unit of work.
	Get(ctx context.Context, companyID, id string) (*Transaction, error)
	GetByNumber(ctx context.Context, companyID, number string) (*Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	// Update writes status, settlement figures, work-order split, timestamps and notes.
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, companyID, id string) error
}

type CouponRepository interface {
	Create(ctx context.Context, c *Coupon) error
	// FindByCode returns the coupon with code in the given status, or ErrNotFound.
	FindByCode(ctx context.Context, companyID, code string, status CouponStatus) (*Coupon, error)
	List(ctx context.Context, companyID string) ([]Coupon, error)
	Delete(ctx context.Context, companyID, id string) error
	// MarkUsed flips an unused coupon to used, or fails with ErrCouponInvalid.
	MarkUsed(ctx context.Context, companyID, code, transactionID string, at time.Time) error
	// MarkUnused restores a used coupon.
	MarkUnused(ctx context.Context, companyID, code string) error
	// ExpireBefore marks unused coupons whose expiry is at or before t as expired.
	ExpireBefore(ctx context.Context, t time.Time) (int, error)
}

type DrawingRepository interface {
	Create(ctx context.Context, d *DrawingEntry) error
	List(ctx context.Context, companyID string) ([]DrawingEntry, error)
	DeleteByTransaction(ctx context.Context, companyID, transactionID string) (int, error)
}

type WalletRepository interface {
	Create(ctx context.Context, w *Wallet) error
	Get(ctx context.Context, companyID string) (*Wallet, error)
	// Apply moves capital and records e, filling ID, BalanceAfter and CreatedAt.
	// Outgoing entries larger than the balance fail with ErrInsufficientBalance.
	Apply(ctx context.Context, e *WalletEntry) (*Wallet, error)
	Entries(ctx context.Context, companyID string, limit int) ([]WalletEntry, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, companyID, id string) (*Subscription, error)
	List(ctx context.Context, companyID string, status SubscriptionStatus) ([]Subscription, error)
	SetStatus(ctx context.Context, companyID, id string, status SubscriptionStatus) error
	// AddUsage atomically adds kg to UsedKg for an active subscription. It fails with
	// ErrQuotaExceeded past the quota and ErrSubscriptionClosed when not active.
	AddUsage(ctx context.Context, companyID, id string, kg decimal.Decimal) (*Subscription, error)
	// ExpireEnded marks active subscriptions whose term ended at or before t as expired.
	ExpireEnded(ctx context.Context, t time.Time) (int, error)
}

type SequenceRepository interface {
	// Next returns the next gapless number for (companyID, prefix, year), starting at 1.
	Next(ctx context.Context, companyID, prefix string, year int) (int64, error)
}
