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

// ItemRequest selects qty units of a catalog entry.
type ItemRequest struct {
	EntryID  string `json:"entry_id"`
	Quantity int    `json:"quantity"`
}

// booking is a settlement about to be committed. Mart checkout, rental
// agreements, laundry subscriptions and service work orders all go through it.
type booking struct {
	company        *Company
	module         ModuleTag
	status         Status
	items          []LineItem
	couponCode     string
	customer       *Customer
	payment        *Payment
	rental         *RentalTerms
	subscriptionID string
	notes          string
}

// resolveCompany looks up a tenant by its company code.
func resolveCompany(ctx context.Context, r Repos, companyCode string) (*Company, error) {
	if strings.TrimSpace(companyCode) == "" {
		return nil, invalid("company_code", "company code is required")
	}
	c, err := r.Companies().GetByCode(ctx, companyCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("company code %s not found: %w", companyCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve company %s: %w", companyCode, err)
	}
	return c, nil
}

func requireModule(c *Company, m ModuleTag) error {
	if !c.HasModule(m) {
		return fmt.Errorf("%w: %s", ErrModuleDisabled, m)
	}
	return nil
}

// resolveItems prices each request from the catalog. Client-side prices are never trusted.
func resolveItems(ctx context.Context, r Repos, companyID string, reqs []ItemRequest, kinds ...CatalogKind) ([]LineItem, error) {
	items := make([]LineItem, 0, len(reqs))
	for i, req := range reqs {
		if req.EntryID == "" {
			return nil, invalid("items", "line %d: entry id is required", i+1)
		}
		if req.Quantity <= 0 {
			return nil, invalid("items", "line %d: quantity must be positive, got %d", i+1, req.Quantity)
		}
		entry, err := r.Catalog().Get(ctx, companyID, req.EntryID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("items", "line %d: catalog entry %s not found", i+1, req.EntryID)
			}
			return nil, fmt.Errorf("failed to load catalog entry %s: %w", req.EntryID, err)
		}
		if !entry.IsActive {
			return nil, invalid("items", "line %d: %s is not active", i+1, entry.Name)
		}
		if !kindAllowed(entry.Kind, kinds) {
			return nil, invalid("items", "line %d: %s is a %s, not allowed here", i+1, entry.Name, entry.Kind)
		}
		items = append(items, entry.Line(req.Quantity))
	}
	return items, nil
}

func kindAllowed(k CatalogKind, kinds []CatalogKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, allowed := range kinds {
		if k == allowed {
			return true
		}
	}
	return false
}

// lookupCoupon resolves an unused, unexpired coupon without consuming it.
func lookupCoupon(ctx context.Context, r Repos, companyID, code string, now time.Time) (*Coupon, error) {
	c, err := r.Coupons().FindByCode(ctx, companyID, code, CouponUnused)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrCouponInvalid, code)
		}
		return nil, fmt.Errorf("failed to look up coupon %s: %w", code, err)
	}
	if c.ExpiredAt(now) {
		return nil, fmt.Errorf("%w: %q", ErrCouponExpired, code)
	}
	return c, nil
}

// quoteBooking computes the settlement b would produce. Nothing is written.
func quoteBooking(ctx context.Context, r Repos, b booking, now time.Time) (Settlement, error) {
	b.couponCode = normalizeCouponCode(b.couponCode)
	if err := ValidateItems(b.items); err != nil {
		return Settlement{}, err
	}
	discount := decimal.Zero
	if b.couponCode != "" {
		c, err := lookupCoupon(ctx, r, b.company.ID, b.couponCode, now)
		if err != nil {
			return Settlement{}, err
		}
		discount = c.Amount
	}
	return Settle(b.items, discount), nil
}

// commitBooking applies b inside the caller's unit of work: stock is consumed,
// the coupon is marked used, the transaction is numbered and stored, drawing
// entries are issued and the wallet is credited with the total. Any failure
// aborts the whole unit.
func commitBooking(ctx context.Context, r Repos, b booking, now time.Time) (*Transaction, error) {
	b.couponCode = normalizeCouponCode(b.couponCode)
	settlement, err := quoteBooking(ctx, r, b, now)
	if err != nil {
		return nil, err
	}

	var payment *Payment
	if b.payment != nil {
		p := *b.payment
		if !p.Method.Valid() {
			return nil, invalid("payment.method", "unknown payment method %q", p.Method)
		}
		if p.Method == PaymentCash && !p.Tendered.IsZero() {
			if p.Tendered.LessThan(settlement.Total) {
				return nil, invalid("payment.tendered", "tendered %s is less than total %s",
					FormatMoney(p.Tendered), FormatMoney(settlement.Total))
			}
			p.Change = p.Tendered.Sub(settlement.Total)
		}
		payment = &p
	}

	for _, item := range b.items {
		if !item.ConsumesStock {
			continue
		}
		if _, err := r.Catalog().AdjustQuantity(ctx, b.company.ID, item.SourceID, -item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to consume %d x %s: %w", item.Quantity, item.Name, err)
		}
	}

	seq, err := r.Sequences().Next(ctx, b.company.ID, b.module.numberPrefix(), now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction number: %w", err)
	}

	t := &Transaction{
		ID:             uuid.NewString(),
		CompanyID:      b.company.ID,
		Number:         fmt.Sprintf("%s-%d-%05d", b.module.numberPrefix(), now.Year(), seq),
		Module:         b.module,
		Status:         b.status,
		Items:          b.items,
		CouponCode:     b.couponCode,
		Customer:       b.customer,
		Payment:        payment,
		Rental:         b.rental,
		SubscriptionID: b.subscriptionID,
		Notes:          b.notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	t.applySettlement(settlement)
	if b.status == StatusCompleted {
		t.CompletedAt = &now
	}

	if err := r.Transactions().Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if b.couponCode != "" {
		if err := r.Coupons().MarkUsed(ctx, b.company.ID, b.couponCode, t.ID, now); err != nil {
			return nil, fmt.Errorf("failed to redeem coupon %s: %w", b.couponCode, err)
		}
	}

	if tickets := drawingTickets(b.company, settlement.Total); tickets > 0 {
		entry := &DrawingEntry{
			ID:            uuid.NewString(),
			CompanyID:     b.company.ID,
			TransactionID: t.ID,
			CustomerName:  "walk-in",
			Tickets:       tickets,
			CreatedAt:     now,
		}
		if b.customer != nil && b.customer.Name != "" {
			entry.CustomerName = b.customer.Name
			entry.CustomerPhone = b.customer.Phone
		}
		if err := r.Drawings().Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to create drawing entry: %w", err)
		}
	}

	if settlement.Total.IsPositive() {
		_, err := r.Wallets().Apply(ctx, &WalletEntry{
			CompanyID: b.company.ID,
			Direction: DirectionIn,
			Amount:    settlement.Total,
			Reason:    ReasonSale,
			RefID:     t.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to credit sale to capital: %w", err)
		}
	}

	return t, nil
}

// drawingTickets is floor(total / threshold), or 0 when drawings are disabled.
func drawingTickets(c *Company, total decimal.Decimal) int {
	if !c.DrawingThreshold.IsPositive() || total.LessThan(c.DrawingThreshold) {
		return 0
	}
	return int(total.Div(c.DrawingThreshold).Floor().IntPart())
}

// reverseBooking undoes t inside the caller's unit of work: stock is restored,
// drawing entries are deleted, the coupon is released, a held asset is freed,
// a linked subscription is cancelled, the sale is debited from capital and the
// transaction record is deleted.
func reverseBooking(ctx context.Context, r Repos, t *Transaction) error {
	for _, item := range t.Items {
		if !item.ConsumesStock {
			continue
		}
		if _, err := r.Catalog().AdjustQuantity(ctx, t.CompanyID, item.SourceID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock for %s: %w", item.Name, err)
		}
	}

	if _, err := r.Drawings().DeleteByTransaction(ctx, t.CompanyID, t.ID); err != nil {
		return fmt.Errorf("failed to delete drawing entries: %w", err)
	}

	if t.CouponCode != "" {
		if err := r.Coupons().MarkUnused(ctx, t.CompanyID, t.CouponCode); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to release coupon %s: %w", t.CouponCode, err)
		}
	}

	if t.Rental != nil && t.Status != StatusCompleted {
		if err := r.Catalog().ReleaseAsset(ctx, t.CompanyID, t.Rental.AssetID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to release asset: %w", err)
		}
	}

	if t.SubscriptionID != "" {
		err := r.Subscriptions().SetStatus(ctx, t.CompanyID, t.SubscriptionID, SubscriptionCancelled)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
	}

	if t.TotalAmount.IsPositive() {
		_, err := r.Wallets().Apply(ctx, &WalletEntry{
			CompanyID: t.CompanyID,
			Direction: DirectionOut,
			Amount:    t.TotalAmount,
			Reason:    ReasonReversal,
			RefID:     t.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to refund %s from capital: %w", FormatMoney(t.TotalAmount), err)
		}
	}

	if err := r.Transactions().Delete(ctx, t.CompanyID, t.ID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}
