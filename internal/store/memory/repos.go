package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"retail-suite/internal/core"
)

// ── Companies ────────────────────────────────────────────────────────────────

type companyRepo struct{ v view }

func copyCompany(c core.Company) core.Company {
	c.Modules = append([]core.ModuleTag(nil), c.Modules...)
	return c
}

func (r companyRepo) Create(ctx context.Context, c *core.Company) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.companies {
			if strings.EqualFold(existing.CompanyCode, c.CompanyCode) {
				return fmt.Errorf("company code %s %w", c.CompanyCode, core.ErrDuplicate)
			}
		}
		st.companies[c.ID] = copyCompany(*c)
		return nil
	})
}

func (r companyRepo) Get(ctx context.Context, id string) (*core.Company, error) {
	var out core.Company
	err := r.v.do(func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return core.ErrNotFound
		}
		out = copyCompany(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r companyRepo) GetByCode(ctx context.Context, code string) (*core.Company, error) {
	var out core.Company
	err := r.v.do(func(st *state) error {
		for _, c := range st.companies {
			if strings.EqualFold(c.CompanyCode, code) {
				out = copyCompany(c)
				return nil
			}
		}
		return core.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r companyRepo) List(ctx context.Context) ([]core.Company, error) {
	var out []core.Company
	err := r.v.do(func(st *state) error {
		for _, c := range st.companies {
			out = append(out, copyCompany(c))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyCode < out[j].CompanyCode })
	return out, err
}

func (r companyRepo) Update(ctx context.Context, c *core.Company) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.companies[c.ID]; !ok {
			return core.ErrNotFound
		}
		st.companies[c.ID] = copyCompany(*c)
		return nil
	})
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRepo struct{ v view }

func (r userRepo) Create(ctx context.Context, u *core.User) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.users {
			if existing.CompanyID == u.CompanyID && strings.EqualFold(existing.Username, u.Username) {
				return fmt.Errorf("user %s %w", u.Username, core.ErrDuplicate)
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Get(ctx context.Context, id string) (*core.User, error) {
	var out core.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return core.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) GetByUsername(ctx context.Context, companyID, username string) (*core.User, error) {
	var out core.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.CompanyID == companyID && strings.EqualFold(u.Username, username) {
				out = u
				return nil
			}
		}
		return core.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) List(ctx context.Context, companyID string) ([]core.User, error) {
	var out []core.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.CompanyID == companyID {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

// ── Catalog ──────────────────────────────────────────────────────────────────

type catalogRepo struct{ v view }

func (r catalogRepo) Create(ctx context.Context, e *core.CatalogEntry) error {
	return r.v.do(func(st *state) error {
		if e.SKU != "" {
			for _, existing := range st.catalog {
				if existing.CompanyID == e.CompanyID && strings.EqualFold(existing.SKU, e.SKU) {
					return core.ErrDuplicate
				}
			}
		}
		st.catalog[e.ID] = *e
		return nil
	})
}

func (r catalogRepo) Get(ctx context.Context, companyID, id string) (*core.CatalogEntry, error) {
	var out core.CatalogEntry
	err := r.v.do(func(st *state) error {
		e, ok := st.catalog[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrNotFound
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r catalogRepo) List(ctx context.Context, companyID string, filter core.CatalogFilter) ([]core.CatalogEntry, error) {
	var out []core.CatalogEntry
	err := r.v.do(func(st *state) error {
		for _, e := range st.catalog {
			if e.CompanyID != companyID {
				continue
			}
			if filter.Kind != "" && e.Kind != filter.Kind {
				continue
			}
			if filter.ActiveOnly && !e.IsActive {
				continue
			}
			if filter.AvailableOnly && !e.Available {
				continue
			}
			if filter.LowStockAt != nil && (!e.TracksStock || e.QuantityOnHand > *filter.LowStockAt) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (r catalogRepo) Update(ctx context.Context, e *core.CatalogEntry) error {
	return r.v.do(func(st *state) error {
		current, ok := st.catalog[e.ID]
		if !ok || current.CompanyID != e.CompanyID {
			return core.ErrNotFound
		}
		if e.SKU != "" {
			for id, existing := range st.catalog {
				if id != e.ID && existing.CompanyID == e.CompanyID && strings.EqualFold(existing.SKU, e.SKU) {
					return core.ErrDuplicate
				}
			}
		}
		updated := *e
		updated.QuantityOnHand = current.QuantityOnHand
		updated.Available = current.Available
		updated.TracksStock = current.TracksStock
		st.catalog[e.ID] = updated
		return nil
	})
}

func (r catalogRepo) Delete(ctx context.Context, companyID, id string) error {
	return r.v.do(func(st *state) error {
		e, ok := st.catalog[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrNotFound
		}
		delete(st.catalog, id)
		return nil
	})
}

func (r catalogRepo) AdjustQuantity(ctx context.Context, companyID, id string, delta int) (int, error) {
	var qty int
	err := r.v.do(func(st *state) error {
		e, ok := st.catalog[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrNotFound
		}
		if e.QuantityOnHand+delta < 0 {
			return fmt.Errorf("%w: %s has %d, need %d", core.ErrInsufficientStock, e.Name, e.QuantityOnHand, -delta)
		}
		e.QuantityOnHand += delta
		e.UpdatedAt = time.Now().UTC()
		st.catalog[id] = e
		qty = e.QuantityOnHand
		return nil
	})
	return qty, err
}

func (r catalogRepo) ReserveAsset(ctx context.Context, companyID, id string) error {
	return r.v.do(func(st *state) error {
		e, ok := st.catalog[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrNotFound
		}
		if !e.Available {
			return fmt.Errorf("%w: %s", core.ErrAssetUnavailable, e.Name)
		}
		e.Available = false
		e.UpdatedAt = time.Now().UTC()
		st.catalog[id] = e
		return nil
	})
}

func (r catalogRepo) ReleaseAsset(ctx context.Context, companyID, id string) error {
	return r.v.do(func(st *state) error {
		e, ok := st.catalog[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrNotFound
		}
		e.Available = true
		e.UpdatedAt = time.Now().UTC()
		st.catalog[id] = e
		return nil
	})
}

// ── Transactions ─────────────────────────────────────────────────────────────

type transactionRepo struct{ v view }

func copyTransaction(t core.Transaction) core.Transaction {
	t.Items = append([]core.LineItem(nil), t.Items...)
	if t.Customer != nil {
		c := *t.Customer
		t.Customer = &c
	}
	if t.Payment != nil {
		p := *t.Payment
		t.Payment = &p
	}
	if t.Rental != nil {
		rt := *t.Rental
		t.Rental = &rt
	}
	if t.WorkOrder != nil {
		w := *t.WorkOrder
		t.WorkOrder = &w
	}
	t.StartedAt = timePtr(t.StartedAt)
	t.CompletedAt = timePtr(t.CompletedAt)
	return t
}

func (r transactionRepo) Create(ctx context.Context, t *core.Transaction) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.transactions[t.ID]; exists {
			return core.ErrDuplicate
		}
		st.transactions[t.ID] = copyTransaction(*t)
		return nil
	})
}

func (r transactionRepo) Get(ctx context.Context, companyID, id string) (*core.Transaction, error) {
	var out core.Transaction
	err := r.v.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.CompanyID != companyID {
			return core.ErrNotFound
		}
		out = copyTransaction(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r transactionRepo) GetByNumber(ctx context.Context, companyID, number string) (*core.Transaction, error) {
	var out core.Transaction
	err := r.v.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.CompanyID == companyID && t.Number == number {
				out = copyTransaction(t)
				return nil
			}
		}
		return core.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r transactionRepo) List(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	err := r.v.do(func(st *state) error {
		for _, t := range st.transactions {
			if filter.CompanyID != "" && t.CompanyID != filter.CompanyID {
				continue
			}
			if filter.Module != "" && t.Module != filter.Module {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.From != nil && t.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !t.CreatedAt.Before(*filter.To) {
				continue
			}
			out = append(out, copyTransaction(t))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, err
}

func (r transactionRepo) Update(ctx context.Context, t *core.Transaction) error {
	return r.v.do(func(st *state) error {
		current, ok := st.transactions[t.ID]
		if !ok || current.CompanyID != t.CompanyID {
			return core.ErrNotFound
		}
		updated := copyTransaction(*t)
		// Lines and identity are immutable after creation.
		updated.Items = current.Items
		updated.Number = current.Number
		updated.Module = current.Module
		updated.CreatedAt = current.CreatedAt
		st.transactions[t.ID] = updated
		return nil
	})
}

func (r transactionRepo) Delete(ctx context.Context, companyID, id string) error {
	return r.v.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.CompanyID != companyID {
			return core.ErrNotFound
		}
		delete(st.transactions, id)
		return nil
	})
}

// ── Coupons ──────────────────────────────────────────────────────────────────

type couponRepo struct{ v view }

func copyCoupon(c core.Coupon) core.Coupon {
	c.ExpiresAt = timePtr(c.ExpiresAt)
	c.UsedAt = timePtr(c.UsedAt)
	return c
}

func findCoupon(st *state, companyID, code string) (core.Coupon, bool) {
	for _, c := range st.coupons {
		if c.CompanyID == companyID && strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return core.Coupon{}, false
}

func (r couponRepo) Create(ctx context.Context, c *core.Coupon) error {
	return r.v.do(func(st *state) error {
		if _, exists := findCoupon(st, c.CompanyID, c.Code); exists {
			return core.ErrDuplicate
		}
		st.coupons[c.ID] = copyCoupon(*c)
		return nil
	})
}

func (r couponRepo) FindByCode(ctx context.Context, companyID, code string, status core.CouponStatus) (*core.Coupon, error) {
	var out core.Coupon
	err := r.v.do(func(st *state) error {
		c, ok := findCoupon(st, companyID, code)
		if !ok || c.Status != status {
			return core.ErrNotFound
		}
		out = copyCoupon(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r couponRepo) List(ctx context.Context, companyID string) ([]core.Coupon, error) {
	var out []core.Coupon
	err := r.v.do(func(st *state) error {
		for _, c := range st.coupons {
			if c.CompanyID == companyID {
				out = append(out, copyCoupon(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (r couponRepo) Delete(ctx context.Context, companyID, id string) error {
	return r.v.do(func(st *state) error {
		c, ok := st.coupons[id]
		if !ok || c.CompanyID != companyID {
			return core.ErrNotFound
		}
		delete(st.coupons, id)
		return nil
	})
}

func (r couponRepo) MarkUsed(ctx context.Context, companyID, code, transactionID string, at time.Time) error {
	return r.v.do(func(st *state) error {
		c, ok := findCoupon(st, companyID, code)
		if !ok || c.Status != core.CouponUnused {
			return fmt.Errorf("%w: %q", core.ErrCouponInvalid, code)
		}
		used := at
		c.Status = core.CouponUsed
		c.UsedBy = transactionID
		c.UsedAt = &used
		st.coupons[c.ID] = c
		return nil
	})
}

func (r couponRepo) MarkUnused(ctx context.Context, companyID, code string) error {
	return r.v.do(func(st *state) error {
		c, ok := findCoupon(st, companyID, code)
		if !ok {
			return core.ErrNotFound
		}
		if c.Status != core.CouponUsed {
			return nil
		}
		c.Status = core.CouponUnused
		c.UsedBy = ""
		c.UsedAt = nil
		st.coupons[c.ID] = c
		return nil
	})
}

func (r couponRepo) ExpireBefore(ctx context.Context, t time.Time) (int, error) {
	n := 0
	err := r.v.do(func(st *state) error {
		for id, c := range st.coupons {
			if c.Status == core.CouponUnused && c.ExpiredAt(t) {
				c.Status = core.CouponExpired
				st.coupons[id] = c
				n++
			}
		}
		return nil
	})
	return n, err
}

// ── Drawing entries ──────────────────────────────────────────────────────────

type drawingRepo struct{ v view }

func (r drawingRepo) Create(ctx context.Context, d *core.DrawingEntry) error {
	return r.v.do(func(st *state) error {
		st.drawings[d.ID] = *d
		return nil
	})
}

func (r drawingRepo) List(ctx context.Context, companyID string) ([]core.DrawingEntry, error) {
	var out []core.DrawingEntry
	err := r.v.do(func(st *state) error {
		for _, d := range st.drawings {
			if d.CompanyID == companyID {
				out = append(out, d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r drawingRepo) DeleteByTransaction(ctx context.Context, companyID, transactionID string) (int, error) {
	n := 0
	err := r.v.do(func(st *state) error {
		for id, d := range st.drawings {
			if d.CompanyID == companyID && d.TransactionID == transactionID {
				delete(st.drawings, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ── Wallets ──────────────────────────────────────────────────────────────────

type walletRepo struct{ v view }

func (r walletRepo) Create(ctx context.Context, w *core.Wallet) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.wallets[w.CompanyID]; exists {
			return core.ErrDuplicate
		}
		st.wallets[w.CompanyID] = *w
		return nil
	})
}

func (r walletRepo) Get(ctx context.Context, companyID string) (*core.Wallet, error) {
	var out core.Wallet
	err := r.v.do(func(st *state) error {
		w, ok := st.wallets[companyID]
		if !ok {
			return core.ErrNotFound
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r walletRepo) Apply(ctx context.Context, e *core.WalletEntry) (*core.Wallet, error) {
	var out core.Wallet
	err := r.v.do(func(st *state) error {
		w, ok := st.wallets[e.CompanyID]
		if !ok {
			return core.ErrNotFound
		}
		balance := w.Balance.Add(e.Signed())
		if balance.IsNegative() {
			return fmt.Errorf("%w: have %s, need %s", core.ErrInsufficientBalance,
				core.FormatMoney(w.Balance), core.FormatMoney(e.Amount))
		}
		now := time.Now().UTC()
		w.Balance = balance
		w.UpdatedAt = now
		st.wallets[e.CompanyID] = w

		e.ID = uuid.NewString()
		e.BalanceAfter = balance
		e.CreatedAt = now
		st.walletEntries = append(st.walletEntries, *e)
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r walletRepo) Entries(ctx context.Context, companyID string, limit int) ([]core.WalletEntry, error) {
	var out []core.WalletEntry
	err := r.v.do(func(st *state) error {
		for i := len(st.walletEntries) - 1; i >= 0; i-- {
			e := st.walletEntries[i]
			if e.CompanyID != companyID {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// ── Subscriptions ────────────────────────────────────────────────────────────

type subscriptionRepo struct{ v view }

func (r subscriptionRepo) Create(ctx context.Context, s *core.Subscription) error {
	return r.v.do(func(st *state) error {
		st.subscriptions[s.ID] = *s
		return nil
	})
}

func (r subscriptionRepo) Get(ctx context.Context, companyID, id string) (*core.Subscription, error) {
	var out core.Subscription
	err := r.v.do(func(st *state) error {
		s, ok := st.subscriptions[id]
		if !ok || s.CompanyID != companyID {
			return core.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r subscriptionRepo) List(ctx context.Context, companyID string, status core.SubscriptionStatus) ([]core.Subscription, error) {
	var out []core.Subscription
	err := r.v.do(func(st *state) error {
		for _, s := range st.subscriptions {
			if s.CompanyID != companyID {
				continue
			}
			if status != "" && s.Status != status {
				continue
			}
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r subscriptionRepo) SetStatus(ctx context.Context, companyID, id string, status core.SubscriptionStatus) error {
	return r.v.do(func(st *state) error {
		s, ok := st.subscriptions[id]
		if !ok || s.CompanyID != companyID {
			return core.ErrNotFound
		}
		s.Status = status
		s.UpdatedAt = time.Now().UTC()
		st.subscriptions[id] = s
		return nil
	})
}

func (r subscriptionRepo) AddUsage(ctx context.Context, companyID, id string, kg decimal.Decimal) (*core.Subscription, error) {
	var out core.Subscription
	err := r.v.do(func(st *state) error {
		s, ok := st.subscriptions[id]
		if !ok || s.CompanyID != companyID {
			return core.ErrNotFound
		}
		if s.Status != core.SubscriptionActive {
			return fmt.Errorf("%w: status is %s", core.ErrSubscriptionClosed, s.Status)
		}
		used := s.UsedKg.Add(kg)
		if used.GreaterThan(s.QuotaKg) {
			return fmt.Errorf("%w: %s kg remaining", core.ErrQuotaExceeded, s.RemainingKg().String())
		}
		s.UsedKg = used
		s.UpdatedAt = time.Now().UTC()
		st.subscriptions[id] = s
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r subscriptionRepo) ExpireEnded(ctx context.Context, t time.Time) (int, error) {
	n := 0
	err := r.v.do(func(st *state) error {
		for id, s := range st.subscriptions {
			if s.Status == core.SubscriptionActive && !s.EndsAt.After(t) {
				s.Status = core.SubscriptionExpired
				s.UpdatedAt = t
				st.subscriptions[id] = s
				n++
			}
		}
		return nil
	})
	return n, err
}

// ── Sequences ────────────────────────────────────────────────────────────────

type sequenceRepo struct{ v view }

func (r sequenceRepo) Next(ctx context.Context, companyID, prefix string, year int) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		key := fmt.Sprintf("%s/%s/%d", companyID, prefix, year)
		st.sequences[key]++
		n = st.sequences[key]
		return nil
	})
	return n, err
}
