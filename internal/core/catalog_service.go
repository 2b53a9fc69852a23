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

// CatalogEntryInput creates or updates a catalog entry.
type CatalogEntryInput struct {
	CompanyCode    string
	Kind           CatalogKind
	SKU            string
	Name           string
	UnitPrice      decimal.Decimal
	UnitCost       decimal.Decimal
	TracksStock    bool
	OpeningStock   int
	Rate           decimal.Decimal
	RateUnit       RateUnit
	Margin         decimal.Decimal
	QuotaPerPeriod decimal.Decimal
	IsActive       *bool
}

// RestockRequest buys stock with company capital.
type RestockRequest struct {
	CompanyCode string
	EntryID     string
	Quantity    int
	UnitCost    decimal.Decimal // zero means the entry's current unit cost
}

// CatalogService maintains products, materials, rental assets, service bundles and plans.
type CatalogService interface {
	CreateEntry(ctx context.Context, in CatalogEntryInput) (*CatalogEntry, error)
	GetEntry(ctx context.Context, companyCode, id string) (*CatalogEntry, error)
	ListEntries(ctx context.Context, companyCode string, filter CatalogFilter) ([]CatalogEntry, error)
	UpdateEntry(ctx context.Context, id string, in CatalogEntryInput) (*CatalogEntry, error)
	DeleteEntry(ctx context.Context, companyCode, id string) error
	// Restock increases quantity-on-hand and debits the purchase from capital in one unit of work.
	Restock(ctx context.Context, req RestockRequest) (*CatalogEntry, *Wallet, error)
}

type catalogService struct {
	store Store
}

func NewCatalogService(store Store) CatalogService {
	return &catalogService{store: store}
}

func validateEntryInput(in CatalogEntryInput) error {
	if !in.Kind.Valid() {
		return invalid("kind", "unknown catalog kind %q", in.Kind)
	}
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "name is required")
	}
	if in.UnitPrice.IsNegative() || in.UnitCost.IsNegative() || in.Rate.IsNegative() {
		return invalid("price", "prices must not be negative")
	}
	if in.OpeningStock < 0 {
		return invalid("opening_stock", "opening stock must not be negative")
	}
	if in.Margin.IsNegative() || in.Margin.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("margin", "margin must be between 0 and 1")
	}
	switch in.Kind {
	case KindAsset:
		if !in.RateUnit.Valid() {
			return invalid("rate_unit", "rental assets need a rate unit (hour, day or month)")
		}
		if !in.Rate.IsPositive() {
			return invalid("rate", "rental assets need a positive rate")
		}
	case KindPlan:
		if !in.Rate.IsPositive() {
			return invalid("rate", "plans need a positive monthly rate")
		}
		if !in.QuotaPerPeriod.IsPositive() {
			return invalid("quota_per_period", "plans need a positive monthly quota")
		}
	}
	return nil
}

func (s *catalogService) CreateEntry(ctx context.Context, in CatalogEntryInput) (*CatalogEntry, error) {
	if err := validateEntryInput(in); err != nil {
		return nil, err
	}
	company, err := resolveCompany(ctx, s.store, in.CompanyCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &CatalogEntry{
		ID:             uuid.NewString(),
		CompanyID:      company.ID,
		Kind:           in.Kind,
		SKU:            strings.TrimSpace(in.SKU),
		Name:           strings.TrimSpace(in.Name),
		UnitPrice:      in.UnitPrice,
		UnitCost:       in.UnitCost,
		TracksStock:    in.TracksStock && (in.Kind == KindProduct || in.Kind == KindMaterial),
		Rate:           in.Rate,
		RateUnit:       in.RateUnit,
		Margin:         in.Margin,
		QuotaPerPeriod: in.QuotaPerPeriod,
		Available:      in.Kind == KindAsset,
		IsActive:       in.IsActive == nil || *in.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if e.TracksStock {
		e.QuantityOnHand = in.OpeningStock
	}
	if err := s.store.Catalog().Create(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("sku %s: %w", e.SKU, err)
		}
		return nil, fmt.Errorf("failed to create catalog entry: %w", err)
	}
	return e, nil
}

func (s *catalogService) GetEntry(ctx context.Context, companyCode, id string) (*CatalogEntry, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	e, err := s.store.Catalog().Get(ctx, company.ID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("catalog entry %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load catalog entry %s: %w", id, err)
	}
	return e, nil
}

func (s *catalogService) ListEntries(ctx context.Context, companyCode string, filter CatalogFilter) ([]CatalogEntry, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Catalog().List(ctx, company.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	return entries, nil
}

func (s *catalogService) UpdateEntry(ctx context.Context, id string, in CatalogEntryInput) (*CatalogEntry, error) {
	var result *CatalogEntry
	err := s.store.InTx(ctx, func(r Repos) error {
		company, err := resolveCompany(ctx, r, in.CompanyCode)
		if err != nil {
			return err
		}
		e, err := r.Catalog().Get(ctx, company.ID, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("catalog entry %s not found: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load catalog entry %s: %w", id, err)
		}
		// Kind and stock tracking are fixed at creation.
		in.Kind = e.Kind
		if err := validateEntryInput(in); err != nil {
			return err
		}
		e.SKU = strings.TrimSpace(in.SKU)
		e.Name = strings.TrimSpace(in.Name)
		e.UnitPrice = in.UnitPrice
		e.UnitCost = in.UnitCost
		e.Rate = in.Rate
		e.RateUnit = in.RateUnit
		e.Margin = in.Margin
		e.QuotaPerPeriod = in.QuotaPerPeriod
		if in.IsActive != nil {
			e.IsActive = *in.IsActive
		}
		e.UpdatedAt = time.Now().UTC()
		if err := r.Catalog().Update(ctx, e); err != nil {
			return fmt.Errorf("failed to update catalog entry %s: %w", id, err)
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *catalogService) DeleteEntry(ctx context.Context, companyCode, id string) error {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return err
	}
	if err := s.store.Catalog().Delete(ctx, company.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("catalog entry %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete catalog entry %s: %w", id, err)
	}
	return nil
}

func (s *catalogService) Restock(ctx context.Context, req RestockRequest) (*CatalogEntry, *Wallet, error) {
	if req.Quantity <= 0 {
		return nil, nil, invalid("quantity", "quantity must be positive, got %d", req.Quantity)
	}
	if req.UnitCost.IsNegative() {
		return nil, nil, invalid("unit_cost", "unit cost must not be negative")
	}

	var entry *CatalogEntry
	var wallet *Wallet
	err := s.store.InTx(ctx, func(r Repos) error {
		company, err := resolveCompany(ctx, r, req.CompanyCode)
		if err != nil {
			return err
		}
		e, err := r.Catalog().Get(ctx, company.ID, req.EntryID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("catalog entry %s not found: %w", req.EntryID, ErrNotFound)
			}
			return fmt.Errorf("failed to load catalog entry %s: %w", req.EntryID, err)
		}
		if !e.TracksStock {
			return invalid("entry_id", "%s does not track stock", e.Name)
		}

		unitCost := req.UnitCost
		if unitCost.IsZero() {
			unitCost = e.UnitCost
		}
		cost := unitCost.Mul(decimal.NewFromInt(int64(req.Quantity)))
		if cost.IsPositive() {
			wallet, err = r.Wallets().Apply(ctx, &WalletEntry{
				CompanyID: company.ID,
				Direction: DirectionOut,
				Amount:    cost,
				Reason:    fmt.Sprintf("%s: %d x %s", ReasonRestock, req.Quantity, e.Name),
				RefID:     e.ID,
			})
			if err != nil {
				return fmt.Errorf("failed to pay %s for restock: %w", FormatMoney(cost), err)
			}
		} else {
			wallet, err = r.Wallets().Get(ctx, company.ID)
			if err != nil {
				return fmt.Errorf("failed to load capital wallet: %w", err)
			}
		}

		qty, err := r.Catalog().AdjustQuantity(ctx, company.ID, e.ID, req.Quantity)
		if err != nil {
			return fmt.Errorf("failed to restock %s: %w", e.Name, err)
		}
		e.QuantityOnHand = qty
		if !req.UnitCost.IsZero() && !req.UnitCost.Equal(e.UnitCost) {
			e.UnitCost = req.UnitCost
			e.UpdatedAt = time.Now().UTC()
			if err := r.Catalog().Update(ctx, e); err != nil {
				return fmt.Errorf("failed to update unit cost of %s: %w", e.Name, err)
			}
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, wallet, nil
}
