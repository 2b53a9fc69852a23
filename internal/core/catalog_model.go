package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogKind classifies a catalog entry.
type CatalogKind string

const (
	KindProduct  CatalogKind = "product"  // mart goods, sold at the POS
	KindMaterial CatalogKind = "material" // consumed by service work orders
	KindAsset    CatalogKind = "asset"    // rentable equipment, priced by rate
	KindService  CatalogKind = "service"  // professional service bundle
	KindPlan     CatalogKind = "plan"     // laundry subscription plan, priced per month
)

func (k CatalogKind) Valid() bool {
	switch k {
	case KindProduct, KindMaterial, KindAsset, KindService, KindPlan:
		return true
	}
	return false
}

// itemSource maps a catalog kind to the line item source it produces.
func (k CatalogKind) itemSource() ItemSource {
	switch k {
	case KindMaterial:
		return SourceMaterial
	case KindAsset:
		return SourceAsset
	case KindService:
		return SourceService
	case KindPlan:
		return SourcePlan
	default:
		return SourceMart
	}
}

// CatalogEntry is any sellable, rentable or consumable unit.
// QuantityOnHand and Available are only changed through the conditional
// repository primitives (AdjustQuantity, ReserveAsset, ReleaseAsset).
type CatalogEntry struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	Kind           CatalogKind     `json:"kind"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TracksStock    bool            `json:"tracks_stock"`
	QuantityOnHand int             `json:"quantity_on_hand"`
	Rate           decimal.Decimal `json:"rate"`
	RateUnit       RateUnit        `json:"rate_unit,omitempty"`
	Margin         decimal.Decimal `json:"margin"`           // rental margin fraction; zero means DefaultRentalMargin
	QuotaPerPeriod decimal.Decimal `json:"quota_per_period"` // laundry plans: kg per month
	Available      bool            `json:"available"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Line converts the entry into a settlement line for qty units at catalog prices.
func (e *CatalogEntry) Line(qty int) LineItem {
	return LineItem{
		SourceID:      e.ID,
		Name:          e.Name,
		Source:        e.Kind.itemSource(),
		UnitPrice:     e.UnitPrice,
		UnitCost:      e.UnitCost,
		Quantity:      qty,
		ConsumesStock: e.TracksStock,
	}
}

// CatalogFilter narrows catalog listings. Zero values mean "any".
type CatalogFilter struct {
	Kind          CatalogKind
	ActiveOnly    bool
	LowStockAt    *int // stocked entries with QuantityOnHand <= LowStockAt
	AvailableOnly bool
}
