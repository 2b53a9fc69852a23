package core

import (
	"github.com/shopspring/decimal"
)

// ItemSource tags where a line item was taken from. The work-order split
// distinguishes mart-sourced lines from everything else.
type ItemSource string

const (
	SourceMart     ItemSource = "mart"
	SourceMaterial ItemSource = "material"
	SourceService  ItemSource = "service"
	SourceAsset    ItemSource = "asset"
	SourcePlan     ItemSource = "plan"
)

// LineItem is one selected catalog entry with the prices captured at settlement time.
type LineItem struct {
	SourceID  string          `json:"source_id"`
	Name      string          `json:"name"`
	Source    ItemSource      `json:"source"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Quantity  int             `json:"quantity"`
	// ConsumesStock is set when the line decremented quantity-on-hand and must be restored on reversal.
	ConsumesStock bool `json:"consumes_stock"`
}

// LineTotal is UnitPrice × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineCost is UnitCost × Quantity.
func (li LineItem) LineCost() decimal.Decimal {
	return li.UnitCost.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Margin is (UnitPrice − UnitCost) × Quantity.
func (li LineItem) Margin() decimal.Decimal {
	return li.LineTotal().Sub(li.LineCost())
}

// Settlement is the price/discount/profit computation for one checkout or booking.
// Values carry full precision; use Rounded for presentation.
type Settlement struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Profit   decimal.Decimal `json:"profit"`
}

// Settle computes the settlement for items with an optional flat discount.
//
//	subtotal = Σ unitPrice·quantity
//	total    = max(0, subtotal − discount)
//	profit   = Σ (unitPrice − unitCost)·quantity − discount
//
// An empty item list yields a zero settlement regardless of discount.
func Settle(items []LineItem, discount decimal.Decimal) Settlement {
	if len(items) == 0 {
		return Settlement{Subtotal: decimal.Zero, Discount: decimal.Zero, Total: decimal.Zero, Profit: decimal.Zero}
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	subtotal := decimal.Zero
	margin := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		margin = margin.Add(item.Margin())
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Settlement{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		Profit:   margin.Sub(discount),
	}
}

// Rounded returns a copy with every amount rounded to 2 decimal places, half-up.
func (s Settlement) Rounded() Settlement {
	return Settlement{
		Subtotal: RoundMoney(s.Subtotal),
		Discount: RoundMoney(s.Discount),
		Total:    RoundMoney(s.Total),
		Profit:   RoundMoney(s.Profit),
	}
}

// RoundMoney rounds to 2 decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders an amount for display with exactly 2 decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ValidateItems rejects empty carts, non-positive quantities and negative prices.
func ValidateItems(items []LineItem) error {
	if len(items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, item := range items {
		if item.SourceID == "" {
			return invalid("items", "line %d: source id is required", i+1)
		}
		if item.Quantity <= 0 {
			return invalid("items", "line %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if item.UnitPrice.IsNegative() || item.UnitCost.IsNegative() {
			return invalid("items", "line %d: prices must not be negative", i+1)
		}
	}
	return nil
}

// Cart accumulates selected line items before settlement.
// Adding an item that is already present increases its quantity.
type Cart struct {
	items []LineItem
}

// NewCart returns a cart seeded with items (merged by SourceID).
func NewCart(items ...LineItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add appends item, or increases the quantity of the existing line with the same SourceID.
func (c *Cart) Add(item LineItem) {
	if item.Quantity <= 0 {
		return
	}
	for i := range c.items {
		if c.items[i].SourceID == item.SourceID && c.items[i].Source == item.Source {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// SetQuantity changes the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) SetQuantity(sourceID string, qty int) {
	for i := range c.items {
		if c.items[i].SourceID != sourceID {
			continue
		}
		if qty <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Quantity = qty
		return
	}
}

// Remove drops the line with the given SourceID.
func (c *Cart) Remove(sourceID string) {
	c.SetQuantity(sourceID, 0)
}

// Items returns a copy of the accumulated lines.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len is the number of distinct lines.
func (c *Cart) Len() int { return len(c.items) }

// Settle settles the cart's current contents.
func (c *Cart) Settle(discount decimal.Decimal) Settlement {
	return Settle(c.items, discount)
}
