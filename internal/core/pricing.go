package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateUnit is the billing period of a rate-priced catalog entry.
type RateUnit string

const (
	RateHour  RateUnit = "hour"
	RateDay   RateUnit = "day"
	RateMonth RateUnit = "month"
)

func (u RateUnit) Valid() bool {
	switch u {
	case RateHour, RateDay, RateMonth:
		return true
	}
	return false
}

// Advance returns t moved forward by n periods.
func (u RateUnit) Advance(t time.Time, n int) time.Time {
	switch u {
	case RateHour:
		return t.Add(time.Duration(n) * time.Hour)
	case RateMonth:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// DefaultRentalMargin is applied when a rental asset carries no explicit margin.
var DefaultRentalMargin = decimal.RequireFromString("0.95")

// RateTotal is rate × duration. There is no proration and no minimum duration.
func RateTotal(rate decimal.Decimal, duration int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(duration)))
}

// RateProfit is total × margin, where margin is a fraction in [0, 1].
func RateProfit(total, margin decimal.Decimal) decimal.Decimal {
	return total.Mul(margin)
}

// RateLine prices a rate-based catalog entry as a settlement line. The unit
// cost is derived from the margin so that the line's profit equals
// RateProfit(RateTotal(rate, duration), margin).
func RateLine(entry *CatalogEntry, source ItemSource, duration int) LineItem {
	margin := entry.Margin
	if margin.IsZero() {
		margin = DefaultRentalMargin
	}
	return LineItem{
		SourceID:  entry.ID,
		Name:      entry.Name,
		Source:    source,
		UnitPrice: entry.Rate,
		UnitCost:  entry.Rate.Mul(decimal.NewFromInt(1).Sub(margin)),
		Quantity:  duration,
	}
}
