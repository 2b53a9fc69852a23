package core

import "github.com/shopspring/decimal"

// SplitWorkOrder computes the revenue split of a services work order.
//
//	martRevenue    = Σ price·qty of mart-sourced lines
//	martCost       = Σ cost·qty of mart-sourced lines
//	serviceRevenue = max(0, bookedTotal − martRevenue)
//	materialCost   = Σ cost·qty of every other line
//	netProfit      = (serviceRevenue − materialCost) + (martRevenue − martCost)
//
// The booked total already has any discount applied, so the discount is
// absorbed by the service side.
func SplitWorkOrder(items []LineItem, bookedTotal decimal.Decimal) WorkOrderSplit {
	martRevenue := decimal.Zero
	martCost := decimal.Zero
	materialCost := decimal.Zero
	for _, item := range items {
		if item.Source == SourceMart {
			martRevenue = martRevenue.Add(item.LineTotal())
			martCost = martCost.Add(item.LineCost())
			continue
		}
		materialCost = materialCost.Add(item.LineCost())
	}

	serviceRevenue := bookedTotal.Sub(martRevenue)
	if serviceRevenue.IsNegative() {
		serviceRevenue = decimal.Zero
	}

	return WorkOrderSplit{
		ServiceRevenue: serviceRevenue,
		MaterialCost:   materialCost,
		MartRevenue:    martRevenue,
		MartCost:       martCost,
		NetProfit:      serviceRevenue.Sub(materialCost).Add(martRevenue.Sub(martCost)),
	}
}
