package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ModuleSummary aggregates one module's transactions in a period.
type ModuleSummary struct {
	Module       ModuleTag       `json:"module"`
	Transactions int             `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
	Discounts    decimal.Decimal `json:"discounts"`
	Profit       decimal.Decimal `json:"profit"`
}

// SalesSummary aggregates transactions per module for a period.
// Cancelled transactions are deleted and therefore never counted.
type SalesSummary struct {
	CompanyCode string          `json:"company_code"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Modules     []ModuleSummary `json:"modules"`
	Total       ModuleSummary   `json:"total"`
}

// ItemSales is the sold quantity and revenue of one catalog entry.
type ItemSales struct {
	SourceID string          `json:"source_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CapitalStatement is the wallet balance with its most recent movements.
type CapitalStatement struct {
	Balance decimal.Decimal `json:"balance"`
	Entries []WalletEntry   `json:"entries"`
}

// Dashboard combines the reports shown on the company overview.
type Dashboard struct {
	Sales       *SalesSummary     `json:"sales"`
	TopItems    []ItemSales       `json:"top_items"`
	LowStock    []CatalogEntry    `json:"low_stock"`
	Capital     *CapitalStatement `json:"capital"`
	Drawings    []DrawingEntry    `json:"drawings"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// ReportingService provides read-only reports over transactions, stock and capital.
type ReportingService interface {
	SalesSummary(ctx context.Context, companyCode string, from, to time.Time) (*SalesSummary, error)
	TopItems(ctx context.Context, companyCode string, from, to time.Time, limit int) ([]ItemSales, error)
	LowStock(ctx context.Context, companyCode string, threshold int) ([]CatalogEntry, error)
	CapitalStatement(ctx context.Context, companyCode string, limit int) (*CapitalStatement, error)
	DrawingEntries(ctx context.Context, companyCode string) ([]DrawingEntry, error)
	// Dashboard runs the reports above concurrently for the given period.
	Dashboard(ctx context.Context, companyCode string, from, to time.Time, lowStockAt int) (*Dashboard, error)
}

type reportingService struct {
	store Store
}

func NewReportingService(store Store) ReportingService {
	return &reportingService{store: store}
}

func (s *reportingService) periodTransactions(ctx context.Context, companyID string, from, to time.Time) ([]Transaction, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, invalid("to", "end of period is before its start")
	}
	filter := TransactionFilter{CompanyID: companyID}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}
	txs, err := s.store.Transactions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return txs, nil
}

func (s *reportingService) SalesSummary(ctx context.Context, companyCode string, from, to time.Time) (*SalesSummary, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	txs, err := s.periodTransactions(ctx, company.ID, from, to)
	if err != nil {
		return nil, err
	}
	return summarize(company.CompanyCode, from, to, txs), nil
}

func summarize(companyCode string, from, to time.Time, txs []Transaction) *SalesSummary {
	byModule := make(map[ModuleTag]*ModuleSummary, len(AllModules))
	for _, m := range AllModules {
		byModule[m] = &ModuleSummary{Module: m, Revenue: decimal.Zero, Discounts: decimal.Zero, Profit: decimal.Zero}
	}
	total := ModuleSummary{Module: "all", Revenue: decimal.Zero, Discounts: decimal.Zero, Profit: decimal.Zero}

	for _, t := range txs {
		ms, ok := byModule[t.Module]
		if !ok {
			continue
		}
		ms.Transactions++
		ms.Revenue = ms.Revenue.Add(t.TotalAmount)
		ms.Discounts = ms.Discounts.Add(t.Discount)
		ms.Profit = ms.Profit.Add(t.Profit)

		total.Transactions++
		total.Revenue = total.Revenue.Add(t.TotalAmount)
		total.Discounts = total.Discounts.Add(t.Discount)
		total.Profit = total.Profit.Add(t.Profit)
	}

	summary := &SalesSummary{CompanyCode: companyCode, From: from, To: to, Total: total}
	for _, m := range AllModules {
		summary.Modules = append(summary.Modules, *byModule[m])
	}
	return summary
}

func (s *reportingService) TopItems(ctx context.Context, companyCode string, from, to time.Time, limit int) ([]ItemSales, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	txs, err := s.periodTransactions(ctx, company.ID, from, to)
	if err != nil {
		return nil, err
	}
	return topItems(txs, limit), nil
}

func topItems(txs []Transaction, limit int) []ItemSales {
	agg := make(map[string]*ItemSales)
	for _, t := range txs {
		for _, item := range t.Items {
			is, ok := agg[item.SourceID]
			if !ok {
				is = &ItemSales{SourceID: item.SourceID, Name: item.Name, Revenue: decimal.Zero}
				agg[item.SourceID] = is
			}
			is.Quantity += item.Quantity
			is.Revenue = is.Revenue.Add(item.LineTotal())
		}
	}
	out := make([]ItemSales, 0, len(agg))
	for _, is := range agg {
		out = append(out, *is)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *reportingService) LowStock(ctx context.Context, companyCode string, threshold int) ([]CatalogEntry, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Catalog().List(ctx, company.ID, CatalogFilter{ActiveOnly: true, LowStockAt: &threshold})
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	return entries, nil
}

func (s *reportingService) CapitalStatement(ctx context.Context, companyCode string, limit int) (*CapitalStatement, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	w, err := s.store.Wallets().Get(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load capital wallet: %w", err)
	}
	entries, err := s.store.Wallets().Entries(ctx, company.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list capital entries: %w", err)
	}
	return &CapitalStatement{Balance: w.Balance, Entries: entries}, nil
}

func (s *reportingService) DrawingEntries(ctx context.Context, companyCode string) ([]DrawingEntry, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Drawings().List(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawing entries: %w", err)
	}
	return entries, nil
}

func (s *reportingService) Dashboard(ctx context.Context, companyCode string, from, to time.Time, lowStockAt int) (*Dashboard, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{GeneratedAt: time.Now().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.periodTransactions(gctx, company.ID, from, to)
		if err != nil {
			return err
		}
		d.Sales = summarize(company.CompanyCode, from, to, txs)
		d.TopItems = topItems(txs, 5)
		return nil
	})
	g.Go(func() error {
		entries, err := s.LowStock(gctx, companyCode, lowStockAt)
		d.LowStock = entries
		return err
	})
	g.Go(func() error {
		st, err := s.CapitalStatement(gctx, companyCode, 10)
		d.Capital = st
		return err
	})
	g.Go(func() error {
		entries, err := s.DrawingEntries(gctx, companyCode)
		d.Drawings = entries
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
