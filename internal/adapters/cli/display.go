package cli

import (
	"fmt"
	"io"
	"strings"

	"retail-suite/internal/app"
	"retail-suite/internal/core"
)

const width = 62

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, width))
}

func header(out io.Writer, title string, company *core.Company) {
	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintf(out, "  %-58s\n", title)
	fmt.Fprintf(out, "  Company  : %s (%s)\n", company.CompanyCode, company.Name)
	if company.BaseCurrency != "" {
		fmt.Fprintf(out, "  Currency : %s\n", company.BaseCurrency)
	}
	rule(out, "=")
}

func printLines(out io.Writer, items []core.LineItem) {
	fmt.Fprintf(out, "  %-30s %5s %10s %12s\n", "ITEM", "QTY", "PRICE", "AMOUNT")
	rule(out, "-")
	for _, li := range items {
		fmt.Fprintf(out, "  %-30s %5d %10s %12s\n",
			truncate(li.Name, 30), li.Quantity, core.FormatMoney(li.UnitPrice), core.FormatMoney(li.LineTotal()))
	}
	rule(out, "-")
}

func printTotals(out io.Writer, s core.Settlement) {
	fmt.Fprintf(out, "  %-46s %12s\n", "Subtotal", core.FormatMoney(s.Subtotal))
	if !s.Discount.IsZero() {
		fmt.Fprintf(out, "  %-46s %12s\n", "Discount", "-"+core.FormatMoney(s.Discount))
	}
	fmt.Fprintf(out, "  %-46s %12s\n", "TOTAL", core.FormatMoney(s.Total))
}

func printQuote(out io.Writer, company *core.Company, result *app.QuoteResult) {
	header(out, "QUOTE", company)
	printLines(out, result.Quote.Items)
	printTotals(out, result.Rounded)
	rule(out, "=")
}

func printTransaction(out io.Writer, company *core.Company, result *app.TransactionResult) {
	t := result.Transaction
	header(out, fmt.Sprintf("%s  [%s]", t.Number, strings.ToUpper(string(t.Status))), company)
	printLines(out, t.Items)
	printTotals(out, result.Rounded)
	if t.Payment != nil {
		fmt.Fprintf(out, "  %-46s %12s\n", "Paid ("+string(t.Payment.Method)+")", core.FormatMoney(t.Payment.Tendered))
		fmt.Fprintf(out, "  %-46s %12s\n", "Change", core.FormatMoney(t.Payment.Change))
	}
	rule(out, "=")
}

func printCatalog(out io.Writer, result *app.CatalogListResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s %-12s %-20s %10s %6s\n", "KIND", "SKU", "NAME", "PRICE", "STOCK")
	rule(out, "-")
	for _, e := range result.Entries {
		stock := "-"
		if e.TracksStock {
			stock = fmt.Sprint(e.QuantityOnHand)
		}
		price := e.UnitPrice
		if e.Kind == core.KindAsset {
			price = e.Rate
		}
		fmt.Fprintf(out, "  %-10s %-12s %-20s %10s %6s\n",
			e.Kind, truncate(e.SKU, 12), truncate(e.Name, 20), core.FormatMoney(price), stock)
	}
	rule(out, "-")
}

func printCapital(out io.Writer, company *core.Company, stmt *core.CapitalStatement) {
	header(out, "CAPITAL", company)
	fmt.Fprintf(out, "  %-20s %-4s %14s %14s\n", "DATE", "DIR", "AMOUNT", "BALANCE")
	rule(out, "-")
	for _, e := range stmt.Entries {
		fmt.Fprintf(out, "  %-20s %-4s %14s %14s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Direction, core.FormatMoney(e.Amount), core.FormatMoney(e.BalanceAfter))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-39s %20s\n", "Balance", core.FormatMoney(stmt.Balance))
	rule(out, "=")
}

func printSales(out io.Writer, company *core.Company, s *core.SalesSummary) {
	header(out, "SALES SUMMARY", company)
	fmt.Fprintf(out, "  %-12s %6s %14s %12s %12s\n", "MODULE", "COUNT", "REVENUE", "DISCOUNTS", "PROFIT")
	rule(out, "-")
	for _, m := range s.Modules {
		printModule(out, m)
	}
	rule(out, "-")
	printModule(out, s.Total)
	rule(out, "=")
}

func printModule(out io.Writer, m core.ModuleSummary) {
	fmt.Fprintf(out, "  %-12s %6d %14s %12s %12s\n",
		m.Module, m.Transactions, core.FormatMoney(m.Revenue), core.FormatMoney(m.Discounts), core.FormatMoney(m.Profit))
}

func printLowStock(out io.Writer, threshold int, entries []core.CatalogEntry) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  LOW STOCK (at or under %d)\n", threshold)
	rule(out, "-")
	if len(entries) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, e := range entries {
		fmt.Fprintf(out, "  %-12s %-36s %6d\n", truncate(e.SKU, 12), truncate(e.Name, 36), e.QuantityOnHand)
	}
	rule(out, "-")
}

func printDrawings(out io.Writer, entries []core.DrawingEntry) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-24s %-20s %8s\n", "CUSTOMER", "PHONE", "TICKETS")
	rule(out, "-")
	total := 0
	for _, d := range entries {
		fmt.Fprintf(out, "  %-24s %-20s %8d\n", truncate(d.CustomerName, 24), d.CustomerPhone, d.Tickets)
		total += d.Tickets
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-45s %8d\n", "Total tickets", total)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
