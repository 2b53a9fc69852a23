package repl

import (
	"fmt"
	"io"
	"strings"

	"retail-suite/internal/app"
	"retail-suite/internal/core"
)

func printCart(out io.Writer, q *app.QuoteResult, coupon string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-30s %5s %10s %12s\n", "ITEM", "QTY", "PRICE", "AMOUNT")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, li := range q.Quote.Items {
		fmt.Fprintf(out, "  %-30s %5d %10s %12s\n",
			li.Name, li.Quantity, core.FormatMoney(li.UnitPrice), core.FormatMoney(li.LineTotal()))
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	if coupon != "" {
		fmt.Fprintf(out, "  %-46s %12s\n", "Coupon "+strings.ToUpper(coupon), "-"+core.FormatMoney(q.Rounded.Discount))
	}
	fmt.Fprintf(out, "  %-46s %12s\n", "TOTAL", core.FormatMoney(q.Rounded.Total))
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printReceipt(out io.Writer, result *app.TransactionResult) {
	t := result.Transaction
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Sale %s settled: total %s", t.Number, core.FormatMoney(result.Rounded.Total))
	if t.Payment != nil && !t.Payment.Tendered.IsZero() {
		fmt.Fprintf(out, ", paid %s, change %s", core.FormatMoney(t.Payment.Tendered), core.FormatMoney(t.Payment.Change))
	}
	fmt.Fprintln(out)
}
