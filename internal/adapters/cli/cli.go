package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"retail-suite/internal/app"
	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

const usage = `Usage: app <command> [flags]

Commands:
  register   --name NAME --owner-username U --owner-password P [--capital N] [--threshold N] [--modules mart,rental]
  catalog    list [--kind K] | add --kind K --sku S --name N [--price N] [--cost N] [--stock N] [--rate N --unit U] [--quota N]
  quote      --item ENTRY:QTY [--item ...] [--coupon CODE]
  checkout   --item ENTRY:QTY [--item ...] [--coupon CODE] [--method cash] [--tendered N] [--customer NAME]
  start | complete | cancel | reverse  <transaction id or number>
  capital    [deposit|withdraw|expense AMOUNT [NOTE]]
  report     [sales|low-stock|drawings|dashboard] [--from YYYY-MM-DD] [--to YYYY-MM-DD]`

// Run executes a one-shot CLI command. args is os.Args[1:]; the first
// element is the subcommand name. Output is written to out.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	if args[0] == "register" {
		return runRegister(ctx, svc, args[1:], out)
	}

	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		return fmt.Errorf("failed to load company: %w", err)
	}
	code := company.CompanyCode

	switch args[0] {
	case "catalog", "cat":
		return runCatalog(ctx, svc, code, args[1:], out)

	case "quote", "q":
		req, err := parseCheckout(code, "quote", args[1:])
		if err != nil {
			return err
		}
		result, err := svc.QuoteCheckout(ctx, req)
		if err != nil {
			return fmt.Errorf("quote failed: %w", err)
		}
		printQuote(out, company, result)

	case "checkout", "co":
		req, err := parseCheckout(code, "checkout", args[1:])
		if err != nil {
			return err
		}
		result, err := svc.Checkout(ctx, req)
		if err != nil {
			return fmt.Errorf("checkout failed: %w", err)
		}
		printTransaction(out, company, result)

	case "start", "complete", "cancel", "reverse":
		if len(args) < 2 {
			return fmt.Errorf("usage: app %s <transaction id or number>", args[0])
		}
		move := map[string]func(context.Context, string, string) (*app.TransactionResult, error){
			"start":    svc.StartTransaction,
			"complete": svc.CompleteTransaction,
			"cancel":   svc.CancelTransaction,
			"reverse":  svc.ReverseTransaction,
		}[args[0]]
		result, err := move(ctx, code, args[1])
		if err != nil {
			return fmt.Errorf("%s failed: %w", args[0], err)
		}
		printTransaction(out, company, result)

	case "capital", "cap":
		return runCapital(ctx, svc, company, args[1:], out)

	case "report", "rep":
		return runReport(ctx, svc, company, args[1:], out)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func runRegister(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "company name")
	ownerName := fs.String("owner", "", "owner display name")
	currency := fs.String("currency", "", "base currency")
	username := fs.String("owner-username", "owner", "owner login")
	password := fs.String("owner-password", "", "owner password")
	capital := fs.String("capital", "0", "opening capital")
	threshold := fs.String("threshold", "0", "drawing threshold (0 disables drawings)")
	modules := fs.String("modules", "", "comma-separated modules (default: all)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	opening, err := parseMoney("capital", *capital)
	if err != nil {
		return err
	}
	drawing, err := parseMoney("threshold", *threshold)
	if err != nil {
		return err
	}
	req := core.RegisterCompanyRequest{
		Name:             *name,
		OwnerName:        *ownerName,
		BaseCurrency:     *currency,
		OpeningCapital:   opening,
		DrawingThreshold: drawing,
		OwnerUsername:    *username,
		OwnerPassword:    *password,
	}
	for _, m := range strings.Split(*modules, ",") {
		if m = strings.TrimSpace(m); m != "" {
			req.Modules = append(req.Modules, core.ModuleTag(m))
		}
	}

	result, err := svc.RegisterCompany(ctx, req)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	fmt.Fprintf(out, "Registered %s (%s). Owner login: %s\n",
		result.Company.Name, result.Company.CompanyCode, result.Owner.Username)
	return nil
}

func runCatalog(ctx context.Context, svc app.ApplicationService, code string, args []string, out io.Writer) error {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list", "ls":
		fs := flag.NewFlagSet("catalog list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		kind := fs.String("kind", "", "product, material, asset, service or plan")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("catalog list: %w", err)
		}
		result, err := svc.ListCatalog(ctx, code, core.CatalogFilter{Kind: core.CatalogKind(*kind)})
		if err != nil {
			return fmt.Errorf("failed to list catalog: %w", err)
		}
		printCatalog(out, result)
		return nil

	case "add":
		fs := flag.NewFlagSet("catalog add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		kind := fs.String("kind", string(core.KindProduct), "entry kind")
		sku := fs.String("sku", "", "stock keeping unit")
		name := fs.String("name", "", "display name")
		price := fs.String("price", "0", "unit price")
		cost := fs.String("cost", "0", "unit cost")
		stock := fs.Int("stock", -1, "opening stock; tracks stock when set")
		rate := fs.String("rate", "0", "rental rate")
		unit := fs.String("unit", "", "rate unit: hour, day or month")
		quota := fs.String("quota", "0", "laundry plan kg per month")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("catalog add: %w", err)
		}

		in := core.CatalogEntryInput{
			CompanyCode: code,
			Kind:        core.CatalogKind(*kind),
			SKU:         *sku,
			Name:        *name,
			RateUnit:    core.RateUnit(*unit),
		}
		var err error
		if in.UnitPrice, err = parseMoney("price", *price); err != nil {
			return err
		}
		if in.UnitCost, err = parseMoney("cost", *cost); err != nil {
			return err
		}
		if in.Rate, err = parseMoney("rate", *rate); err != nil {
			return err
		}
		if in.QuotaPerPeriod, err = parseMoney("quota", *quota); err != nil {
			return err
		}
		if *stock >= 0 {
			in.TracksStock = true
			in.OpeningStock = *stock
		}

		entry, err := svc.CreateCatalogEntry(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to add catalog entry: %w", err)
		}
		fmt.Fprintf(out, "Added %s %s (%s) id=%s\n", entry.Kind, entry.SKU, entry.Name, entry.ID)
		return nil

	default:
		return fmt.Errorf("unknown catalog command: %s (want list or add)", sub)
	}
}

// itemFlags collects repeated --item ENTRY:QTY flags.
type itemFlags []core.ItemRequest

func (f *itemFlags) String() string { return fmt.Sprint(len(*f)) }

func (f *itemFlags) Set(v string) error {
	id, qty, found := strings.Cut(v, ":")
	n := 1
	if found {
		var err error
		if n, err = strconv.Atoi(qty); err != nil {
			return fmt.Errorf("invalid quantity in %q", v)
		}
	}
	*f = append(*f, core.ItemRequest{EntryID: id, Quantity: n})
	return nil
}

func parseCheckout(code, name string, args []string) (core.CheckoutRequest, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var items itemFlags
	fs.Var(&items, "item", "ENTRY:QTY, repeatable")
	coupon := fs.String("coupon", "", "coupon code")
	method := fs.String("method", "", "payment method: cash, card, transfer or qr")
	tendered := fs.String("tendered", "", "amount tendered")
	customer := fs.String("customer", "", "customer name")
	phone := fs.String("phone", "", "customer phone")
	if err := fs.Parse(args); err != nil {
		return core.CheckoutRequest{}, fmt.Errorf("%s: %w", name, err)
	}

	req := core.CheckoutRequest{CompanyCode: code, Items: items, CouponCode: *coupon}
	if *customer != "" {
		req.Customer = &core.Customer{Name: *customer, Phone: *phone}
	}
	if *method != "" || *tendered != "" {
		p := &core.Payment{Method: core.PaymentMethod(*method)}
		if p.Method == "" {
			p.Method = core.PaymentCash
		}
		if *tendered != "" {
			amt, err := parseMoney("tendered", *tendered)
			if err != nil {
				return core.CheckoutRequest{}, err
			}
			p.Tendered = amt
		}
		req.Payment = p
	}
	return req, nil
}

func runCapital(ctx context.Context, svc app.ApplicationService, company *core.Company, args []string, out io.Writer) error {
	if len(args) == 0 {
		stmt, err := svc.GetCapital(ctx, company.CompanyCode, 20)
		if err != nil {
			return fmt.Errorf("failed to load capital: %w", err)
		}
		printCapital(out, company, stmt)
		return nil
	}
	if len(args) < 2 {
		return errors.New("usage: app capital deposit|withdraw|expense AMOUNT [NOTE]")
	}
	amount, err := parseMoney("amount", args[1])
	if err != nil {
		return err
	}
	w, err := svc.MoveCapital(ctx, app.CapitalMovementRequest{
		CompanyCode: company.CompanyCode,
		Kind:        app.CapitalMovementKind(args[0]),
		Amount:      amount,
		Note:        strings.Join(args[2:], " "),
	})
	if err != nil {
		return fmt.Errorf("capital %s failed: %w", args[0], err)
	}
	fmt.Fprintf(out, "Capital balance: %s %s\n", core.FormatMoney(w.Balance), company.BaseCurrency)
	return nil
}

func runReport(ctx context.Context, svc app.ApplicationService, company *core.Company, args []string, out io.Writer) error {
	sub := "sales"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fromS := fs.String("from", "", "start date YYYY-MM-DD")
	toS := fs.String("to", "", "end date YYYY-MM-DD (inclusive)")
	threshold := fs.Int("threshold", 5, "low-stock threshold")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	from, err := parseDate("from", *fromS)
	if err != nil {
		return err
	}
	to, err := parseDate("to", *toS)
	if err != nil {
		return err
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	code := company.CompanyCode
	switch sub {
	case "sales":
		summary, err := svc.SalesSummary(ctx, code, from, to)
		if err != nil {
			return fmt.Errorf("failed to build sales summary: %w", err)
		}
		printSales(out, company, summary)
	case "low-stock":
		entries, err := svc.LowStock(ctx, code, *threshold)
		if err != nil {
			return fmt.Errorf("failed to list low stock: %w", err)
		}
		printLowStock(out, *threshold, entries)
	case "drawings":
		entries, err := svc.DrawingEntries(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to list drawing entries: %w", err)
		}
		printDrawings(out, entries)
	case "dashboard":
		dash, err := svc.Dashboard(ctx, code, from, to, *threshold)
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}
		printSales(out, company, dash.Sales)
		printLowStock(out, *threshold, dash.LowStock)
		printCapital(out, company, dash.Capital)
	default:
		return fmt.Errorf("unknown report: %s (want sales, low-stock, drawings or dashboard)", sub)
	}
	return nil
}

func parseMoney(field, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	return d, nil
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: want YYYY-MM-DD", field, v)
	}
	return t, nil
}
