// Package repl is an interactive register session: items are scanned into a
// cart, paid in one checkout, and every one-shot CLI command is available
// with a leading slash.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"retail-suite/internal/adapters/cli"
	"retail-suite/internal/app"
	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

var errExit = errors.New("exit")

type session struct {
	svc     app.ApplicationService
	company *core.Company
	out     io.Writer
	cart    []core.ItemRequest
	coupon  string
}

// Run starts the interactive loop and returns when the input ends or the user exits.
func Run(ctx context.Context, svc app.ApplicationService, in io.Reader, out io.Writer) error {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		return fmt.Errorf("failed to load company: %w", err)
	}
	s := &session{svc: svc, company: company, out: out}

	fmt.Fprintln(out, "Register")
	fmt.Fprintf(out, "Company: %s (%s)\n", company.CompanyCode, company.Name)
	fmt.Fprintln(out, "Scan items with 'add <entry> [qty]', then 'pay'. Type 'help' for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if err := s.dispatch(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (s *session) dispatch(ctx context.Context, input string) error {
	if strings.HasPrefix(input, "/") {
		return cli.Run(ctx, s.svc, strings.Fields(strings.TrimPrefix(input, "/")), s.out)
	}

	tokens := strings.Fields(input)
	cmd, args := strings.ToLower(tokens[0]), tokens[1:]
	switch cmd {
	case "add", "a":
		if len(args) < 1 {
			return errors.New("usage: add <entry id> [qty]")
		}
		qty := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			qty = n
		}
		s.addItem(args[0], qty)
		return s.showCart(ctx)

	case "remove", "rm":
		if len(args) < 1 {
			return errors.New("usage: remove <entry id>")
		}
		s.removeItem(args[0])
		return s.showCart(ctx)

	case "coupon":
		if len(args) < 1 {
			s.coupon = ""
			return s.showCart(ctx)
		}
		if _, err := s.svc.ValidateCoupon(ctx, s.company.CompanyCode, args[0]); err != nil {
			return err
		}
		s.coupon = args[0]
		return s.showCart(ctx)

	case "cart", "c":
		return s.showCart(ctx)

	case "clear":
		s.cart, s.coupon = nil, ""
		fmt.Fprintln(s.out, "Cart cleared.")
		return nil

	case "pay", "p":
		return s.pay(ctx, args)

	case "help", "h":
		s.help()
		return nil

	case "exit", "quit", "q":
		return errExit

	default:
		return fmt.Errorf("unknown command: %s (type help)", tokens[0])
	}
}

func (s *session) addItem(entryID string, qty int) {
	for i := range s.cart {
		if s.cart[i].EntryID == entryID {
			s.cart[i].Quantity += qty
			return
		}
	}
	s.cart = append(s.cart, core.ItemRequest{EntryID: entryID, Quantity: qty})
}

func (s *session) removeItem(entryID string) {
	kept := s.cart[:0]
	for _, it := range s.cart {
		if it.EntryID != entryID {
			kept = append(kept, it)
		}
	}
	s.cart = kept
}

func (s *session) request() core.CheckoutRequest {
	return core.CheckoutRequest{
		CompanyCode: s.company.CompanyCode,
		Items:       append([]core.ItemRequest(nil), s.cart...),
		CouponCode:  s.coupon,
	}
}

func (s *session) showCart(ctx context.Context) error {
	if len(s.cart) == 0 {
		fmt.Fprintln(s.out, "Cart is empty.")
		return nil
	}
	q, err := s.svc.QuoteCheckout(ctx, s.request())
	if err != nil {
		return err
	}
	printCart(s.out, q, s.coupon)
	return nil
}

func (s *session) pay(ctx context.Context, args []string) error {
	if len(s.cart) == 0 {
		return errors.New("cart is empty")
	}
	req := s.request()
	req.Payment = &core.Payment{Method: core.PaymentCash}
	if len(args) > 0 {
		tendered, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		req.Payment.Tendered = tendered
	}
	if len(args) > 1 {
		req.Payment.Method = core.PaymentMethod(strings.ToLower(args[1]))
	}

	result, err := s.svc.Checkout(ctx, req)
	if err != nil {
		return err
	}
	s.cart, s.coupon = nil, ""
	printReceipt(s.out, result)
	return nil
}

func (s *session) help() {
	fmt.Fprintln(s.out, "Cart:")
	fmt.Fprintln(s.out, "  add <entry> [qty]       add an item to the cart")
	fmt.Fprintln(s.out, "  remove <entry>          drop an item from the cart")
	fmt.Fprintln(s.out, "  coupon [code]           apply (or clear) a coupon")
	fmt.Fprintln(s.out, "  cart                    show the priced cart")
	fmt.Fprintln(s.out, "  pay [tendered] [method] settle the cart (cash by default)")
	fmt.Fprintln(s.out, "  clear                   empty the cart")
	fmt.Fprintln(s.out, "Anything else: /catalog, /report, /capital, /reverse <ref>, ...")
	fmt.Fprintln(s.out, "  exit                    leave the register")
}
