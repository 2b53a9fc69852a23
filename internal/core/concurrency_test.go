package core_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"retail-suite/internal/core"
)

func TestConcurrentCheckout_NeverOversells(t *testing.T) {
	f := newFixture(t, "0", "0")
	a := f.product(t, "HOT", "2.00", "1.00", 10)

	const buyers = 30
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkout.Checkout(f.ctx, core.CheckoutRequest{
				CompanyCode: f.code(),
				Items:       []core.ItemRequest{{EntryID: a.ID, Quantity: 1}},
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, core.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 10 || rejected.Load() != buyers-10 {
		t.Fatalf("succeeded=%d rejected=%d, want 10 and %d", ok.Load(), rejected.Load(), buyers-10)
	}
	if got := f.onHand(t, a.ID); got != 0 {
		t.Errorf("on hand = %d, want 0", got)
	}
	assertMoney(t, "balance", f.balance(t), "20.00")
}

func TestConcurrentCheckout_CouponRedeemedOnce(t *testing.T) {
	f := newFixture(t, "0", "0")
	a := f.product(t, "A", "10.00", "1.00", 100)
	if _, err := f.coupons.CreateCoupon(f.ctx, f.code(), "RACE", dec("3"), nil); err != nil {
		t.Fatalf("CreateCoupon failed: %v", err)
	}

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkout.Checkout(f.ctx, core.CheckoutRequest{
				CompanyCode: f.code(),
				Items:       []core.ItemRequest{{EntryID: a.ID, Quantity: 1}},
				CouponCode:  "RACE",
			})
			if err == nil {
				ok.Add(1)
			} else if !errors.Is(err, core.ErrCouponInvalid) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Fatalf("coupon redeemed %d times, want 1", ok.Load())
	}
	if got := f.onHand(t, a.ID); got != 99 {
		t.Errorf("on hand = %d, want 99", got)
	}
}

func TestConcurrentWithdrawals_NeverOverdraw(t *testing.T) {
	f := newFixture(t, "100", "0")

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.capital.Withdraw(f.ctx, f.code(), dec("10"), "owner draw")
			if err == nil {
				ok.Add(1)
			} else if !errors.Is(err, core.ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 10 {
		t.Fatalf("withdrawals succeeded %d times, want 10", ok.Load())
	}
	assertMoney(t, "balance", f.balance(t), "0.00")
}
