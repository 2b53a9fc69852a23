// Package memory is an in-process implementation of core.Store.
//
// A unit of work runs against a private copy of the data while holding the
// store lock, and the copy replaces the live data only when the unit
// succeeds. Units are therefore serialized and atomic, which makes the store
// suitable for tests and single-process demos.
package memory

import (
	"context"
	"sync"
	"time"

	"retail-suite/internal/core"
)

type state struct {
	companies     map[string]core.Company
	users         map[string]core.User
	catalog       map[string]core.CatalogEntry
	transactions  map[string]core.Transaction
	coupons       map[string]core.Coupon
	drawings      map[string]core.DrawingEntry
	wallets       map[string]core.Wallet
	walletEntries []core.WalletEntry
	subscriptions map[string]core.Subscription
	sequences     map[string]int64
}

func newState() *state {
	return &state{
		companies:     make(map[string]core.Company),
		users:         make(map[string]core.User),
		catalog:       make(map[string]core.CatalogEntry),
		transactions:  make(map[string]core.Transaction),
		coupons:       make(map[string]core.Coupon),
		drawings:      make(map[string]core.DrawingEntry),
		wallets:       make(map[string]core.Wallet),
		subscriptions: make(map[string]core.Subscription),
		sequences:     make(map[string]int64),
	}
}

// clone copies the maps. Stored values are never mutated in place, so the
// values themselves can be shared between the live state and a working copy.
func (s *state) clone() *state {
	return &state{
		companies:     cloneMap(s.companies),
		users:         cloneMap(s.users),
		catalog:       cloneMap(s.catalog),
		transactions:  cloneMap(s.transactions),
		coupons:       cloneMap(s.coupons),
		drawings:      cloneMap(s.drawings),
		wallets:       cloneMap(s.wallets),
		walletEntries: append([]core.WalletEntry(nil), s.walletEntries...),
		subscriptions: cloneMap(s.subscriptions),
		sequences:     cloneMap(s.sequences),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is a thread-safe in-memory core.Store.
type Store struct {
	repos
	mu   sync.Mutex
	data *state
}

// New returns an empty store.
func New() *Store {
	s := &Store{data: newState()}
	s.repos = repos{v: view{store: s}}
	return s
}

// InTx runs fn against a working copy and publishes it only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(r core.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(repos{v: view{st: work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// view gives repositories access to either the live state (taking the lock
// per call) or a unit of work's private copy (already under the lock).
type view struct {
	store *Store
	st    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

type repos struct {
	v view
}

func (r repos) Companies() core.CompanyRepository { return companyRepo{r.v} }
func (r repos) Users() core.UserRepository { return userRepo{r.v} }
func (r repos) Catalog() core.CatalogRepository { return catalogRepo{r.v} }
func (r repos) Transactions() core.TransactionRepository { return transactionRepo{r.v} }
func (r repos) Coupons() core.CouponRepository { return couponRepo{r.v} }
func (r repos) Drawings() core.DrawingRepository { return drawingRepo{r.v} }
func (r repos) Wallets() core.WalletRepository { return walletRepo{r.v} }
func (r repos) Subscriptions() core.SubscriptionRepository { return subscriptionRepo{r.v} }
func (r repos) Sequences() core.SequenceRepository { return sequenceRepo{r.v} }

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
