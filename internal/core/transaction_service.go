package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TransactionService applies status transitions and reversals to transaction records.
type TransactionService interface {
	// Queries
	Get(ctx context.Context, companyCode, ref string) (*Transaction, error)
	List(ctx context.Context, companyCode string, filter TransactionFilter) ([]Transaction, error)

	// Start moves pending → in-progress. For services work orders it computes the revenue split.
	Start(ctx context.Context, companyCode, ref string) (*Transaction, error)
	// Complete moves in-progress → completed. Rental assets become available again.
	Complete(ctx context.Context, companyCode, ref string) (*Transaction, error)
	// Cancel moves a non-terminal transaction to cancelled and reverses it.
	// The returned record is the final state before deletion.
	Cancel(ctx context.Context, companyCode, ref string) (*Transaction, error)
	// Reverse voids a completed transaction with the same reversal as Cancel.
	Reverse(ctx context.Context, companyCode, ref string) (*Transaction, error)
}

type transactionService struct {
	store Store
}

func NewTransactionService(store Store) TransactionService {
	return &transactionService{store: store}
}

// loadTransaction resolves ref as an id first, then as a transaction number.
func loadTransaction(ctx context.Context, r Repos, companyID, ref string) (*Transaction, error) {
	t, err := r.Transactions().Get(ctx, companyID, ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load transaction %s: %w", ref, err)
	}
	t, err = r.Transactions().GetByNumber(ctx, companyID, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("transaction %s not found: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", ref, err)
	}
	return t, nil
}

func (s *transactionService) Get(ctx context.Context, companyCode, ref string) (*Transaction, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	return loadTransaction(ctx, s.store, company.ID, ref)
}

func (s *transactionService) List(ctx context.Context, companyCode string, filter TransactionFilter) ([]Transaction, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	filter.CompanyID = company.ID
	txs, err := s.store.Transactions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// transition runs one status change as a unit of work.
func (s *transactionService) transition(ctx context.Context, companyCode, ref string, apply func(r Repos, t *Transaction, now time.Time) error) (*Transaction, error) {
	var result *Transaction
	err := s.store.InTx(ctx, func(r Repos) error {
		company, err := resolveCompany(ctx, r, companyCode)
		if err != nil {
			return err
		}
		t, err := loadTransaction(ctx, r, company.ID, ref)
		if err != nil {
			return err
		}
		if err := apply(r, t, time.Now().UTC()); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *transactionService) Start(ctx context.Context, companyCode, ref string) (*Transaction, error) {
	return s.transition(ctx, companyCode, ref, func(r Repos, t *Transaction, now time.Time) error {
		return startTransaction(ctx, r, t, now)
	})
}

func (s *transactionService) Complete(ctx context.Context, companyCode, ref string) (*Transaction, error) {
	return s.transition(ctx, companyCode, ref, func(r Repos, t *Transaction, now time.Time) error {
		return completeTransaction(ctx, r, t, now)
	})
}

func (s *transactionService) Cancel(ctx context.Context, companyCode, ref string) (*Transaction, error) {
	return s.transition(ctx, companyCode, ref, func(r Repos, t *Transaction, now time.Time) error {
		if err := Transition(t.Status, StatusCancelled); err != nil {
			return fmt.Errorf("transaction %s: %w", t.Number, err)
		}
		if err := reverseBooking(ctx, r, t); err != nil {
			return err
		}
		t.Status = StatusCancelled
		t.UpdatedAt = now
		return nil
	})
}

func (s *transactionService) Reverse(ctx context.Context, companyCode, ref string) (*Transaction, error) {
	return s.transition(ctx, companyCode, ref, func(r Repos, t *Transaction, now time.Time) error {
		if t.Status != StatusCompleted {
			return fmt.Errorf("transaction %s cannot be reversed: status is %s (must be %s, use cancel instead): %w",
				t.Number, t.Status, StatusCompleted, ErrInvalidTransition)
		}
		if err := reverseBooking(ctx, r, t); err != nil {
			return err
		}
		t.Status = StatusCancelled
		t.UpdatedAt = now
		return nil
	})
}

func startTransaction(ctx context.Context, r Repos, t *Transaction, now time.Time) error {
	if err := Transition(t.Status, StatusInProgress); err != nil {
		return fmt.Errorf("transaction %s: %w", t.Number, err)
	}
	if t.Module == ModuleServices {
		split := SplitWorkOrder(t.Items, t.TotalAmount)
		t.WorkOrder = &split
		t.Profit = split.NetProfit
	}
	t.Status = StatusInProgress
	t.StartedAt = &now
	t.UpdatedAt = now
	if err := r.Transactions().Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.Number, err)
	}
	return nil
}

func completeTransaction(ctx context.Context, r Repos, t *Transaction, now time.Time) error {
	if err := Transition(t.Status, StatusCompleted); err != nil {
		return fmt.Errorf("transaction %s: %w", t.Number, err)
	}
	if t.Rental != nil {
		if err := r.Catalog().ReleaseAsset(ctx, t.CompanyID, t.Rental.AssetID); err != nil {
			return fmt.Errorf("failed to release asset for %s: %w", t.Number, err)
		}
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	if err := r.Transactions().Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.Number, err)
	}
	return nil
}
