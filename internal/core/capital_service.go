package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CapitalService guards a company's operating capital. Every outgoing
// movement is checked against the balance inside the same unit of work.
type CapitalService interface {
	Balance(ctx context.Context, companyCode string) (*Wallet, error)
	Deposit(ctx context.Context, companyCode string, amount decimal.Decimal, note string) (*Wallet, error)
	Withdraw(ctx context.Context, companyCode string, amount decimal.Decimal, note string) (*Wallet, error)
	// RecordExpense spends capital on an operating expense.
	RecordExpense(ctx context.Context, companyCode string, amount decimal.Decimal, description string) (*Wallet, error)
	Entries(ctx context.Context, companyCode string, limit int) ([]WalletEntry, error)
}

type capitalService struct {
	store Store
}

func NewCapitalService(store Store) CapitalService {
	return &capitalService{store: store}
}

func (s *capitalService) Balance(ctx context.Context, companyCode string) (*Wallet, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	w, err := s.store.Wallets().Get(ctx, company.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("capital wallet for %s not found: %w", companyCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load capital wallet: %w", err)
	}
	return w, nil
}

func (s *capitalService) move(ctx context.Context, companyCode string, dir Direction, amount decimal.Decimal, reason, note string) (*Wallet, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount", "amount must be positive")
	}
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	if note = strings.TrimSpace(note); note != "" {
		reason = reason + ": " + note
	}
	w, err := s.store.Wallets().Apply(ctx, &WalletEntry{
		CompanyID: company.ID,
		Direction: dir,
		Amount:    amount,
		Reason:    reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record %s of %s: %w", reason, FormatMoney(amount), err)
	}
	return w, nil
}

func (s *capitalService) Deposit(ctx context.Context, companyCode string, amount decimal.Decimal, note string) (*Wallet, error) {
	return s.move(ctx, companyCode, DirectionIn, amount, ReasonDeposit, note)
}

func (s *capitalService) Withdraw(ctx context.Context, companyCode string, amount decimal.Decimal, note string) (*Wallet, error) {
	return s.move(ctx, companyCode, DirectionOut, amount, ReasonWithdraw, note)
}

func (s *capitalService) RecordExpense(ctx context.Context, companyCode string, amount decimal.Decimal, description string) (*Wallet, error) {
	if strings.TrimSpace(description) == "" {
		return nil, invalid("description", "expense description is required")
	}
	return s.move(ctx, companyCode, DirectionOut, amount, ReasonExpense, description)
}

func (s *capitalService) Entries(ctx context.Context, companyCode string, limit int) ([]WalletEntry, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Wallets().Entries(ctx, company.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list capital entries: %w", err)
	}
	return entries, nil
}
