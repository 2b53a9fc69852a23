package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"retail-suite/internal/core"
)

// ── Wallets ──────────────────────────────────────────────────────────────────

type walletRepo struct{ repos }

func (r walletRepo) Create(ctx context.Context, w *core.Wallet) error {
	_, err := r.q.Exec(ctx, "INSERT INTO wallets (company_id, balance, updated_at) VALUES ($1, $2, $3)",
		w.CompanyID, w.Balance, w.UpdatedAt)
	return mapErr(err)
}

func (r walletRepo) Get(ctx context.Context, companyID string) (*core.Wallet, error) {
	var w core.Wallet
	err := r.q.QueryRow(ctx, "SELECT company_id, balance, updated_at FROM wallets WHERE company_id = $1",
		companyID).Scan(&w.CompanyID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &w, nil
}

func (r walletRepo) Apply(ctx context.Context, e *core.WalletEntry) (*core.Wallet, error) {
	var w core.Wallet
	err := r.q.QueryRow(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = clock_timestamp()
		WHERE company_id = $1 AND balance + $2 >= 0
		RETURNING company_id, balance, updated_at
	`, e.CompanyID, e.Signed()).Scan(&w.CompanyID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, mapErr(err)
		}
		current, err := r.Get(ctx, e.CompanyID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: have %s, need %s", core.ErrInsufficientBalance,
			core.FormatMoney(current.Balance), core.FormatMoney(e.Amount))
	}

	e.ID = uuid.NewString()
	e.BalanceAfter = w.Balance
	e.CreatedAt = w.UpdatedAt
	_, err = r.q.Exec(ctx, `
		INSERT INTO wallet_entries (id, company_id, direction, amount, reason, ref_id, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.CompanyID, string(e.Direction), e.Amount, e.Reason, e.RefID, e.BalanceAfter, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record wallet entry: %w", mapErr(err))
	}
	return &w, nil
}

func (r walletRepo) Entries(ctx context.Context, companyID string, limit int) ([]core.WalletEntry, error) {
	query := `
		SELECT id, company_id, direction, amount, reason, ref_id, balance_after, created_at
		FROM wallet_entries
		WHERE company_id = $1
		ORDER BY created_at DESC`
	args := []any{companyID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet entries: %w", err)
	}
	defer rows.Close()

	var out []core.WalletEntry
	for rows.Next() {
		var e core.WalletEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Direction, &e.Amount, &e.Reason, &e.RefID,
			&e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ── Coupons ──────────────────────────────────────────────────────────────────

type couponRepo struct{ repos }

const couponColumns = "id, company_id, code, amount, status, expires_at, used_by, used_at, created_at"

func scanCoupon(row pgx.Row) (*core.Coupon, error) {
	var c core.Coupon
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Amount, &c.Status, &c.ExpiresAt,
		&c.UsedBy, &c.UsedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r couponRepo) Create(ctx context.Context, c *core.Coupon) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.CompanyID, c.Code, c.Amount, string(c.Status), c.ExpiresAt, c.UsedBy, c.UsedAt, c.CreatedAt)
	return mapErr(err)
}

func (r couponRepo) FindByCode(ctx context.Context, companyID, code string, status core.CouponStatus) (*core.Coupon, error) {
	c, err := scanCoupon(r.q.QueryRow(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE company_id = $1 AND upper(code) = upper($2) AND status = $3",
		companyID, code, string(status)))
	return c, mapErr(err)
}

func (r couponRepo) List(ctx context.Context, companyID string) ([]core.Coupon, error) {
	rows, err := r.q.Query(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE company_id = $1 ORDER BY code", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var out []core.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r couponRepo) Delete(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, "DELETE FROM coupons WHERE company_id = $1 AND id = $2", companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r couponRepo) MarkUsed(ctx context.Context, companyID, code, transactionID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE coupons SET status = 'used', used_by = $3, used_at = $4
		WHERE company_id = $1 AND upper(code) = upper($2) AND status = 'unused'
	`, companyID, code, transactionID, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", core.ErrCouponInvalid, code)
	}
	return nil
}

func (r couponRepo) MarkUnused(ctx context.Context, companyID, code string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE coupons SET status = 'unused', used_by = '', used_at = NULL
		WHERE company_id = $1 AND upper(code) = upper($2) AND status = 'used'
	`, companyID, code)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		var found bool
		if err := r.q.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM coupons WHERE company_id = $1 AND upper(code) = upper($2))",
			companyID, code).Scan(&found); err != nil {
			return mapErr(err)
		}
		if !found {
			return core.ErrNotFound
		}
	}
	return nil
}

func (r couponRepo) ExpireBefore(ctx context.Context, t time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE coupons SET status = 'expired'
		WHERE status = 'unused' AND expires_at IS NOT NULL AND expires_at <= $1
	`, t)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

// ── Drawing entries ──────────────────────────────────────────────────────────

type drawingRepo struct{ repos }

func (r drawingRepo) Create(ctx context.Context, d *core.DrawingEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO drawing_entries (id, company_id, transaction_id, customer_name, customer_phone, tickets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.CompanyID, d.TransactionID, d.CustomerName, d.CustomerPhone, d.Tickets, d.CreatedAt)
	return mapErr(err)
}

func (r drawingRepo) List(ctx context.Context, companyID string) ([]core.DrawingEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, transaction_id, customer_name, customer_phone, tickets, created_at
		FROM drawing_entries
		WHERE company_id = $1
		ORDER BY created_at
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drawing entries: %w", err)
	}
	defer rows.Close()

	var out []core.DrawingEntry
	for rows.Next() {
		var d core.DrawingEntry
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.TransactionID, &d.CustomerName, &d.CustomerPhone,
			&d.Tickets, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan drawing entry: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r drawingRepo) DeleteByTransaction(ctx context.Context, companyID, transactionID string) (int, error) {
	tag, err := r.q.Exec(ctx, "DELETE FROM drawing_entries WHERE company_id = $1 AND transaction_id = $2",
		companyID, transactionID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
