package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"retail-suite/internal/core"
)

type subscriptionRepo struct{ repos }

const subscriptionColumns = `id, company_id, plan_id, transaction_id, customer, months, quota_kg, used_kg,
	status, starts_at, ends_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*core.Subscription, error) {
	var s core.Subscription
	if err := row.Scan(&s.ID, &s.CompanyID, &s.PlanID, &s.TransactionID, &s.Customer, &s.Months,
		&s.QuotaKg, &s.UsedKg, &s.Status, &s.StartsAt, &s.EndsAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r subscriptionRepo) Create(ctx context.Context, s *core.Subscription) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, s.ID, s.CompanyID, s.PlanID, s.TransactionID, s.Customer, s.Months, s.QuotaKg, s.UsedKg,
		string(s.Status), s.StartsAt, s.EndsAt, s.CreatedAt, s.UpdatedAt)
	return mapErr(err)
}

func (r subscriptionRepo) Get(ctx context.Context, companyID, id string) (*core.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE company_id = $1 AND id = $2", companyID, id))
	return s, mapErr(err)
}

func (r subscriptionRepo) List(ctx context.Context, companyID string, status core.SubscriptionStatus) ([]core.Subscription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, companyID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r subscriptionRepo) SetStatus(ctx context.Context, companyID, id string, status core.SubscriptionStatus) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE subscriptions SET status = $3, updated_at = NOW() WHERE company_id = $1 AND id = $2",
		companyID, id, string(status))
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r subscriptionRepo) AddUsage(ctx context.Context, companyID, id string, kg decimal.Decimal) (*core.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, `
		UPDATE subscriptions SET used_kg = used_kg + $3, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND status = 'active' AND used_kg + $3 <= quota_kg
		RETURNING `+subscriptionColumns, companyID, id, kg))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapErr(err)
	}

	current, err := r.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if current.Status != core.SubscriptionActive {
		return nil, fmt.Errorf("%w: status is %s", core.ErrSubscriptionClosed, current.Status)
	}
	return nil, fmt.Errorf("%w: %s kg remaining", core.ErrQuotaExceeded, current.RemainingKg().String())
}

func (r subscriptionRepo) ExpireEnded(ctx context.Context, t time.Time) (int, error) {
	tag, err := r.q.Exec(ctx,
		"UPDATE subscriptions SET status = 'expired', updated_at = $1 WHERE status = 'active' AND ends_at <= $1", t)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
