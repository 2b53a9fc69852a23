package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"retail-suite/internal/core"
)

type transactionRepo struct{ repos }

const transactionColumns = `id, company_id, number, module, status, subtotal, discount, total_amount,
	profit, coupon_code, customer, payment, rental, work_order, subscription_id, notes,
	created_at, updated_at, started_at, completed_at`

func scanTransaction(row pgx.Row) (*core.Transaction, error) {
	var t core.Transaction
	if err := row.Scan(&t.ID, &t.CompanyID, &t.Number, &t.Module, &t.Status, &t.Subtotal, &t.Discount,
		&t.TotalAmount, &t.Profit, &t.CouponCode, &t.Customer, &t.Payment, &t.Rental, &t.WorkOrder,
		&t.SubscriptionID, &t.Notes, &t.CreatedAt, &t.UpdatedAt, &t.StartedAt, &t.CompletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r transactionRepo) Create(ctx context.Context, t *core.Transaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, t.ID, t.CompanyID, t.Number, string(t.Module), string(t.Status), t.Subtotal, t.Discount,
		t.TotalAmount, t.Profit, t.CouponCode, t.Customer, t.Payment, t.Rental, t.WorkOrder,
		t.SubscriptionID, t.Notes, t.CreatedAt, t.UpdatedAt, t.StartedAt, t.CompletedAt)
	if err != nil {
		return mapErr(err)
	}

	batch := &pgx.Batch{}
	for i, item := range t.Items {
		batch.Queue(`
			INSERT INTO transaction_items
			    (transaction_id, line_number, source_id, name, source, unit_price, unit_cost, quantity, consumes_stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, t.ID, i+1, item.SourceID, item.Name, string(item.Source), item.UnitPrice, item.UnitCost,
			item.Quantity, item.ConsumesStock)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range t.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert transaction item: %w", mapErr(err))
		}
	}
	return nil
}

func (r transactionRepo) loadItems(ctx context.Context, t *core.Transaction) error {
	rows, err := r.q.Query(ctx, `
		SELECT source_id, name, source, unit_price, unit_cost, quantity, consumes_stock
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY line_number
	`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	t.Items = nil
	for rows.Next() {
		var item core.LineItem
		if err := rows.Scan(&item.SourceID, &item.Name, &item.Source, &item.UnitPrice, &item.UnitCost,
			&item.Quantity, &item.ConsumesStock); err != nil {
			return fmt.Errorf("failed to scan transaction item: %w", err)
		}
		t.Items = append(t.Items, item)
	}
	return rows.Err()
}

func (r transactionRepo) getOne(ctx context.Context, where string, args ...any) (*core.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE "+where+r.forUpdate(), args...))
	if err != nil {
		return nil, mapErr(err)
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r transactionRepo) Get(ctx context.Context, companyID, id string) (*core.Transaction, error) {
	return r.getOne(ctx, "company_id = $1 AND id = $2", companyID, id)
}

func (r transactionRepo) GetByNumber(ctx context.Context, companyID, number string) (*core.Transaction, error) {
	return r.getOne(ctx, "company_id = $1 AND number = $2", companyID, number)
}

func (r transactionRepo) List(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	where := []string{"TRUE"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.CompanyID != "" {
		add("company_id = $%d", filter.CompanyID)
	}
	if filter.Module != "" {
		add("module = $%d", string(filter.Module))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}
	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Items are loaded after the cursor is closed; a pgx connection runs one query at a time.
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r transactionRepo) Update(ctx context.Context, t *core.Transaction) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transactions
		SET status = $3, subtotal = $4, discount = $5, total_amount = $6, profit = $7,
		    work_order = $8, notes = $9, updated_at = $10, started_at = $11, completed_at = $12
		WHERE company_id = $1 AND id = $2
	`, t.CompanyID, t.ID, string(t.Status), t.Subtotal, t.Discount, t.TotalAmount, t.Profit,
		t.WorkOrder, t.Notes, t.UpdatedAt, t.StartedAt, t.CompletedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r transactionRepo) Delete(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, "DELETE FROM transactions WHERE company_id = $1 AND id = $2", companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
