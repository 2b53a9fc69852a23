package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"retail-suite/internal/core"
)

type catalogRepo struct{ repos }

const catalogColumns = `id, company_id, kind, sku, name, unit_price, unit_cost, tracks_stock,
	quantity_on_hand, rate, rate_unit, margin, quota_per_period, available, is_active,
	created_at, updated_at`

func scanCatalogEntry(row pgx.Row) (*core.CatalogEntry, error) {
	var e core.CatalogEntry
	if err := row.Scan(&e.ID, &e.CompanyID, &e.Kind, &e.SKU, &e.Name, &e.UnitPrice, &e.UnitCost,
		&e.TracksStock, &e.QuantityOnHand, &e.Rate, &e.RateUnit, &e.Margin, &e.QuotaPerPeriod,
		&e.Available, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r catalogRepo) Create(ctx context.Context, e *core.CatalogEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO catalog_entries (`+catalogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, e.ID, e.CompanyID, string(e.Kind), e.SKU, e.Name, e.UnitPrice, e.UnitCost, e.TracksStock,
		e.QuantityOnHand, e.Rate, string(e.RateUnit), e.Margin, e.QuotaPerPeriod, e.Available, e.IsActive,
		e.CreatedAt, e.UpdatedAt)
	return mapErr(err)
}

func (r catalogRepo) Get(ctx context.Context, companyID, id string) (*core.CatalogEntry, error) {
	e, err := scanCatalogEntry(r.q.QueryRow(ctx,
		"SELECT "+catalogColumns+" FROM catalog_entries WHERE company_id = $1 AND id = $2", companyID, id))
	return e, mapErr(err)
}

func (r catalogRepo) List(ctx context.Context, companyID string, filter core.CatalogFilter) ([]core.CatalogEntry, error) {
	where := []string{"company_id = $1"}
	args := []any{companyID}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}
	if filter.AvailableOnly {
		where = append(where, "available")
	}
	if filter.LowStockAt != nil {
		args = append(args, *filter.LowStockAt)
		where = append(where, fmt.Sprintf("tracks_stock AND quantity_on_hand <= $%d", len(args)))
	}

	rows, err := r.q.Query(ctx, "SELECT "+catalogColumns+" FROM catalog_entries WHERE "+
		strings.Join(where, " AND ")+" ORDER BY kind, name", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog entries: %w", err)
	}
	defer rows.Close()

	var out []core.CatalogEntry
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r catalogRepo) Update(ctx context.Context, e *core.CatalogEntry) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE catalog_entries
		SET sku = $3, name = $4, unit_price = $5, unit_cost = $6, rate = $7, rate_unit = $8,
		    margin = $9, quota_per_period = $10, is_active = $11, updated_at = $12
		WHERE company_id = $1 AND id = $2
	`, e.CompanyID, e.ID, e.SKU, e.Name, e.UnitPrice, e.UnitCost, e.Rate, string(e.RateUnit),
		e.Margin, e.QuotaPerPeriod, e.IsActive, e.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r catalogRepo) Delete(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, "DELETE FROM catalog_entries WHERE company_id = $1 AND id = $2", companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r catalogRepo) AdjustQuantity(ctx context.Context, companyID, id string, delta int) (int, error) {
	var qty int
	err := r.q.QueryRow(ctx, `
		UPDATE catalog_entries
		SET quantity_on_hand = quantity_on_hand + $3, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND quantity_on_hand + $3 >= 0
		RETURNING quantity_on_hand
	`, companyID, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapErr(err)
	}

	// No row updated: either the entry is missing or the guard rejected the change.
	var onHand int
	var name string
	err = r.q.QueryRow(ctx,
		"SELECT quantity_on_hand, name FROM catalog_entries WHERE company_id = $1 AND id = $2",
		companyID, id).Scan(&onHand, &name)
	if err != nil {
		return 0, mapErr(err)
	}
	return 0, fmt.Errorf("%w: %s has %d, need %d", core.ErrInsufficientStock, name, onHand, -delta)
}

func (r catalogRepo) ReserveAsset(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE catalog_entries SET available = FALSE, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND available
	`, companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	ok, err := exists(ctx, r.q, "catalog_entries", companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return core.ErrNotFound
	}
	return fmt.Errorf("%w: asset %s", core.ErrAssetUnavailable, id)
}

func (r catalogRepo) ReleaseAsset(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE catalog_entries SET available = TRUE, updated_at = NOW()
		WHERE company_id = $1 AND id = $2
	`, companyID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
