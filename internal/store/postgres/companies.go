package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"retail-suite/internal/core"
)

// ── Companies ────────────────────────────────────────────────────────────────

type companyRepo struct{ repos }

const companyColumns = `id, company_code, name, owner_name, email, phone, address,
	base_currency, modules, drawing_threshold, created_at, updated_at`

func moduleStrings(mods []core.ModuleTag) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = string(m)
	}
	return out
}

func scanCompany(row pgx.Row) (*core.Company, error) {
	var c core.Company
	var modules []string
	if err := row.Scan(&c.ID, &c.CompanyCode, &c.Name, &c.OwnerName, &c.Email, &c.Phone, &c.Address,
		&c.BaseCurrency, &modules, &c.DrawingThreshold, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	for _, m := range modules {
		c.Modules = append(c.Modules, core.ModuleTag(m))
	}
	return &c, nil
}

func (r companyRepo) Create(ctx context.Context, c *core.Company) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.CompanyCode, c.Name, c.OwnerName, c.Email, c.Phone, c.Address,
		c.BaseCurrency, moduleStrings(c.Modules), c.DrawingThreshold, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

func (r companyRepo) Get(ctx context.Context, id string) (*core.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = $1", id))
	return c, mapErr(err)
}

func (r companyRepo) GetByCode(ctx context.Context, code string) (*core.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE upper(company_code) = upper($1)", code))
	return c, mapErr(err)
}

func (r companyRepo) List(ctx context.Context) ([]core.Company, error) {
	rows, err := r.q.Query(ctx, "SELECT "+companyColumns+" FROM companies ORDER BY company_code")
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r companyRepo) Update(ctx context.Context, c *core.Company) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE companies
		SET name = $2, owner_name = $3, email = $4, phone = $5, address = $6,
		    base_currency = $7, modules = $8, drawing_threshold = $9, updated_at = $10
		WHERE id = $1
	`, c.ID, c.Name, c.OwnerName, c.Email, c.Phone, c.Address,
		c.BaseCurrency, moduleStrings(c.Modules), c.DrawingThreshold, c.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRepo struct{ repos }

const userColumns = "id, company_id, username, email, password_hash, role, is_active, created_at"

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r userRepo) Create(ctx context.Context, u *core.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.CompanyID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedAt)
	return mapErr(err)
}

func (r userRepo) Get(ctx context.Context, id string) (*core.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	return u, mapErr(err)
}

func (r userRepo) GetByUsername(ctx context.Context, companyID, username string) (*core.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE company_id = $1 AND lower(username) = lower($2)",
		companyID, username))
	return u, mapErr(err)
}

func (r userRepo) List(ctx context.Context, companyID string) ([]core.User, error) {
	rows, err := r.q.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE company_id = $1 ORDER BY username", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ── Sequences ────────────────────────────────────────────────────────────────

type sequenceRepo struct{ repos }

// Next is gapless: the row is created or incremented by the same statement and
// stays locked until the surrounding transaction ends.
func (r sequenceRepo) Next(ctx context.Context, companyID, prefix string, year int) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO number_sequences (company_id, prefix, year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, prefix, year)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, companyID, prefix, year).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return n, nil
}
