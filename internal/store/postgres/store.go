// Package postgres implements core.Store on PostgreSQL using pgx.
//
// Every conditional mutation (stock, assets, coupons, capital, quotas) is a
// single guarded UPDATE, so correctness does not depend on the caller holding
// row locks. Inside InTx, transaction reads additionally take FOR UPDATE.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"retail-suite/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared repository code.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is a core.Store backed by a pgx connection pool.
type Store struct {
	repos
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{repos: repos{q: pool}, pool: pool}
}

// EnsureSchema creates any missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Schema returns the DDL applied by EnsureSchema.
func Schema() string {
	return schemaSQL
}

func (s *Store) InTx(ctx context.Context, fn func(r core.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(repos{q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type repos struct {
	q    querier
	inTx bool
}

func (r repos) Companies() core.CompanyRepository { return companyRepo{r} }
func (r repos) Users() core.UserRepository { return userRepo{r} }
func (r repos) Catalog() core.CatalogRepository { return catalogRepo{r} }
func (r repos) Transactions() core.TransactionRepository { return transactionRepo{r} }
func (r repos) Coupons() core.CouponRepository { return couponRepo{r} }
func (r repos) Drawings() core.DrawingRepository { return drawingRepo{r} }
func (r repos) Wallets() core.WalletRepository { return walletRepo{r} }
func (r repos) Subscriptions() core.SubscriptionRepository { return subscriptionRepo{r} }
func (r repos) Sequences() core.SequenceRepository { return sequenceRepo{r} }

// forUpdate returns the row-lock suffix for reads made inside a unit of work.
func (r repos) forUpdate() string {
	if r.inTx {
		return " FOR UPDATE"
	}
	return ""
}

// mapErr translates driver errors into the core sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, core.ErrDuplicate)
		case "23503":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, core.ErrNotFound)
		}
	}
	return err
}

// exists reports whether table has a row with the given company and id.
func exists(ctx context.Context, q querier, table, companyID, id string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE company_id = $1 AND id = $2)", table),
		companyID, id).Scan(&ok)
	return ok, err
}
