package pgsql

import (
	"context"
	"errors"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txCtxKey struct{}

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// db returns the transaction stored in ctx by WithinTx, or the pool.
func (r *BaseRepository) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.Pool
}

// inTx reports whether ctx carries a transaction.
func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return ok
}

// PgxTxRunner implements portsrepo.TxRunner on a pgx pool.
type PgxTxRunner struct {
	BaseRepository
}

func newPgxTxRunner(pool *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TxRunner = (*PgxTxRunner)(nil)

// WithinTx runs fn in a transaction. A nested call joins the outer transaction.
func (r *PgxTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	// Rollback after a successful commit is a no-op returning pgx.ErrTxClosed.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// uniqueViolation returns the constraint name of a 23505 error.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// foreignKeyViolation returns the constraint name of a 23503 error.
func foreignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// conflictFields maps unique constraints to the API field they protect.
var conflictFields = map[string]string{
	"uq_users_username":         "username",
	"uq_users_email":            "email",
	"uq_entities_kind_vat":      "vatNumber",
	"uq_entities_kind_tax_code": "taxCode",
	"uq_entities_kind_email":    "email",
	"uq_api_tokens_hash":        "token",
}

// translateWriteError turns constraint violations into app errors.
func translateWriteError(err error, msg string) error {
	if constraint, ok := uniqueViolation(err); ok {
		if field, known := conflictFields[constraint]; known {
			return apperrors.NewFieldConflictError(field)
		}
		return apperrors.NewConflictError(msg + ": duplicate value")
	}
	if constraint, ok := foreignKeyViolation(err); ok {
		return apperrors.NewValidationFailedError("referenced record does not exist (" + constraint + ")")
	}
	return apperrors.NewAppError(500, msg, err)
}
