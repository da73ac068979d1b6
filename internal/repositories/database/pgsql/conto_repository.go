package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxContoRepository struct {
	BaseRepository
}

func newPgxContoRepository(pool *pgxpool.Pool) portsrepo.ContoRepository {
	return &PgxContoRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ContoRepository = (*PgxContoRepository)(nil)

const contoColumns = `
	entry_id, user_id, company_id, direction, amount, description, category, source,
	reference_id, entry_date, created_at, created_by, last_updated_at, last_updated_by`

// SaveEntries inserts all entries with one batch; callers group a split inside a transaction.
func (r *PgxContoRepository) SaveEntries(ctx context.Context, entries []domain.ContoEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO conto_entries (` + contoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`

	batch := &pgx.Batch{}
	for _, e := range entries {
		m := mapping.ToModelContoEntry(e)
		batch.Queue(query,
			m.EntryID, m.UserID, m.CompanyID, m.Direction, m.Amount, m.Description, m.Category, m.Source,
			m.ReferenceID, m.EntryDate, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}

	tx, err := r.db(ctx).Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return translateWriteError(err, "failed to save conto entry")
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close conto batch", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit conto entries", err)
	}
	return nil
}

func (r *PgxContoRepository) FindEntries(ctx context.Context, filter domain.ContoFilter) ([]domain.ContoEntry, int, error) {
	page := filter.Page.Normalize()
	conds := []string{"TRUE"}
	args := []any{}
	if !filter.Global {
		args = append(args, filter.UserIDs)
		conds = append(conds, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		conds = append(conds, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM conto_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count conto entries", err)
	}

	args = append(args, page.Limit, page.Offset)
	rows, err := r.db(ctx).Query(ctx,
		fmt.Sprintf("SELECT %s FROM conto_entries%s ORDER BY entry_date DESC, created_at DESC LIMIT $%d OFFSET $%d",
			contoColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to query conto entries", err)
	}
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ContoEntry])
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to collect conto entries", err)
	}
	return mapping.ToDomainContoEntrySlice(modelEntries), total, nil
}

func (r *PgxContoRepository) Balance(ctx context.Context, userID *string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount ELSE amount END), 0)
		FROM conto_entries WHERE user_id IS NOT DISTINCT FROM $1::uuid`
	var balance decimal.Decimal
	if err := r.db(ctx).QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to compute balance", err)
	}
	return balance, nil
}

func (r *PgxContoRepository) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM conto_entries WHERE reference_id = $1)", referenceID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check conto reference", err)
	}
	return exists, nil
}
