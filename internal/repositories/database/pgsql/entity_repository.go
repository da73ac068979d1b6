package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxEntityRepository stores every owned entity kind in one table keyed by kind.
type PgxEntityRepository struct {
	BaseRepository
}

func newPgxEntityRepository(pool *pgxpool.Pool) portsrepo.EntityRepositoryFacade {
	return &PgxEntityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntityRepositoryFacade = (*PgxEntityRepository)(nil)

const entityColumns = `
	entity_id, kind, owner_id, name, vat_number, tax_code, email, phone,
	address, city, province, postal_code, company_id, attributes, attachments,
	approval_status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxEntityRepository) getEntities(ctx context.Context, filterQuery string, args ...any) ([]domain.Entity, error) {
	rows, err := r.db(ctx).Query(ctx, "SELECT "+entityColumns+" FROM entities "+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entities", err)
	}
	modelEntities, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Entity])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect entity rows", err)
	}
	entities, err := mapping.ToDomainEntitySlice(modelEntities)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode entity rows", err)
	}
	return entities, nil
}

func (r *PgxEntityRepository) getEntity(ctx context.Context, kind domain.EntityKind, filterQuery string, args ...any) (*domain.Entity, error) {
	entities, err := r.getEntities(ctx, filterQuery, args...)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, apperrors.NewNotFoundError(string(kind))
	}
	return &entities[0], nil
}

func (r *PgxEntityRepository) FindEntityByID(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	return r.getEntity(ctx, kind, "WHERE kind = $1 AND entity_id = $2", string(kind), entityID)
}

func (r *PgxEntityRepository) FindEntityByVATNumber(ctx context.Context, kind domain.EntityKind, vatNumber string) (*domain.Entity, error) {
	return r.getEntity(ctx, kind, "WHERE kind = $1 AND vat_number = $2", string(kind), vatNumber)
}

func (r *PgxEntityRepository) LockEntity(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	return r.getEntity(ctx, kind, "WHERE kind = $1 AND entity_id = $2 FOR UPDATE", string(kind), entityID)
}

func (r *PgxEntityRepository) FindEntities(ctx context.Context, filter domain.EntityFilter) ([]domain.Entity, int, error) {
	page := filter.Page.Normalize()
	args := []any{string(filter.Kind)}
	conds := []string{"kind = $1"}
	if !filter.Global {
		args = append(args, filter.OwnerIDs)
		conds = append(conds, fmt.Sprintf("owner_id = ANY($%d)", len(args)))
	}
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		conds = append(conds, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR vat_number ILIKE $%d OR tax_code ILIKE $%d OR email ILIKE $%d)", n, n, n, n))
	}
	if filter.Status != nil {
		if *filter.Status == domain.ApprovalPending {
			conds = append(conds, "(approval_status = 'pending' OR approval_status IS NULL)")
		} else {
			args = append(args, string(*filter.Status))
			conds = append(conds, fmt.Sprintf("approval_status = $%d", len(args)))
		}
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM entities "+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count entities", err)
	}

	args = append(args, page.Limit, page.Offset)
	entities, err := r.getEntities(ctx,
		fmt.Sprintf("%s ORDER BY created_at DESC, entity_id LIMIT $%d OFFSET $%d", where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// FindPendingEntities matches rows that are not approved, which covers pending,
// rejected and legacy rows whose approval_status was never set.
func (r *PgxEntityRepository) FindPendingEntities(ctx context.Context, kinds []domain.EntityKind) ([]domain.Entity, error) {
	if len(kinds) == 0 {
		return []domain.Entity{}, nil
	}
	raw := make([]string, len(kinds))
	for i, k := range kinds {
		raw[i] = string(k)
	}
	return r.getEntities(ctx,
		"WHERE kind = ANY($1) AND approval_status IS DISTINCT FROM 'approved' ORDER BY created_at, entity_id",
		raw,
	)
}

func (r *PgxEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	m, err := mapping.ToModelEntity(entity)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode entity", err)
	}
	query := `
		INSERT INTO entities (
			entity_id, kind, owner_id, name, vat_number, tax_code, email, phone,
			address, city, province, postal_code, company_id, attributes, attachments,
			approval_status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25);
	`
	_, err = r.db(ctx).Exec(ctx, query,
		m.EntityID, m.Kind, m.OwnerID, m.Name, m.VATNumber, m.TaxCode, m.Email, m.Phone,
		m.Address, m.City, m.Province, m.PostalCode, m.CompanyID, m.Attributes, m.Attachments,
		m.ApprovalStatus, m.ApprovedBy, m.ApprovedAt, m.RejectedBy, m.RejectedAt, m.RejectionReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return translateWriteError(err, "failed to save "+m.Kind)
	}
	return nil
}

func (r *PgxEntityRepository) UpdateEntity(ctx context.Context, entity domain.Entity) error {
	m, err := mapping.ToModelEntity(entity)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode entity", err)
	}
	query := `
		UPDATE entities
		SET name = $1, vat_number = $2, tax_code = $3, email = $4, phone = $5,
			address = $6, city = $7, province = $8, postal_code = $9, company_id = $10,
			attributes = $11, last_updated_at = $12, last_updated_by = $13
		WHERE kind = $14 AND entity_id = $15;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query,
		m.Name, m.VATNumber, m.TaxCode, m.Email, m.Phone,
		m.Address, m.City, m.Province, m.PostalCode, m.CompanyID,
		m.Attributes, m.LastUpdatedAt, m.LastUpdatedBy,
		m.Kind, m.EntityID,
	)
	if err != nil {
		return translateWriteError(err, "failed to update "+m.Kind)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(m.Kind)
	}
	return nil
}

func (r *PgxEntityRepository) UpdateEntityApproval(ctx context.Context, kind domain.EntityKind, entityID string, expected *domain.ApprovalStatus, state domain.ApprovalState, updatedBy string, at time.Time) error {
	cols := mapping.ToModelApproval(state)
	query := `
		UPDATE entities
		SET approval_status = $1, approved_by = $2, approved_at = $3,
			rejected_by = $4, rejected_at = $5, rejection_reason = $6,
			last_updated_at = $7, last_updated_by = $8
		WHERE kind = $9 AND entity_id = $10
			AND approval_status IS NOT DISTINCT FROM $11::text;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query,
		cols.ApprovalStatus, cols.ApprovedBy, cols.ApprovedAt,
		cols.RejectedBy, cols.RejectedAt, cols.RejectionReason,
		at, updatedBy, string(kind), entityID, statusParam(expected),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update approval of "+string(kind), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("approval state of " + string(kind) + " changed concurrently")
	}
	return nil
}

func (r *PgxEntityRepository) AppendEntityAttachments(ctx context.Context, kind domain.EntityKind, entityID string, attachments []domain.Attachment, updatedBy string, at time.Time) error {
	if len(attachments) == 0 {
		return nil
	}
	payload, err := json.Marshal(attachments)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode attachments", err)
	}
	query := `
		UPDATE entities
		SET attachments = COALESCE(attachments, '[]'::jsonb) || $1::jsonb,
			last_updated_at = $2, last_updated_by = $3
		WHERE kind = $4 AND entity_id = $5;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query, payload, at, updatedBy, string(kind), entityID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to append attachments", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(string(kind))
	}
	return nil
}

func (r *PgxEntityRepository) DeleteEntity(ctx context.Context, kind domain.EntityKind, entityID string) error {
	cmdTag, err := r.db(ctx).Exec(ctx, "DELETE FROM entities WHERE kind = $1 AND entity_id = $2", string(kind), entityID)
	if err != nil {
		return translateWriteError(err, "failed to delete "+string(kind))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(string(kind))
	}
	return nil
}
