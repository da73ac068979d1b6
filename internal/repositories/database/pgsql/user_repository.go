package pgsql

import (
	"context"
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

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const userColumns = `
	user_id, username, email, password_hash, name, role, managed_by, is_active,
	approval_status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	created_at, created_by, last_updated_at, last_updated_by, deleted_at`

// getUsers runs a select over users with the given filter clause.
func (r *PgxUserRepository) getUsers(ctx context.Context, filterQuery string, args ...any) ([]domain.User, error) {
	rows, err := r.db(ctx).Query(ctx, "SELECT "+userColumns+" FROM users "+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query users", err)
	}
	modelUsers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect user rows", err)
	}
	return mapping.ToDomainUserSlice(modelUsers), nil
}

func (r *PgxUserRepository) getUser(ctx context.Context, filterQuery string, args ...any) (*domain.User, error) {
	users, err := r.getUsers(ctx, filterQuery, args...)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &users[0], nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	query := `
		INSERT INTO users (
			user_id, username, email, password_hash, name, role, managed_by, is_active,
			approval_status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.UserID, m.Username, m.Email, m.PasswordHash, m.Name, m.Role, m.ManagedBy, m.IsActive,
		m.ApprovalStatus, m.ApprovedBy, m.ApprovedAt, m.RejectedBy, m.RejectedAt, m.RejectionReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return translateWriteError(err, "failed to save user")
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getUser(ctx, "WHERE user_id = $1 AND deleted_at IS NULL", userID)
}

func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "WHERE lower(username) = lower($1) AND deleted_at IS NULL", username)
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "WHERE lower(email) = lower($1) AND deleted_at IS NULL", email)
}

func (r *PgxUserRepository) FindUserIDsManagedBy(ctx context.Context, managerIDs []string) ([]string, error) {
	if len(managerIDs) == 0 {
		return []string{}, nil
	}
	rows, err := r.db(ctx).Query(ctx,
		"SELECT user_id FROM users WHERE managed_by = ANY($1) AND deleted_at IS NULL ORDER BY user_id",
		managerIDs,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query managed users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect managed user ids", err)
	}
	return ids, nil
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	page := filter.Page.Normalize()
	conds := []string{"deleted_at IS NULL"}
	args := []any{}
	if !filter.Global {
		args = append(args, filter.OwnerIDs)
		conds = append(conds, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count users", err)
	}

	args = append(args, page.Limit, page.Offset)
	users, err := r.getUsers(ctx,
		fmt.Sprintf("%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PgxUserRepository) FindPrivilegedUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT user_id FROM users
		WHERE role IN ('admin', 'super_admin') AND is_active AND deleted_at IS NULL
		ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query privileged users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect privileged user ids", err)
	}
	return ids, nil
}

// FindPendingUsers lists every live user that is not approved, legacy rows with a NULL status included.
func (r *PgxUserRepository) FindPendingUsers(ctx context.Context) ([]domain.User, error) {
	return r.getUsers(ctx, `
		WHERE deleted_at IS NULL AND approval_status IS DISTINCT FROM 'approved'
		ORDER BY created_at`)
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE user_id = $7 AND deleted_at IS NULL;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query,
		m.Name, m.Email, m.PasswordHash, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy, m.UserID,
	)
	if err != nil {
		return translateWriteError(err, "failed to update user")
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found or already deleted: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) LockUser(ctx context.Context, userID string) (*domain.User, error) {
	return r.getUser(ctx, "WHERE user_id = $1 AND deleted_at IS NULL FOR UPDATE", userID)
}

func (r *PgxUserRepository) UpdateUserApproval(ctx context.Context, userID string, expected *domain.ApprovalStatus, state domain.ApprovalState, isActive bool, updatedBy string, at time.Time) error {
	cols := mapping.ToModelApproval(state)
	query := `
		UPDATE users
		SET approval_status = $1, approved_by = $2, approved_at = $3,
			rejected_by = $4, rejected_at = $5, rejection_reason = $6,
			is_active = $7, last_updated_at = $8, last_updated_by = $9
		WHERE user_id = $10 AND deleted_at IS NULL
			AND approval_status IS NOT DISTINCT FROM $11::text;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query,
		cols.ApprovalStatus, cols.ApprovedBy, cols.ApprovedAt,
		cols.RejectedBy, cols.RejectedAt, cols.RejectionReason,
		isActive, at, updatedBy, userID, statusParam(expected),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update user approval", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("approval state of user changed concurrently")
	}
	return nil
}

func (r *PgxUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	query := `
		UPDATE users
		SET deleted_at = $1, is_active = FALSE, last_updated_at = $1, last_updated_by = $2
		WHERE user_id = $3 AND deleted_at IS NULL;
	`
	cmdTag, err := r.db(ctx).Exec(ctx, query, deletedAt, deletedBy, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark user as deleted", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found or already deleted: %w", apperrors.ErrNotFound)
	}
	return nil
}

func statusParam(s *domain.ApprovalStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
