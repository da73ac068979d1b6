package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAPITokenRepository struct {
	BaseRepository
}

// newPgxAPITokenRepository creates a new instance of PgxAPITokenRepository
func newPgxAPITokenRepository(db *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

const (
	apiTokensTable = "api_tokens"

	selectAPITokenFields = `
		api_token_id, user_id, name, prefix, token_hash,
		last_used_at, expires_at, created_at, revoked_at
	`

	insertAPITokenQuery = `
		INSERT INTO ` + apiTokensTable + ` (
			user_id, name, prefix, token_hash, expires_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + selectAPITokenFields

	findAPITokenByIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE api_token_id = $1 AND revoked_at IS NULL
	`

	findAPITokenByUserIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
	`

	findAPITokenByHashQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	touchAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET last_used_at = $2
		WHERE api_token_id = $1
	`

	revokeAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET revoked_at = $2
		WHERE api_token_id = $1 AND revoked_at IS NULL
	`
)

// Create persists a new API token and fills in the generated id and timestamps
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	m := mapping.ToModelAPIToken(*token)
	rows, err := r.db(ctx).Query(ctx, insertAPITokenQuery, m.UserID, m.Name, m.Prefix, m.TokenHash, m.ExpiresAt)
	if err != nil {
		return translateWriteError(err, "failed to create api token")
	}
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.APIToken])
	if err != nil {
		return translateWriteError(err, "failed to create api token")
	}

	token.ID = created.ID
	token.CreatedAt = created.CreatedAt
	return nil
}

func (r *PgxAPITokenRepository) findOne(ctx context.Context, query string, arg any) (*domain.APIToken, error) {
	rows, err := r.db(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query api token", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.APIToken])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("api token")
		}
		return nil, apperrors.NewAppError(500, "failed to read api token", err)
	}
	d := mapping.ToDomainAPIToken(m)
	return &d, nil
}

// FindByID retrieves an API token by its ID
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	return r.findOne(ctx, findAPITokenByIDQuery, id)
}

// FindByHash finds a live token by the hash of its secret
func (r *PgxAPITokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.APIToken, error) {
	return r.findOne(ctx, findAPITokenByHashQuery, tokenHash)
}

// FindByUserID retrieves all live API tokens for a specific user
func (r *PgxAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	rows, err := r.db(ctx).Query(ctx, findAPITokenByUserIDQuery, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query api tokens", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.APIToken])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect api tokens", err)
	}
	return mapping.ToDomainAPITokenSlice(ms), nil
}

func (r *PgxAPITokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db(ctx).Exec(ctx, touchAPITokenQuery, id, at); err != nil {
		return apperrors.NewAppError(500, "failed to update api token usage", err)
	}
	return nil
}

// Revoke soft-deletes a token
func (r *PgxAPITokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	cmdTag, err := r.db(ctx).Exec(ctx, revokeAPITokenQuery, id, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to revoke api token", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("api token")
	}
	return nil
}
