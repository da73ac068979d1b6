package pgsql

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxProjectTemplateRepository struct {
	BaseRepository
}

func newPgxProjectTemplateRepository(pool *pgxpool.Pool) portsrepo.ProjectTemplateRepository {
	return &PgxProjectTemplateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ProjectTemplateRepository = (*PgxProjectTemplateRepository)(nil)

const templateSelect = `
	SELECT template_id, name, description, attributes,
		created_at, created_by, last_updated_at, last_updated_by
	FROM project_templates `

func (r *PgxProjectTemplateRepository) getTemplates(ctx context.Context, filterQuery string, args ...any) ([]domain.ProjectTemplate, error) {
	rows, err := r.db(ctx).Query(ctx, templateSelect+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query project templates", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ProjectTemplate])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect project templates", err)
	}
	out := make([]domain.ProjectTemplate, 0, len(ms))
	for _, m := range ms {
		d, err := mapping.ToDomainProjectTemplate(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode project template", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *PgxProjectTemplateRepository) SaveTemplate(ctx context.Context, template domain.ProjectTemplate) error {
	m, err := mapping.ToModelProjectTemplate(template)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode project template", err)
	}
	_, err = r.db(ctx).Exec(ctx, `
		INSERT INTO project_templates (
			template_id, name, description, attributes,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		m.TemplateID, m.Name, m.Description, m.Attributes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return translateWriteError(err, "failed to save project template")
	}
	return nil
}

func (r *PgxProjectTemplateRepository) FindTemplateByID(ctx context.Context, templateID string) (*domain.ProjectTemplate, error) {
	ts, err := r.getTemplates(ctx, "WHERE template_id = $1", templateID)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, apperrors.NewNotFoundError("project template")
	}
	return &ts[0], nil
}

func (r *PgxProjectTemplateRepository) FindTemplates(ctx context.Context, page domain.Page) ([]domain.ProjectTemplate, error) {
	page = page.Normalize()
	return r.getTemplates(ctx, "ORDER BY name LIMIT $1 OFFSET $2", page.Limit, page.Offset)
}
