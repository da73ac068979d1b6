package repositories

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type ProjectTemplateRepository interface {
	SaveTemplate(ctx context.Context, template domain.ProjectTemplate) error
	FindTemplateByID(ctx context.Context, templateID string) (*domain.ProjectTemplate, error)
	FindTemplates(ctx context.Context, page domain.Page) ([]domain.ProjectTemplate, error)
}
