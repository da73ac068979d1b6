package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type ProjectTemplateSvc interface {
	CreateTemplate(ctx context.Context, actor domain.Actor, name, description string, attributes map[string]any) (*domain.ProjectTemplate, error)
	ListTemplates(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.ProjectTemplate, error)
	// Instantiate creates one project per company, all or nothing.
	Instantiate(ctx context.Context, actor domain.Actor, templateID string, companyIDs []string) ([]domain.Entity, error)
}
