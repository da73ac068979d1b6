package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

type templateService struct {
	BaseService
	scopeGuard
	txRunner     portsrepo.TxRunner
	templateRepo portsrepo.ProjectTemplateRepository
	entityRepo   portsrepo.EntityRepositoryFacade
	counters     portsrepo.CounterUpdater
}

// NewProjectTemplateService creates the project template service.
func NewProjectTemplateService(txRunner portsrepo.TxRunner, templateRepo portsrepo.ProjectTemplateRepository, entityRepo portsrepo.EntityRepositoryFacade, counters portsrepo.CounterUpdater, scope portssvc.ScopeResolverSvc, authorizer portssvc.PermissionChecker) portssvc.ProjectTemplateSvc {
	return &templateService{
		BaseService:  BaseService{Authorizer: authorizer},
		scopeGuard:   scopeGuard{scope: scope},
		txRunner:     txRunner,
		templateRepo: templateRepo,
		entityRepo:   entityRepo,
		counters:     counters,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, actor domain.Actor, name, description string, attributes map[string]any) (*domain.ProjectTemplate, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectTemplate, authz.ActionCreate); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationFailedError("name is required")
	}
	t := now()
	tmpl := domain.ProjectTemplate{
		TemplateID:  newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Attributes:  attributes,
		AuditFields: domain.AuditFields{
			CreatedAt:     t,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: t,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.templateRepo.SaveTemplate(ctx, tmpl); err != nil {
		s.LogError(ctx, err, "Failed to save project template")
		return nil, err
	}
	s.LogInfo(ctx, "Project template created", slog.String("template_id", tmpl.TemplateID))
	return &tmpl, nil
}

func (s *templateService) ListTemplates(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.ProjectTemplate, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectTemplate, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.templateRepo.FindTemplates(ctx, page.Normalize())
}

// Instantiate creates one project per company, owned by the company owner. Any
// unknown or hidden company aborts the whole batch.
func (s *templateService) Instantiate(ctx context.Context, actor domain.Actor, templateID string, companyIDs []string) ([]domain.Entity, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectTemplate, authz.ActionInstantiate); err != nil {
		return nil, err
	}
	if err := s.AuthorizeActor(ctx, actor, authz.EntityObject(domain.KindProject), authz.ActionCreate); err != nil {
		return nil, err
	}
	ids := dedupe(companyIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationFailedError("companyIds must not be empty")
	}
	tmpl, err := s.templateRepo.FindTemplateByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	scope, err := s.resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Entity, 0, len(ids))
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		t := now()
		for _, companyID := range ids {
			company, err := s.entityRepo.FindEntityByID(txCtx, domain.KindCompany, companyID)
			if err != nil {
				return err
			}
			if !scope.Contains(company.OwnerID) {
				return apperrors.NewForbiddenError(fmt.Sprintf("company %s is outside the caller's scope", companyID))
			}
			attrs := make(map[string]any, len(tmpl.Attributes)+1)
			for k, v := range tmpl.Attributes {
				attrs[k] = v
			}
			attrs["templateId"] = tmpl.TemplateID
			if tmpl.Description != "" {
				attrs["description"] = tmpl.Description
			}
			cid := company.EntityID
			project := domain.Entity{
				EntityID:    newID(),
				Kind:        domain.KindProject,
				OwnerID:     company.OwnerID,
				Name:        fmt.Sprintf("%s - %s", tmpl.Name, company.Name),
				CompanyID:   &cid,
				Attributes:  attrs,
				Attachments: []domain.Attachment{},
				AuditFields: domain.AuditFields{
					CreatedAt:     t,
					CreatedBy:     actor.UserID,
					LastUpdatedAt: t,
					LastUpdatedBy: actor.UserID,
				},
			}
			if err := s.entityRepo.SaveEntity(txCtx, project); err != nil {
				return err
			}
			if err := s.counters.ApplyCounterDelta(txCtx, domain.StatusDelta(project.OwnerID, string(domain.KindProject), nil, 1)); err != nil {
				return err
			}
			projects = append(projects, project)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Template instantiation failed", slog.String("template_id", templateID))
		return nil, err
	}

	metrics.Business().EntitiesCreated.WithLabelValues(string(domain.KindProject), "none").Add(float64(len(projects)))
	s.LogInfo(ctx, "Project template instantiated",
		slog.String("template_id", templateID),
		slog.Int("projects", len(projects)))
	return projects, nil
}
