package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

// entityService is the single owned-entity component. Every kind is driven by its
// domain.EntitySchema; there is no per-kind code.
type entityService struct {
	BaseService
	scopeGuard
	txRunner   portsrepo.TxRunner
	entityRepo portsrepo.EntityRepositoryFacade
	userRepo   portsrepo.UserReader
	counters   portsrepo.CounterUpdater
	storage    portsrepo.FileStorage
	notifier   portssvc.NotificationSink
}

// EntityServiceDeps groups the collaborators of the entity service.
type EntityServiceDeps struct {
	TxRunner   portsrepo.TxRunner
	EntityRepo portsrepo.EntityRepositoryFacade
	UserRepo   portsrepo.UserReader
	Counters   portsrepo.CounterUpdater
	Storage    portsrepo.FileStorage
	Notifier   portssvc.NotificationSink
	Scope      portssvc.ScopeResolverSvc
	Authorizer portssvc.PermissionChecker
}

// NewEntityService creates the generic owned-entity service.
func NewEntityService(deps EntityServiceDeps) portssvc.EntitySvcFacade {
	return &entityService{
		BaseService: BaseService{Authorizer: deps.Authorizer},
		scopeGuard:  scopeGuard{scope: deps.Scope},
		txRunner:    deps.TxRunner,
		entityRepo:  deps.EntityRepo,
		userRepo:    deps.UserRepo,
		counters:    deps.Counters,
		storage:     deps.Storage,
		notifier:    deps.Notifier,
	}
}

var _ portssvc.EntitySvcFacade = (*entityService)(nil)

func schemaOrError(kind domain.EntityKind) (domain.EntitySchema, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return domain.EntitySchema{}, apperrors.NewValidationFailedError(fmt.Sprintf("unknown entity kind %q", kind))
	}
	return schema, nil
}

func (s *entityService) ListEntities(ctx context.Context, actor domain.Actor, kind domain.EntityKind, params dto.ListEntitiesParams) ([]domain.Entity, int, error) {
	if _, err := schemaOrError(kind); err != nil {
		return nil, 0, err
	}
	if err := s.AuthorizeActor(ctx, actor, authz.EntityObject(kind), authz.ActionRead); err != nil {
		return nil, 0, err
	}
	scope, err := s.resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	filter := domain.EntityFilter{
		Kind:     kind,
		OwnerIDs: scope.OwnerIDs(),
		Global:   scope.IsGlobal(),
		Search:   strings.TrimSpace(params.Search),
		Page:     domain.Page{Limit: params.Limit, Offset: params.Offset}.Normalize(),
	}
	if params.CompanyID != "" {
		filter.CompanyID = strPtr(params.CompanyID)
	}
	if params.Status != "" {
		status := domain.ApprovalStatus(params.Status)
		filter.Status = &status
	}

	entities, total, err := s.entityRepo.FindEntities(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entities", slog.String("kind", string(kind)))
		return nil, 0, err
	}
	return entities, total, nil
}

// GetEntity checks existence before scope, so an unknown id is 404 and a hidden one 403.
func (s *entityService) GetEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	if _, err := schemaOrError(kind); err != nil {
		return nil, err
	}
	if err := s.AuthorizeActor(ctx, actor, authz.EntityObject(kind), authz.ActionRead); err != nil {
		return nil, err
	}
	entity, err := s.entityRepo.FindEntityByID(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, actor, entity.OwnerID); err != nil {
		s.LogInfo(ctx, "Entity outside caller scope",
			slog.String("kind", string(kind)),
			slog.String("entity_id", entityID))
		return nil, err
	}
	return entity, nil
}

func (s *entityService) CreateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, req dto.EntityRequest, files []dto.UploadedFile) (*domain.Entity, error) {
	schema, err := schemaOrError(kind)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeActor(ctx, actor, authz.EntityObject(kind), authz.ActionCreate); err != nil {
		return nil, err
	}

	t := now()
	entity := domain.Entity{
		EntityID:   newID(),
		Kind:       kind,
		Name:       strings.TrimSpace(req.Name),
		VATNumber:  normalizeVAT(req.VATNumber),
		TaxCode:    normalizeUpper(req.TaxCode),
		Email:      normalizeLower(req.Email),
		Phone:      trimmed(req.Phone),
		Address:    trimmed(req.Address),
		City:       trimmed(req.City),
		Province:   normalizeUpper(req.Province),
		PostalCode: trimmed(req.PostalCode),
		CompanyID:  trimmed(req.CompanyID),
		Attributes: req.Attributes,
		AuditFields: domain.AuditFields{
			CreatedAt:     t,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: t,
			LastUpdatedBy: actor.UserID,
		},
	}

	if schema.Approvable {
		state, ok := domain.NewApprovalState(actor, schema.ApprovalRequiredRoles, t)
		if !ok {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("role %s may not create %s", actor.Role, kind))
		}
		entity.Approval = &state
	}

	if missing := schema.MissingFields(entity); len(missing) > 0 {
		return nil, requiredFieldsError(missing)
	}
	if err := validateUploads(files); err != nil {
		return nil, err
	}

	owner, err := s.resolveOwner(ctx, actor, kind, req.OwnerID)
	if err != nil {
		return nil, err
	}
	entity.OwnerID = owner
	if err := s.checkCompanyRef(ctx, actor, entity.CompanyID); err != nil {
		return nil, err
	}

	stored, err := s.storeFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	entity.Attachments = stored

	var status *domain.ApprovalStatus
	if entity.Approval != nil {
		status = entity.Approval.Status
	}
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.entityRepo.SaveEntity(txCtx, entity); err != nil {
			return err
		}
		if err := s.counters.ApplyCounterDelta(txCtx, domain.StatusDelta(entity.OwnerID, string(kind), status, 1)); err != nil {
			return err
		}
		if entity.Approval != nil && entity.Approval.IsPendingApproval() {
			s.notifier.Notify(txCtx, s.pendingRequest(ctx, actor, schema, entity))
		}
		return nil
	})
	if err != nil {
		s.discardFiles(ctx, stored)
		s.LogError(ctx, err, "Failed to create entity", slog.String("kind", string(kind)))
		return nil, err
	}

	statusLabel := "none"
	if status != nil {
		statusLabel = string(*status)
	}
	metrics.Business().EntitiesCreated.WithLabelValues(string(kind), statusLabel).Inc()
	s.LogInfo(ctx, "Entity created",
		slog.String("kind", string(kind)),
		slog.String("entity_id", entity.EntityID),
		slog.String("owner_id", entity.OwnerID),
		slog.String("status", statusLabel))
	return &entity, nil
}

func (s *entityService) UpdateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, req dto.UpdateEntityRequest) (*domain.Entity, error) {
	schema, err := schemaOrError(kind)
	if err != nil {
		return nil, err
	}
	entity, err := s.loadForWrite(ctx, actor, kind, entityID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		entity.Name = strings.TrimSpace(*req.Name)
	}
	patch(&entity.VATNumber, req.VATNumber, normalizeVAT)
	patch(&entity.TaxCode, req.TaxCode, normalizeUpper)
	patch(&entity.Email, req.Email, normalizeLower)
	patch(&entity.Phone, req.Phone, trimmed)
	patch(&entity.Address, req.Address, trimmed)
	patch(&entity.City, req.City, trimmed)
	patch(&entity.Province, req.Province, normalizeUpper)
	patch(&entity.PostalCode, req.PostalCode, trimmed)
	if req.CompanyID != nil {
		companyID := trimmed(req.CompanyID)
		if err := s.checkCompanyRef(ctx, actor, companyID); err != nil {
			return nil, err
		}
		entity.CompanyID = companyID
	}
	if req.Attributes != nil {
		if entity.Attributes == nil {
			entity.Attributes = make(map[string]any, len(req.Attributes))
		}
		for k, v := range req.Attributes {
			if v == nil {
				delete(entity.Attributes, k)
				continue
			}
			entity.Attributes[k] = v
		}
	}
	if missing := schema.MissingFields(*entity); len(missing) > 0 {
		return nil, requiredFieldsError(missing)
	}

	entity.LastUpdatedAt = now()
	entity.LastUpdatedBy = actor.UserID
	if err := s.entityRepo.UpdateEntity(ctx, *entity); err != nil {
		s.LogError(ctx, err, "Failed to update entity", slog.String("entity_id", entityID))
		return nil, err
	}
	s.LogInfo(ctx, "Entity updated", slog.String("kind", string(kind)), slog.String("entity_id", entityID))
	return entity, nil
}

// DeleteEntity removes the row first; stored files are removed only after the commit.
func (s *entityService) DeleteEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) error {
	if _, err := schemaOrError(kind); err != nil {
		return err
	}
	entity, err := s.loadForWrite(ctx, actor, kind, entityID, authz.ActionDelete)
	if err != nil {
		return err
	}

	var status *domain.ApprovalStatus
	if entity.Approval != nil {
		status = entity.Approval.Status
	}
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.entityRepo.DeleteEntity(txCtx, kind, entityID); err != nil {
			return err
		}
		return s.counters.ApplyCounterDelta(txCtx, domain.StatusDelta(entity.OwnerID, string(kind), status, -1))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete entity", slog.String("entity_id", entityID))
		return err
	}

	s.discardFiles(ctx, entity.Attachments)
	s.LogInfo(ctx, "Entity deleted", slog.String("kind", string(kind)), slog.String("entity_id", entityID))
	return nil
}

func (s *entityService) AddAttachments(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, files []dto.UploadedFile) (*domain.Entity, error) {
	if _, err := schemaOrError(kind); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationFailedError("at least one document is required")
	}
	if err := validateUploads(files); err != nil {
		return nil, err
	}
	entity, err := s.loadForWrite(ctx, actor, kind, entityID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	t := now()
	if err := s.entityRepo.AppendEntityAttachments(ctx, kind, entityID, stored, actor.UserID, t); err != nil {
		s.discardFiles(ctx, stored)
		return nil, err
	}
	entity.Attachments = append(entity.Attachments, stored...)
	entity.LastUpdatedAt = t
	entity.LastUpdatedBy = actor.UserID
	return entity, nil
}

// loadForWrite loads an entity and checks the permission matrix and the caller's scope.
func (s *entityService) loadForWrite(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID, action string) (*domain.Entity, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.EntityObject(kind), action); err != nil {
		return nil, err
	}
	entity, err := s.entityRepo.FindEntityByID(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, actor, entity.OwnerID); err != nil {
		return nil, err
	}
	return entity, nil
}

// resolveOwner picks the owner of a new record. Privileged actors may assign any
// active user (a sportello only to a responsabile_territoriale); others only users in their scope.
func (s *entityService) resolveOwner(ctx context.Context, actor domain.Actor, kind domain.EntityKind, requested *string) (string, error) {
	if requested == nil || *requested == "" || *requested == actor.UserID {
		return actor.UserID, nil
	}
	target := *requested
	if !actor.IsPrivileged() {
		if err := s.ensureVisible(ctx, actor, target); err != nil {
			return "", err
		}
		return target, nil
	}

	user, err := s.userRepo.FindUserByID(ctx, target)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NewValidationFailedError("ownerId does not reference an existing user")
		}
		return "", err
	}
	if !user.CanSignIn() {
		return "", apperrors.NewValidationFailedError("ownerId references an inactive user")
	}
	if kind == domain.KindSportello && user.Role != domain.RoleResponsabileTerritoriale {
		return "", apperrors.NewValidationFailedError("a sportello lavoro must be owned by a responsabile territoriale")
	}
	return user.UserID, nil
}

// checkCompanyRef requires companyID, when set, to name a company visible to actor.
func (s *entityService) checkCompanyRef(ctx context.Context, actor domain.Actor, companyID *string) error {
	if companyID == nil || *companyID == "" {
		return nil
	}
	company, err := s.entityRepo.FindEntityByID(ctx, domain.KindCompany, *companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationFailedError("companyId does not reference an existing company")
		}
		return err
	}
	return s.ensureVisible(ctx, actor, company.OwnerID)
}

func (s *entityService) pendingRequest(ctx context.Context, actor domain.Actor, schema domain.EntitySchema, entity domain.Entity) domain.NotificationRequest {
	creator := displayName(ctx, s.userRepo, actor)
	return domain.NotificationRequest{
		Title:         fmt.Sprintf("%s in attesa di approvazione", schema.Label),
		Message:       fmt.Sprintf("%s ha creato %s \"%s\" che richiede approvazione", creator, strings.ToLower(schema.Label), entity.Name),
		Type:          schema.PendingNotificationType(),
		EntityID:      entity.EntityID,
		EntityName:    entity.Name,
		CreatedBy:     actor.UserID,
		CreatedByName: creator,
	}
}

func (s *entityService) storeFiles(ctx context.Context, files []dto.UploadedFile) ([]domain.Attachment, error) {
	stored := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		att, err := s.storage.Save(ctx, f.FileName, f.Content)
		if err != nil {
			s.discardFiles(ctx, stored)
			return nil, err
		}
		stored = append(stored, att)
	}
	return stored, nil
}

// discardFiles deletes stored files, logging failures.
func (s *entityService) discardFiles(ctx context.Context, attachments []domain.Attachment) {
	for _, att := range attachments {
		if err := s.storage.Delete(ctx, att); err != nil {
			s.LogError(ctx, err, "Failed to delete stored file", slog.String("path", att.Path))
		}
	}
}

func validateUploads(files []dto.UploadedFile) error {
	var msgs []string
	for _, f := range files {
		if strings.TrimSpace(f.FileName) == "" {
			msgs = append(msgs, "documents must have a file name")
			continue
		}
		if len(f.Content) == 0 {
			msgs = append(msgs, fmt.Sprintf("document %s is empty", f.FileName))
		}
	}
	if len(msgs) > 0 {
		return apperrors.NewValidationFailedError(msgs...)
	}
	return nil
}

func requiredFieldsError(fields []string) error {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = fmt.Sprintf("%s is required", f)
	}
	return apperrors.NewValidationFailedError(msgs...)
}

// displayName prefers the name carried by the token, then the stored user.
func displayName(ctx context.Context, users portsrepo.UserReader, actor domain.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	if u, err := users.FindUserByID(ctx, actor.UserID); err == nil {
		return u.DisplayName()
	}
	return actor.UserID
}

// patch applies an optional field from an update. A nil input keeps the stored
// value; a blank one clears it.
func patch(dst **string, v *string, normalize func(*string) *string) {
	if v != nil {
		*dst = normalize(v)
	}
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeUpper(p *string) *string {
	v := trimmed(p)
	if v != nil {
		*v = strings.ToUpper(*v)
	}
	return v
}

func normalizeLower(p *string) *string {
	v := trimmed(p)
	if v != nil {
		*v = strings.ToLower(*v)
	}
	return v
}

// normalizeVAT drops spaces and an IT country prefix.
func normalizeVAT(p *string) *string {
	v := normalizeUpper(p)
	if v != nil {
		*v = strings.TrimPrefix(strings.ReplaceAll(*v, " ", ""), "IT")
	}
	return v
}
