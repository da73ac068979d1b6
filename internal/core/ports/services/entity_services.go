package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/dto"
)

// EntityReaderSvc defines scoped read operations for owned entities.
type EntityReaderSvc interface {
	ListEntities(ctx context.Context, actor domain.Actor, kind domain.EntityKind, params dto.ListEntitiesParams) ([]domain.Entity, int, error)
	// GetEntity returns ErrForbidden when the owner is outside the actor's scope.
	GetEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) (*domain.Entity, error)
}

// EntityWriterSvc defines scoped write operations for owned entities.
type EntityWriterSvc interface {
	// CreateEntity stores the record, its documents and, when pending, a notification for the admins.
	CreateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, req dto.EntityRequest, files []dto.UploadedFile) (*domain.Entity, error)
	UpdateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, req dto.UpdateEntityRequest) (*domain.Entity, error)
	// DeleteEntity removes the record and its uploaded files; missing files are ignored.
	DeleteEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) error
	AddAttachments(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, files []dto.UploadedFile) (*domain.Entity, error)
}

// EntitySvcFacade combines all entity service interfaces
type EntitySvcFacade interface {
	EntityReaderSvc
	EntityWriterSvc
}

// ApprovalSvc drives the approval lifecycle. Every operation requires a privileged actor.
type ApprovalSvc interface {
	ListPending(ctx context.Context, actor domain.Actor) ([]domain.PendingItem, error)
	Approve(ctx context.Context, actor domain.Actor, approvalType, id string) (*domain.ApprovalOutcome, error)
	Reject(ctx context.Context, actor domain.Actor, approvalType, id string, reason *string) (*domain.ApprovalOutcome, error)
}
