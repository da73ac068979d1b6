package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// EntityReader defines read operations over owned entities of every kind.
type EntityReader interface {
	FindEntityByID(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error)
	FindEntities(ctx context.Context, filter domain.EntityFilter) ([]domain.Entity, int, error)
	// FindPendingEntities returns records of kinds that are not approved, pending, or carry no status.
	FindPendingEntities(ctx context.Context, kinds []domain.EntityKind) ([]domain.Entity, error)
	FindEntityByVATNumber(ctx context.Context, kind domain.EntityKind, vatNumber string) (*domain.Entity, error)
}

// EntityWriter defines write operations over owned entities.
type EntityWriter interface {
	SaveEntity(ctx context.Context, entity domain.Entity) error
	UpdateEntity(ctx context.Context, entity domain.Entity) error
	// LockEntity reads an entity with a row lock held until the surrounding transaction ends.
	LockEntity(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error)
	// UpdateEntityApproval writes state only if the stored status still equals expected.
	UpdateEntityApproval(ctx context.Context, kind domain.EntityKind, entityID string, expected *domain.ApprovalStatus, state domain.ApprovalState, updatedBy string, at time.Time) error
	AppendEntityAttachments(ctx context.Context, kind domain.EntityKind, entityID string, attachments []domain.Attachment, updatedBy string, at time.Time) error
	DeleteEntity(ctx context.Context, kind domain.EntityKind, entityID string) error
}

// EntityRepositoryFacade combines all entity repository interfaces
type EntityRepositoryFacade interface {
	EntityReader
	EntityWriter
}

// FileStorage persists uploaded documents outside the database.
type FileStorage interface {
	Save(ctx context.Context, fileName string, content []byte) (domain.Attachment, error)
	// Delete removes a stored file; a file that no longer exists is not an error.
	Delete(ctx context.Context, attachment domain.Attachment) error
}
