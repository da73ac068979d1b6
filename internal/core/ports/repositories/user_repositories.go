package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindUserIDsManagedBy returns the ids of live users whose manager is one of managerIDs.
	FindUserIDsManagedBy(ctx context.Context, managerIDs []string) ([]string, error)
	FindUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
	// FindPrivilegedUserIDs returns the ids of every active admin and super admin.
	FindPrivilegedUserIDs(ctx context.Context) ([]string, error)
	// FindPendingUsers returns users awaiting review, legacy rows included.
	FindPendingUsers(ctx context.Context) ([]domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	SaveUser(ctx context.Context, user domain.User) error
	UpdateUser(ctx context.Context, user domain.User) error
	// LockUser reads a user with a row lock held until the surrounding transaction ends.
	LockUser(ctx context.Context, userID string) (*domain.User, error)
	// UpdateUserApproval writes state only if the stored status still equals expected.
	UpdateUserApproval(ctx context.Context, userID string, expected *domain.ApprovalStatus, state domain.ApprovalState, isActive bool, updatedBy string, at time.Time) error
	MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
