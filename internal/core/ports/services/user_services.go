package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/dto"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID returns a user visible to actor.
	GetUserByID(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.Actor, params dto.ListUsersParams) ([]domain.User, int, error)
}

// UserWriterSvc defines write operations for user data
type UserWriterSvc interface {
	CreateUser(ctx context.Context, actor domain.Actor, req dto.CreateUserRequest) (*domain.User, error)
	// RegisterUser is the public sign-up path; the user starts pending.
	RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, actor domain.Actor, userID string, req dto.UpdateUserRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Actor, userID string) error
}

// UserAuthSvc defines credential checks used by the auth handlers and middleware.
type UserAuthSvc interface {
	// AuthenticateUser checks credentials; unapproved or inactive accounts get ErrForbidden.
	AuthenticateUser(ctx context.Context, login, password string) (*domain.User, error)
	// FindSignInUserByEmail returns the active, approved user with this email.
	FindSignInUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// LoadActiveUser returns a user that may still sign in, for token validation.
	LoadActiveUser(ctx context.Context, userID string) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserAuthSvc
}
