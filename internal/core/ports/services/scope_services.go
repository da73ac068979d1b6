package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// ScopeResolverSvc computes the owners whose records a user may see.
type ScopeResolverSvc interface {
	// ResolveScope returns GLOBAL for privileged roles, otherwise the user, the
	// users they manage and, for responsabile_territoriale only, the users those manage.
	ResolveScope(ctx context.Context, userID string, role domain.UserRole) (domain.Scope, error)
}

// PermissionChecker answers role permission questions on (object, action) pairs.
type PermissionChecker interface {
	// Authorize returns an error wrapping apperrors.ErrForbidden when role may not act on object.
	Authorize(role domain.UserRole, object, action string) error
}

// BackgroundWorker is a long running loop stopped by cancelling ctx.
type BackgroundWorker interface {
	Run(ctx context.Context) error
}
