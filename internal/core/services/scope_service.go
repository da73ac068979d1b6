package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
)

type scopeService struct {
	BaseService
	userRepo portsrepo.UserReader
}

// NewScopeService creates the visibility scope resolver.
func NewScopeService(userRepo portsrepo.UserReader) portssvc.ScopeResolverSvc {
	return &scopeService{userRepo: userRepo}
}

var _ portssvc.ScopeResolverSvc = (*scopeService)(nil)

// ResolveScope walks at most two levels of the ManagedBy forest.
// Only responsabile_territoriale sees the reports of its reports.
func (s *scopeService) ResolveScope(ctx context.Context, userID string, role domain.UserRole) (domain.Scope, error) {
	if role.IsPrivileged() {
		return domain.GlobalScope(), nil
	}

	scope := domain.NewOwnerScope(userID)
	direct, err := s.userRepo.FindUserIDsManagedBy(ctx, []string{userID})
	if err != nil {
		s.LogError(ctx, err, "Failed to load direct reports", slog.String("user_id", userID))
		return domain.Scope{}, err
	}
	scope.Add(direct...)

	if role == domain.RoleResponsabileTerritoriale && len(direct) > 0 {
		indirect, err := s.userRepo.FindUserIDsManagedBy(ctx, direct)
		if err != nil {
			s.LogError(ctx, err, "Failed to load indirect reports", slog.String("user_id", userID))
			return domain.Scope{}, err
		}
		scope.Add(indirect...)
	}

	s.LogDebug(ctx, "Scope resolved", slog.String("user_id", userID), slog.Int("owners", scope.Len()))
	return scope, nil
}

// scopeGuard is embedded by services that filter records by owner.
type scopeGuard struct {
	scope portssvc.ScopeResolverSvc
}

func (g scopeGuard) resolve(ctx context.Context, actor domain.Actor) (domain.Scope, error) {
	return g.scope.ResolveScope(ctx, actor.UserID, actor.Role)
}

// ensureVisible returns ErrForbidden when ownerID is outside the actor's scope.
func (g scopeGuard) ensureVisible(ctx context.Context, actor domain.Actor, ownerID string) error {
	scope, err := g.resolve(ctx, actor)
	if err != nil {
		return err
	}
	if !scope.Contains(ownerID) {
		return apperrors.NewForbiddenError(fmt.Sprintf("owner %s is outside the caller's scope", ownerID))
	}
	return nil
}
