package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
)

type dashboardService struct {
	BaseService
	scopeGuard
	dashboardRepo    portsrepo.DashboardReader
	notificationRepo portsrepo.NotificationRepository
	messageRepo      portsrepo.MessageRepository
}

// NewDashboardService creates the dashboard summary service.
func NewDashboardService(scope portssvc.ScopeResolverSvc, dashboardRepo portsrepo.DashboardReader, notificationRepo portsrepo.NotificationRepository, messageRepo portsrepo.MessageRepository) portssvc.DashboardSvc {
	return &dashboardService{
		scopeGuard:       scopeGuard{scope: scope},
		dashboardRepo:    dashboardRepo,
		notificationRepo: notificationRepo,
		messageRepo:      messageRepo,
	}
}

// GetStats reports one row per entity kind plus users, zero-filled.
func (s *dashboardService) GetStats(ctx context.Context, actor domain.Actor) (*domain.DashboardStats, error) {
	scope, err := s.resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	sums, err := s.dashboardRepo.SumCounters(ctx, scope.OwnerIDs(), scope.IsGlobal())
	if err != nil {
		s.LogError(ctx, err, "Failed to sum dashboard counters")
		return nil, err
	}
	byKind := make(map[string]domain.KindStats, len(sums))
	for _, k := range sums {
		byKind[k.Kind] = k
	}

	kinds := make([]string, 0, len(domain.EntityKinds())+1)
	for _, k := range domain.EntityKinds() {
		kinds = append(kinds, string(k))
	}
	kinds = append(kinds, userCounterKind)

	stats := &domain.DashboardStats{Kinds: make([]domain.KindStats, 0, len(kinds))}
	for _, k := range kinds {
		row, ok := byKind[k]
		if !ok {
			row = domain.KindStats{Kind: k}
		}
		stats.Kinds = append(stats.Kinds, row)
	}

	if stats.UnreadNotifications, err = s.notificationRepo.CountUnread(ctx, actor.UserID); err != nil {
		return nil, err
	}
	if stats.UnreadMessages, err = s.messageRepo.CountUnreadMessages(ctx, actor.UserID); err != nil {
		return nil, err
	}
	return stats, nil
}
