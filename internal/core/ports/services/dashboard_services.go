package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type DashboardSvc interface {
	// GetStats sums the dashboard counters over the actor's scope.
	GetStats(ctx context.Context, actor domain.Actor) (*domain.DashboardStats, error)
}
