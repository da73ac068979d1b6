package repositories

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// CounterUpdater applies dashboard counter deltas. It is injected into the services
// that change entity state so the delta lands in the same transaction.
type CounterUpdater interface {
	ApplyCounterDelta(ctx context.Context, delta domain.CounterDelta) error
}

// DashboardReader sums counters over a set of owners.
type DashboardReader interface {
	SumCounters(ctx context.Context, ownerIDs []string, global bool) ([]domain.KindStats, error)
}

// DashboardRepositoryFacade combines dashboard interfaces.
type DashboardRepositoryFacade interface {
	CounterUpdater
	DashboardReader
}
