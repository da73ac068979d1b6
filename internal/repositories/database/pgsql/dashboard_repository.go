package pgsql

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDashboardRepository keeps one counter row per (owner, kind).
type PgxDashboardRepository struct {
	BaseRepository
}

func newPgxDashboardRepository(pool *pgxpool.Pool) portsrepo.DashboardRepositoryFacade {
	return &PgxDashboardRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DashboardRepositoryFacade = (*PgxDashboardRepository)(nil)

func (r *PgxDashboardRepository) ApplyCounterDelta(ctx context.Context, delta domain.CounterDelta) error {
	if delta.Total == 0 && delta.Pending == 0 && delta.Approved == 0 && delta.Rejected == 0 {
		return nil
	}
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO dashboard_counters (owner_id, kind, total, pending, approved, rejected, updated_at)
		VALUES ($1, $2, GREATEST($3, 0), GREATEST($4, 0), GREATEST($5, 0), GREATEST($6, 0), now())
		ON CONFLICT (owner_id, kind) DO UPDATE SET
			total = GREATEST(dashboard_counters.total + $3, 0),
			pending = GREATEST(dashboard_counters.pending + $4, 0),
			approved = GREATEST(dashboard_counters.approved + $5, 0),
			rejected = GREATEST(dashboard_counters.rejected + $6, 0),
			updated_at = now();`,
		delta.OwnerID, delta.Kind, delta.Total, delta.Pending, delta.Approved, delta.Rejected,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply dashboard counter delta", err)
	}
	return nil
}

func (r *PgxDashboardRepository) SumCounters(ctx context.Context, ownerIDs []string, global bool) ([]domain.KindStats, error) {
	query := `
		SELECT kind, SUM(total)::int AS total, SUM(pending)::int AS pending,
			SUM(approved)::int AS approved, SUM(rejected)::int AS rejected
		FROM dashboard_counters`
	args := []any{}
	if !global {
		query += " WHERE owner_id = ANY($1)"
		args = append(args, ownerIDs)
	}
	query += " GROUP BY kind ORDER BY kind"

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query dashboard counters", err)
	}
	stats, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.KindStats])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect dashboard counters", err)
	}
	return stats, nil
}
