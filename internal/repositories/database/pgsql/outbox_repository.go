package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) portsrepo.OutboxRepositoryFacade {
	return &PgxOutboxRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutboxRepositoryFacade = (*PgxOutboxRepository)(nil)

// Enqueue inserts the event. Inside a transaction the insert runs under a savepoint,
// so a failed enqueue is rolled back alone and the caller's transaction stays usable.
func (r *PgxOutboxRepository) Enqueue(ctx context.Context, event domain.OutboxEvent) error {
	m := mapping.ToModelOutboxEvent(event)
	if m.Topic == "" {
		return apperrors.NewValidationFailedError("outbox topic is required")
	}

	tx, err := r.db(ctx).Begin(ctx)
	if err != nil {
		return fmt.Errorf("outbox enqueue begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, topic, payload, available_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING`,
		m.EventID, m.Topic, m.Payload, m.AvailableAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("outbox enqueue: %w", err)
	}
	return tx.Commit(ctx)
}

// Claim selects deliverable rows with SKIP LOCKED and marks them locked in one transaction.
// The returned events carry the incremented attempt count.
func (r *PgxOutboxRepository) Claim(ctx context.Context, now, lockCutoff time.Time, maxAttempts, limit int) ([]domain.OutboxEvent, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("outbox claim begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT event_id, topic, payload, attempts, available_at, locked_at, published_at, last_error, created_at
		  FROM outbox_events
		 WHERE published_at IS NULL
		   AND available_at <= $1
		   AND attempts < $2
		   AND (locked_at IS NULL OR locked_at < $3)
		 ORDER BY available_at, created_at
		 LIMIT $4
		 FOR UPDATE SKIP LOCKED`,
		now, maxAttempts, lockCutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("outbox claim select: %w", err)
	}
	claimed, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OutboxEvent])
	if err != nil {
		return nil, fmt.Errorf("outbox claim rows: %w", err)
	}
	if len(claimed) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]string, len(claimed))
	for i := range claimed {
		claimed[i].Attempts++
		lockedAt := now
		claimed[i].LockedAt = &lockedAt
		ids[i] = claimed[i].EventID
	}
	if _, err := tx.Exec(ctx,
		"UPDATE outbox_events SET locked_at = $1, attempts = attempts + 1 WHERE event_id = ANY($2)",
		now, ids,
	); err != nil {
		return nil, fmt.Errorf("outbox claim update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("outbox claim commit: %w", err)
	}
	return mapping.ToDomainOutboxEventSlice(claimed), nil
}

func (r *PgxOutboxRepository) Ack(ctx context.Context, eventID string) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE outbox_events
		   SET published_at = now(),
		       locked_at = NULL,
		       last_error = NULL
		 WHERE event_id = $1 AND published_at IS NULL`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("outbox ack: %w", err)
	}
	return nil
}

func (r *PgxOutboxRepository) Nack(ctx context.Context, eventID string, lastError string, nextAvailable time.Time) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE outbox_events
		   SET locked_at = NULL,
		       last_error = $2,
		       available_at = $3
		 WHERE event_id = $1 AND published_at IS NULL`,
		eventID, lastError, nextAvailable,
	)
	if err != nil {
		return fmt.Errorf("outbox nack: %w", err)
	}
	return nil
}

// Dead leaves the row unpublished; attempts already reached the maximum so Claim skips it.
func (r *PgxOutboxRepository) Dead(ctx context.Context, eventID string, lastError string) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE outbox_events
		   SET locked_at = NULL,
		       last_error = $2,
		       available_at = now()
		 WHERE event_id = $1 AND published_at IS NULL`,
		eventID, lastError,
	)
	if err != nil {
		return fmt.Errorf("outbox dead: %w", err)
	}
	return nil
}

func (r *PgxOutboxRepository) CountUndelivered(ctx context.Context) (int64, int64, error) {
	var pending, locked int64
	err := r.Pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE locked_at IS NOT NULL)
		  FROM outbox_events
		 WHERE published_at IS NULL`,
	).Scan(&pending, &locked)
	if err != nil {
		return 0, 0, fmt.Errorf("outbox depth: %w", err)
	}
	return pending, locked, nil
}

func (r *PgxOutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.Pool.Exec(ctx,
		"DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < $1",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("outbox cleanup: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
