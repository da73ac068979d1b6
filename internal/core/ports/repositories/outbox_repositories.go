package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// OutboxWriter enqueues events inside the caller's transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, event domain.OutboxEvent) error
}

// OutboxRelayStore is used by the relay to move events through delivery.
type OutboxRelayStore interface {
	// Claim locks up to limit deliverable events and increments their attempt count.
	Claim(ctx context.Context, now, lockCutoff time.Time, maxAttempts, limit int) ([]domain.OutboxEvent, error)
	Ack(ctx context.Context, eventID string) error
	Nack(ctx context.Context, eventID string, lastError string, nextAvailable time.Time) error
	Dead(ctx context.Context, eventID string, lastError string) error
	CountUndelivered(ctx context.Context) (pending int64, locked int64, err error)
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRepositoryFacade combines writer and relay store.
type OutboxRepositoryFacade interface {
	OutboxWriter
	OutboxRelayStore
}
