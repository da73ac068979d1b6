package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

// Cleaner periodically removes expired notifications and delivered outbox rows.
type Cleaner struct {
	BaseService
	notifications portsrepo.NotificationRepository
	outbox        portsrepo.OutboxRelayStore
	interval      time.Duration
	retention     time.Duration
}

// NewCleaner creates a cleaner. A non-positive interval disables it.
func NewCleaner(notifications portsrepo.NotificationRepository, outbox portsrepo.OutboxRelayStore, interval, retention time.Duration) *Cleaner {
	return &Cleaner{notifications: notifications, outbox: outbox, interval: interval, retention: retention}
}

var _ portssvc.BackgroundWorker = (*Cleaner)(nil)

func (c *Cleaner) Run(ctx context.Context) error {
	if c.interval <= 0 || c.retention <= 0 {
		c.LogInfo(ctx, "Cleaner disabled")
		return nil
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := c.CleanOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.LogError(ctx, err, "Cleaner tick failed")
		}
	}
}

// CleanOnce deletes rows older than the retention window.
func (c *Cleaner) CleanOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)

	n, err := c.notifications.DeleteNotificationsOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	metrics.Business().CleanerDeleted.WithLabelValues("notifications").Add(float64(n))

	o, err := c.outbox.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	metrics.Business().CleanerDeleted.WithLabelValues("outbox_events").Add(float64(o))

	if n > 0 || o > 0 {
		c.LogInfo(ctx, "Cleaner removed expired rows",
			slog.Int64("notifications", n),
			slog.Int64("outbox_events", o))
	}
	return nil
}
