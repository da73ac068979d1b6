package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// NotificationRepository persists notifications and their per-recipient read state.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, notification domain.Notification) error
	FindNotificationsForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead returns ErrNotFound when userID is not a recipient of the notification.
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	// RemoveRecipient drops userID from the notification and deletes it once nobody is left.
	RemoveRecipient(ctx context.Context, notificationID, userID string) error
	DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
