package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// NotificationSink is what state-changing services use to announce events.
// Notify never fails from the caller's point of view.
type NotificationSink interface {
	Notify(ctx context.Context, req domain.NotificationRequest)
}

// NotificationDeliverer materialises a request into a stored notification.
type NotificationDeliverer interface {
	Deliver(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error)
}

// NotificationReaderSvc is the per-recipient view of notifications.
type NotificationReaderSvc interface {
	ListForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// NotificationWriterSvc changes per-recipient state.
type NotificationWriterSvc interface {
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
}

// NotificationSvcFacade combines all notification interfaces
type NotificationSvcFacade interface {
	NotificationSink
	NotificationDeliverer
	NotificationReaderSvc
	NotificationWriterSvc
	OutboxDispatcher
}

// OutboxDispatcher delivers one claimed outbox event.
type OutboxDispatcher interface {
	Dispatch(ctx context.Context, event domain.OutboxEvent) error
}
