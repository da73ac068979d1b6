package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

type notificationService struct {
	BaseService
	repo     portsrepo.NotificationRepository
	userRepo portsrepo.UserReader
	outbox   portsrepo.OutboxWriter
}

// NewNotificationService creates the notification sink and the per-recipient API.
// Notify only writes an outbox event; the relay calls Dispatch to deliver it.
func NewNotificationService(repo portsrepo.NotificationRepository, userRepo portsrepo.UserReader, outbox portsrepo.OutboxWriter) portssvc.NotificationSvcFacade {
	return &notificationService{repo: repo, userRepo: userRepo, outbox: outbox}
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

// Notify enqueues req in the transaction carried by ctx, if any.
// Failures are logged and swallowed.
func (s *notificationService) Notify(ctx context.Context, req domain.NotificationRequest) {
	payload, err := json.Marshal(req)
	if err != nil {
		s.LogError(ctx, err, "Failed to encode notification request", slog.String("type", string(req.Type)))
		return
	}
	t := now()
	event := domain.OutboxEvent{
		EventID:     newID(),
		Topic:       domain.TopicNotificationRequested,
		Payload:     payload,
		AvailableAt: t,
		CreatedAt:   t,
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to enqueue notification",
			slog.String("type", string(req.Type)),
			slog.String("entity_id", req.EntityID))
		return
	}
	metrics.Outbox().EnqueueTotal.WithLabelValues(event.Topic).Inc()
	s.LogDebug(ctx, "Notification enqueued", slog.String("event_id", event.EventID), slog.String("type", string(req.Type)))
}

// Dispatch delivers one outbox event. Errors make the relay retry the event.
func (s *notificationService) Dispatch(ctx context.Context, event domain.OutboxEvent) error {
	if event.Topic != domain.TopicNotificationRequested {
		return fmt.Errorf("unsupported outbox topic %q", event.Topic)
	}
	var req domain.NotificationRequest
	if err := json.Unmarshal(event.Payload, &req); err != nil {
		return fmt.Errorf("decode notification payload: %w", err)
	}
	// One notification per event, so a redelivered event is a no-op.
	_, err := s.deliver(ctx, event.EventID, req)
	return err
}

// Deliver stores req as a notification. An empty recipient list is expanded to
// every privileged user at delivery time.
func (s *notificationService) Deliver(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	return s.deliver(ctx, newID(), req)
}

func (s *notificationService) deliver(ctx context.Context, notificationID string, req domain.NotificationRequest) (*domain.Notification, error) {
	recipients := dedupe(req.Recipients)
	if len(recipients) == 0 {
		ids, err := s.userRepo.FindPrivilegedUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load privileged users: %w", err)
		}
		recipients = ids
	}
	if len(recipients) == 0 {
		s.LogInfo(ctx, "Notification has no recipients, dropped", slog.String("type", string(req.Type)))
		return nil, nil
	}

	n := domain.Notification{
		NotificationID: notificationID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		Recipients:     recipients,
		CreatedBy:      req.CreatedBy,
		CreatedByName:  req.CreatedByName,
		ReadBy:         []domain.ReadReceipt{},
		CreatedAt:      now(),
	}
	if req.EntityID != "" {
		n.EntityID = strPtr(req.EntityID)
	}
	if req.EntityName != "" {
		n.EntityName = strPtr(req.EntityName)
	}
	if err := s.repo.SaveNotification(ctx, n); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Notification delivered",
		slog.String("notification_id", n.NotificationID),
		slog.String("type", string(n.Type)),
		slog.Int("recipients", len(recipients)))
	return &n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error) {
	return s.repo.FindNotificationsForUser(ctx, userID, page.Normalize())
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.MarkRead(ctx, notificationID, userID, now()); err != nil {
		return wrapNotFound(err, "notification")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID, now())
}

// Delete removes the caller from the recipients; other recipients keep the notification.
func (s *notificationService) Delete(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.RemoveRecipient(ctx, notificationID, userID); err != nil {
		return wrapNotFound(err, "notification")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// wrapNotFound names the missing resource on a bare ErrNotFound.
func wrapNotFound(err error, resource string) error {
	if err == apperrors.ErrNotFound {
		return apperrors.NewNotFoundError(resource)
	}
	return err
}
