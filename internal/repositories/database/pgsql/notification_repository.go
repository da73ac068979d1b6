package pgsql

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/impresahub/impresa_backend/internal/models"
	"github.com/impresahub/impresa_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(pool *pgxpool.Pool) portsrepo.NotificationRepository {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepository = (*PgxNotificationRepository)(nil)

// SaveNotification inserts the notification and its recipient rows atomically.
// Saving an ID that already exists leaves the stored row and its recipients untouched.
func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, notification domain.Notification) error {
	row, recipients := mapping.ToModelNotification(notification)
	userIDs := make([]string, len(recipients))
	for i, rec := range recipients {
		userIDs[i] = rec.UserID
	}

	tx, err := r.db(ctx).Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cmdTag, err := tx.Exec(ctx, `
		INSERT INTO notifications (
			notification_id, title, message, type, created_by, created_by_name,
			entity_id, entity_name, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (notification_id) DO NOTHING;`,
		row.NotificationID, row.Title, row.Message, row.Type, row.CreatedBy, row.CreatedByName,
		row.EntityID, row.EntityName, row.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save notification", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil
	}
	if len(userIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO notification_recipients (notification_id, user_id)
			SELECT $1, u FROM unnest($2::uuid[]) AS u
			ON CONFLICT DO NOTHING;`,
			row.NotificationID, userIDs,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to save notification recipients", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit notification", err)
	}
	return nil
}

func (r *PgxNotificationRepository) FindNotificationsForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error) {
	page = page.Normalize()
	rows, err := r.db(ctx).Query(ctx, `
		SELECT n.notification_id, n.title, n.message, n.type, n.created_by, n.created_by_name,
			n.entity_id, n.entity_name, n.created_at
		FROM notifications n
		JOIN notification_recipients nr ON nr.notification_id = n.notification_id
		WHERE nr.user_id = $1
		ORDER BY n.created_at DESC, n.notification_id
		LIMIT $2 OFFSET $3;`,
		userID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query notifications", err)
	}
	heads, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Notification])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect notification rows", err)
	}
	if len(heads) == 0 {
		return []domain.Notification{}, nil
	}

	ids := make([]string, len(heads))
	for i, h := range heads {
		ids[i] = h.NotificationID
	}
	rows, err = r.db(ctx).Query(ctx, `
		SELECT notification_id, user_id, read_at
		FROM notification_recipients
		WHERE notification_id = ANY($1)
		ORDER BY user_id;`,
		ids,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query notification recipients", err)
	}
	recipients, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.NotificationRecipient])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect notification recipients", err)
	}
	byID := make(map[string][]models.NotificationRecipient, len(heads))
	for _, rec := range recipients {
		byID[rec.NotificationID] = append(byID[rec.NotificationID], rec)
	}

	out := make([]domain.Notification, len(heads))
	for i, h := range heads {
		out[i] = mapping.ToDomainNotification(h, byID[h.NotificationID])
	}
	return out, nil
}

func (r *PgxNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM notification_recipients WHERE user_id = $1 AND read_at IS NULL",
		userID,
	).Scan(&n)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count unread notifications", err)
	}
	return n, nil
}

func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error {
	cmdTag, err := r.db(ctx).Exec(ctx, `
		UPDATE notification_recipients
		SET read_at = COALESCE(read_at, $3)
		WHERE notification_id = $1 AND user_id = $2;`,
		notificationID, userID, at,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark notification read", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("notification")
	}
	return nil
}

func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	cmdTag, err := r.db(ctx).Exec(ctx,
		"UPDATE notification_recipients SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL",
		userID, at,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to mark notifications read", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *PgxNotificationRepository) RemoveRecipient(ctx context.Context, notificationID, userID string) error {
	tx, err := r.db(ctx).Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cmdTag, err := tx.Exec(ctx,
		"DELETE FROM notification_recipients WHERE notification_id = $1 AND user_id = $2",
		notificationID, userID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to remove notification recipient", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("notification")
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM notifications n
		WHERE n.notification_id = $1
			AND NOT EXISTS (SELECT 1 FROM notification_recipients nr WHERE nr.notification_id = n.notification_id);`,
		notificationID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete orphaned notification", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit notification removal", err)
	}
	return nil
}

func (r *PgxNotificationRepository) DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db(ctx).Exec(ctx, "DELETE FROM notifications WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete old notifications", err)
	}
	return cmdTag.RowsAffected(), nil
}
