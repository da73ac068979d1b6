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

type PgxMessageRepository struct {
	BaseRepository
}

func newPgxMessageRepository(pool *pgxpool.Pool) portsrepo.MessageRepository {
	return &PgxMessageRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MessageRepository = (*PgxMessageRepository)(nil)

const messageSelect = `
	SELECT message_id, sender_id, recipient_id, subject, body, read_at, created_at
	FROM messages `

func (r *PgxMessageRepository) getMessages(ctx context.Context, filterQuery string, args ...any) ([]domain.Message, error) {
	rows, err := r.db(ctx).Query(ctx, messageSelect+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query messages", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Message])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect messages", err)
	}
	return mapping.ToDomainMessageSlice(ms), nil
}

func (r *PgxMessageRepository) SaveMessage(ctx context.Context, message domain.Message) error {
	m := mapping.ToModelMessage(message)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO messages (message_id, sender_id, recipient_id, subject, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		m.MessageID, m.SenderID, m.RecipientID, m.Subject, m.Body, m.ReadAt, m.CreatedAt,
	)
	if err != nil {
		return translateWriteError(err, "failed to save message")
	}
	return nil
}

func (r *PgxMessageRepository) FindInbox(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error) {
	page = page.Normalize()
	return r.getMessages(ctx, "WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3", userID, page.Limit, page.Offset)
}

func (r *PgxMessageRepository) FindSent(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error) {
	page = page.Normalize()
	return r.getMessages(ctx, "WHERE sender_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3", userID, page.Limit, page.Offset)
}

func (r *PgxMessageRepository) MarkMessageRead(ctx context.Context, messageID, recipientID string, at time.Time) error {
	cmdTag, err := r.db(ctx).Exec(ctx,
		"UPDATE messages SET read_at = COALESCE(read_at, $3) WHERE message_id = $1 AND recipient_id = $2",
		messageID, recipientID, at,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark message read", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("message")
	}
	return nil
}

func (r *PgxMessageRepository) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL", userID,
	).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count unread messages", err)
	}
	return n, nil
}
