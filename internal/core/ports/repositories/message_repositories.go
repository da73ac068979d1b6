package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type MessageRepository interface {
	SaveMessage(ctx context.Context, message domain.Message) error
	FindInbox(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error)
	FindSent(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error)
	// MarkMessageRead returns ErrNotFound unless recipientID received the message.
	MarkMessageRead(ctx context.Context, messageID, recipientID string, at time.Time) error
	CountUnreadMessages(ctx context.Context, userID string) (int, error)
}
