package services

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type MessageSvc interface {
	SendMessage(ctx context.Context, actor domain.Actor, recipientID, subject, body string) (*domain.Message, error)
	ListInbox(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Message, error)
	ListSent(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Message, error)
	MarkRead(ctx context.Context, actor domain.Actor, messageID string) error
}
