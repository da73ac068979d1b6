package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
)

type messageService struct {
	BaseService
	scopeGuard
	messageRepo portsrepo.MessageRepository
	userRepo    portsrepo.UserReader
}

// NewMessageService creates the direct messaging service.
func NewMessageService(messageRepo portsrepo.MessageRepository, userRepo portsrepo.UserReader, scope portssvc.ScopeResolverSvc, authorizer portssvc.PermissionChecker) portssvc.MessageSvc {
	return &messageService{
		BaseService: BaseService{Authorizer: authorizer},
		scopeGuard:  scopeGuard{scope: scope},
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SendMessage allows writing to users in scope, to one's own manager, and between
// anyone and a privileged user.
func (s *messageService) SendMessage(ctx context.Context, actor domain.Actor, recipientID, subject, body string) (*domain.Message, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectMessage, authz.ActionSend); err != nil {
		return nil, err
	}
	if recipientID == actor.UserID {
		return nil, apperrors.NewValidationFailedError("you cannot send a message to yourself")
	}
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, apperrors.NewValidationFailedError("subject and body are required")
	}

	recipient, err := s.userRepo.FindUserByID(ctx, recipientID)
	if err != nil {
		return nil, wrapNotFound(err, "recipient")
	}
	if err := s.canMessage(ctx, actor, recipient); err != nil {
		return nil, err
	}

	msg := domain.Message{
		MessageID:   newID(),
		SenderID:    actor.UserID,
		RecipientID: recipient.UserID,
		Subject:     subject,
		Body:        body,
		CreatedAt:   now(),
	}
	if err := s.messageRepo.SaveMessage(ctx, msg); err != nil {
		s.LogError(ctx, err, "Failed to save message")
		return nil, err
	}
	s.LogInfo(ctx, "Message sent", slog.String("message_id", msg.MessageID), slog.String("recipient_id", recipient.UserID))
	return &msg, nil
}

func (s *messageService) canMessage(ctx context.Context, actor domain.Actor, recipient *domain.User) error {
	if actor.IsPrivileged() || recipient.Role.IsPrivileged() {
		return nil
	}
	sender, err := s.userRepo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if sender.ManagedBy != nil && *sender.ManagedBy == recipient.UserID {
		return nil
	}
	return s.ensureVisible(ctx, actor, recipient.UserID)
}

func (s *messageService) ListInbox(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Message, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectMessage, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.messageRepo.FindInbox(ctx, actor.UserID, page.Normalize())
}

func (s *messageService) ListSent(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Message, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectMessage, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.messageRepo.FindSent(ctx, actor.UserID, page.Normalize())
}

// MarkRead only succeeds for the recipient of the message.
func (s *messageService) MarkRead(ctx context.Context, actor domain.Actor, messageID string) error {
	if err := s.messageRepo.MarkMessageRead(ctx, messageID, actor.UserID, now()); err != nil {
		return wrapNotFound(err, "message")
	}
	return nil
}
