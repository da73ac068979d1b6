package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Authorizer portssvc.PermissionChecker
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// AuthorizeActor checks the role permission matrix for actor.
// Without an authorizer every request is denied.
func (s *BaseService) AuthorizeActor(ctx context.Context, actor domain.Actor, object, action string) error {
	if s.Authorizer == nil {
		s.LogDebug(ctx, "No authorizer configured, access denied",
			slog.String("object", object),
			slog.String("action", action))
		return apperrors.NewForbiddenError("no authorizer configured")
	}
	if err := s.Authorizer.Authorize(actor.Role, object, action); err != nil {
		s.LogDebug(ctx, "Permission denied",
			slog.String("user_id", actor.UserID),
			slog.String("object", object),
			slog.String("action", action))
		return err
	}
	return nil
}

// requirePrivileged returns ErrForbidden unless actor is admin or super admin.
func requirePrivileged(actor domain.Actor) error {
	if !actor.IsPrivileged() {
		return apperrors.NewForbiddenError("privileged role required")
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func strPtr(s string) *string {
	return &s
}
