package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/middleware"
	"github.com/impresahub/impresa_backend/internal/utils/validation"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error string `json:"error" example:"Forbidden"`
}

// ValidationErrorResponse lists every failed rule of a rejected request.
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// handleServiceError maps service errors to status codes. Unexpected errors are
// logged with msg and answered with a generic 500.
func handleServiceError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	var verr *apperrors.ValidationError
	var cerr *apperrors.ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: verr.Messages})
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{cerr.Error()}})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{err.Error()}})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{err.Error()}})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// handleBindError answers a request whose body or query failed binding.
func handleBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Debug("Request binding failed", slog.String("error", err.Error()))
	var verr *apperrors.ValidationError
	if errors.As(validation.ToValidationError(err), &verr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: verr.Messages})
		return
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"invalid request body"}})
}

// requireActor returns the authenticated caller or answers 401.
func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}

func pageOf(limit, offset int) domain.Page {
	return domain.Page{Limit: limit, Offset: offset}.Normalize()
}
