package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

func registerNotificationRoutes(rg *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	h := &notificationHandler{notificationService: notificationService}

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.list)
		notifications.GET("/unread-count", h.unreadCount)
		notifications.PUT("/read-all", h.markAllRead)
		notifications.PUT("/:id/read", h.markRead)
		notifications.DELETE("/:id", h.delete)
	}
}

// list godoc
// @Summary List my notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.NotificationResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications [get]
func (h *notificationHandler) list(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListNotificationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	ns, err := h.notificationService.ListForUser(c.Request.Context(), actor.UserID, domain.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, dto.ToNotificationResponses(ns, actor.UserID))
}

// unreadCount godoc
// @Summary Count my unread notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *notificationHandler) unreadCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), actor.UserID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to count unread notifications")
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// markRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [put]
func (h *notificationHandler) markRead(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), actor.UserID); err != nil {
		handleServiceError(c, logger, err, "Failed to mark notification as read")
		return
	}
	c.Status(http.StatusNoContent)
}

// markAllRead godoc
// @Summary Mark all my notifications as read
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.MarkAllReadResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/read-all [put]
func (h *notificationHandler) markAllRead(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), actor.UserID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to mark notifications as read")
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}

// delete godoc
// @Summary Remove a notification from my list
// @Description Other recipients keep their copy; the notification is gone once nobody holds it.
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *notificationHandler) delete(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), c.Param("id"), actor.UserID); err != nil {
		handleServiceError(c, logger, err, "Failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
