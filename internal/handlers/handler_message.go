package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

type messageHandler struct {
	messageService portssvc.MessageSvc
}

func registerMessageRoutes(rg *gin.RouterGroup, messageService portssvc.MessageSvc) {
	h := &messageHandler{messageService: messageService}

	messages := rg.Group("/messages")
	{
		messages.POST("", h.send)
		messages.GET("/inbox", h.inbox)
		messages.GET("/sent", h.sent)
		messages.PUT("/:id/read", h.markRead)
	}
}

// send godoc
// @Summary Send a message
// @Description The recipient must be inside the sender's scope or be the sender's manager; privileged users message anyone.
// @Tags messages
// @Accept json
// @Produce json
// @Param body body dto.SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /messages [post]
func (h *messageHandler) send(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	msg, err := h.messageService.SendMessage(c.Request.Context(), actor, req.RecipientID, req.Subject, req.Body)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// inbox godoc
// @Summary Messages received
// @Tags messages
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListMessagesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /messages/inbox [get]
func (h *messageHandler) inbox(c *gin.Context) {
	h.list(c, h.messageService.ListInbox)
}

// sent godoc
// @Summary Messages sent
// @Tags messages
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListMessagesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /messages/sent [get]
func (h *messageHandler) sent(c *gin.Context) {
	h.list(c, h.messageService.ListSent)
}

type messageLister func(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Message, error)

func (h *messageHandler) list(c *gin.Context, fetch messageLister) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListMessagesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	msgs, err := fetch(c.Request.Context(), actor, domain.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, dto.ListMessagesResponse{Messages: msgs})
}

// markRead godoc
// @Summary Mark a received message as read
// @Tags messages
// @Param id path string true "Message ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /messages/{id}/read [put]
func (h *messageHandler) markRead(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleServiceError(c, logger, err, "Failed to mark message as read")
		return
	}
	c.Status(http.StatusNoContent)
}
