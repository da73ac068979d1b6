package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

type approvalHandler struct {
	approvalService portssvc.ApprovalSvc
}

func registerApprovalRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvc) {
	h := &approvalHandler{approvalService: approvalService}

	approvals := rg.Group("/approvals")
	{
		approvals.GET("/pending", h.listPending)
		approvals.POST("/approve/:type/:id", h.approve)
		approvals.POST("/reject/:type/:id", h.reject)
	}
}

// listPending godoc
// @Summary List records awaiting approval
// @Description Pending users and approval-bearing records, oldest first, with per-type counts. Privileged only.
// @Tags approvals
// @Produce json
// @Success 200 {object} dto.PendingApprovalsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/pending [get]
func (h *approvalHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	items, err := h.approvalService.ListPending(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list pending approvals")
		return
	}
	c.JSON(http.StatusOK, dto.ToPendingApprovalsResponse(items))
}

// approve godoc
// @Summary Approve a pending record
// @Description Approving an already approved record changes nothing. Rejected records cannot be approved.
// @Tags approvals
// @Produce json
// @Param type path string true "user, company, agente, sportello or segnalatore"
// @Param id path string true "Record ID"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/approve/{type}/{id} [post]
func (h *approvalHandler) approve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	outcome, err := h.approvalService.Approve(c.Request.Context(), actor, c.Param("type"), c.Param("id"))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to approve record")
		return
	}
	logger.Info("Approval decided", slog.String("type", string(outcome.Type)), slog.String("id", outcome.ID), slog.Bool("changed", outcome.Changed))
	c.JSON(http.StatusOK, dto.ToApprovalResponse(outcome))
}

// reject godoc
// @Summary Reject a pending record
// @Description The optional reason is shown to the owner. Approved records cannot be rejected.
// @Tags approvals
// @Accept json
// @Produce json
// @Param type path string true "user, company, agente, sportello or segnalatore"
// @Param id path string true "Record ID"
// @Param body body dto.RejectRequest false "Rejection reason"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /approvals/reject/{type}/{id} [post]
func (h *approvalHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleBindError(c, logger, err)
			return
		}
	}

	outcome, err := h.approvalService.Reject(c.Request.Context(), actor, c.Param("type"), c.Param("id"), req.Reason)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to reject record")
		return
	}
	logger.Info("Approval decided", slog.String("type", string(outcome.Type)), slog.String("id", outcome.ID), slog.Bool("changed", outcome.Changed))
	c.JSON(http.StatusOK, dto.ToApprovalResponse(outcome))
}
