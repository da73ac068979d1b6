package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type contoHandler struct {
	contoService  portssvc.ContoSvcFacade
	maxUploadSize int64
}

func registerContoRoutes(rg *gin.RouterGroup, contoService portssvc.ContoSvcFacade, maxUploadSize int64) {
	h := &contoHandler{contoService: contoService, maxUploadSize: maxUploadSize}

	conto := rg.Group("/conto")
	{
		conto.GET("", h.listEntries)
		conto.GET("/balance", h.getBalance)
		conto.GET("/export", h.export)
		conto.POST("/commissions", h.recordCommission)
		conto.POST("/entries", h.createManualEntry)
		conto.POST("/import", h.importWorkbook)
	}
}

// recordCommission godoc
// @Summary Book a commission
// @Description Splits the gross amount along the company's owner chain. The platform keeps the remainder. Privileged only.
// @Tags conto
// @Accept json
// @Produce json
// @Param body body dto.CommissionRequest true "Commission"
// @Success 201 {object} domain.CommissionSplit
// @Failure 400 {object} ValidationErrorResponse "Invalid amount, unapproved company or reference already booked"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto/commissions [post]
func (h *contoHandler) recordCommission(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	split, err := h.contoService.RecordCommission(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to record commission")
		return
	}
	logger.Info("Commission booked", slog.String("company_id", split.CompanyID), slog.String("gross", split.Gross.StringFixed(2)))
	c.JSON(http.StatusCreated, split)
}

// createManualEntry godoc
// @Summary Book a manual ledger entry
// @Tags conto
// @Accept json
// @Produce json
// @Param body body dto.ManualEntryRequest true "Entry"
// @Success 201 {object} domain.ContoEntry
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto/entries [post]
func (h *contoHandler) createManualEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	entry, err := h.contoService.CreateManualEntry(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create conto entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// importWorkbook godoc
// @Summary Import a commission spreadsheet
// @Description Rows are partita IVA, amount, date and description. Matched rows are booked in one transaction;
// @Description unmatched rows are reported with the reason.
// @Tags conto
// @Accept mpfd
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto/import [post]
func (h *contoHandler) importWorkbook(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"file is required"}})
		return
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"file exceeds the maximum upload size"}})
		return
	}
	f, err := fh.Open()
	if err != nil {
		handleServiceError(c, logger, err, "Failed to open uploaded workbook")
		return
	}
	defer f.Close()

	result, err := h.contoService.ImportWorkbook(c.Request.Context(), actor, f)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to import workbook")
		return
	}
	logger.Info("Workbook imported", slog.Int("processed", result.Processed), slog.Int("unmatched", len(result.Unmatched)))
	c.JSON(http.StatusOK, result)
}

// listEntries godoc
// @Summary List ledger entries
// @Description Entries of the users inside the caller's scope; privileged users also see platform shares.
// @Tags conto
// @Produce json
// @Param companyId query string false "Company"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListContoResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto [get]
func (h *contoHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListContoParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	entries, total, err := h.contoService.ListEntries(c.Request.Context(), actor, params)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list conto entries")
		return
	}
	page := pageOf(params.Limit, params.Offset)
	c.JSON(http.StatusOK, dto.ListContoResponse{Entries: entries, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// getBalance godoc
// @Summary Ledger balance of a user
// @Description Defaults to the caller. Other users must be inside the caller's scope.
// @Tags conto
// @Produce json
// @Param userId query string false "User"
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto/balance [get]
func (h *contoHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var userID *string
	if v := c.Query("userId"); v != "" {
		userID = &v
	}

	balance, err := h.contoService.GetBalance(c.Request.Context(), actor, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to compute balance")
		return
	}
	if userID == nil {
		userID = &actor.UserID
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{UserID: userID, Balance: balance})
}

// export godoc
// @Summary Export ledger entries as xlsx
// @Description Same filters as the listing; paging is ignored and every visible entry is exported.
// @Tags conto
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param companyId query string false "Company"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /conto/export [get]
func (h *contoHandler) export(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListContoParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.contoService.ExportWorkbook(c.Request.Context(), actor, params, &buf); err != nil {
		handleServiceError(c, logger, err, "Failed to export conto")
		return
	}

	fileName := fmt.Sprintf("conto-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
