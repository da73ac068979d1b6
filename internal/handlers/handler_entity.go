package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

const (
	payloadField   = "payload"
	documentsField = "documents"
	maxDocuments   = 10
)

// entityRoutes maps each URL collection to the entity kind it serves.
var entityRoutes = []struct {
	path string
	kind domain.EntityKind
}{
	{"/companies", domain.KindCompany},
	{"/agenti", domain.KindAgente},
	{"/sportelli", domain.KindSportello},
	{"/segnalatori", domain.KindSegnalatore},
	{"/suppliers", domain.KindSupplier},
	{"/projects", domain.KindProject},
	{"/employees", domain.KindEmployee},
}

// entityHandler serves one entity kind. Every kind shares the same handler code.
type entityHandler struct {
	entityService portssvc.EntitySvcFacade
	kind          domain.EntityKind
	maxUploadSize int64
}

// registerEntityRoutes registers the CRUD and attachment routes of every entity kind.
func registerEntityRoutes(rg *gin.RouterGroup, entityService portssvc.EntitySvcFacade, maxUploadSize int64) {
	for _, r := range entityRoutes {
		h := &entityHandler{entityService: entityService, kind: r.kind, maxUploadSize: maxUploadSize}
		group := rg.Group(r.path)
		{
			group.GET("", h.listEntities)
			group.GET("/:id", h.getEntity)
			group.POST("", h.createEntity)
			group.PUT("/:id", h.updateEntity)
			group.DELETE("/:id", h.deleteEntity)
			group.POST("/:id/attachments", h.addAttachments)
		}
	}
}

// listEntities godoc
// @Summary List records of a kind
// @Description Lists the records owned by users inside the caller's scope. Same contract for
// @Description companies, agenti, sportelli, segnalatori, suppliers, projects and employees.
// @Tags entities
// @Produce json
// @Param search query string false "Name, VAT number or tax code contains"
// @Param companyId query string false "Parent company"
// @Param status query string false "pending, approved or rejected"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListEntitiesResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies [get]
func (h *entityHandler) listEntities(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListEntitiesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	entities, total, err := h.entityService.ListEntities(c.Request.Context(), actor, h.kind, params)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list "+string(h.kind))
		return
	}
	c.JSON(http.StatusOK, dto.ToListEntitiesResponse(entities, total, pageOf(params.Limit, params.Offset)))
}

// getEntity godoc
// @Summary Get a record
// @Tags entities
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.EntityResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Owner outside the caller's scope"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies/{id} [get]
func (h *entityHandler) getEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	entity, err := h.entityService.GetEntity(c.Request.Context(), actor, h.kind, c.Param("id"))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get "+string(h.kind))
		return
	}
	c.JSON(http.StatusOK, dto.ToEntityResponse(entity))
}

// createEntity godoc
// @Summary Create a record
// @Description Accepts a JSON body, or a multipart form with a JSON `payload` field and `documents` files.
// @Description Records created by roles that require approval start pending and notify the administrators.
// @Tags entities
// @Accept json,mpfd
// @Produce json
// @Param entity body dto.EntityRequest false "Record (JSON requests)"
// @Param payload formData string false "Record as JSON (multipart requests)"
// @Param documents formData file false "Attachments (multipart requests)"
// @Success 201 {object} dto.EntityResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies [post]
func (h *entityHandler) createEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.EntityRequest
	var files []dto.UploadedFile
	if isMultipart(c) {
		form, err := h.parseMultipart(c)
		if err != nil {
			handleServiceError(c, logger, err, "Failed to parse multipart request")
			return
		}
		payload := firstValue(form, payloadField)
		if payload == "" {
			c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"payload is required"}})
			return
		}
		if err := binding.JSON.BindBody([]byte(payload), &req); err != nil {
			handleBindError(c, logger, err)
			return
		}
		if files, err = h.readDocuments(form); err != nil {
			handleServiceError(c, logger, err, "Failed to read uploaded documents")
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	entity, err := h.entityService.CreateEntity(c.Request.Context(), actor, h.kind, req, files)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create "+string(h.kind))
		return
	}

	logger.Info("Record created", slog.String("kind", string(h.kind)), slog.String("entity_id", entity.EntityID))
	c.JSON(http.StatusCreated, dto.ToEntityResponse(entity))
}

// updateEntity godoc
// @Summary Update a record
// @Description Omitted fields are left untouched. Approval state cannot be changed here.
// @Tags entities
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param entity body dto.UpdateEntityRequest true "Fields to update"
// @Success 200 {object} dto.EntityResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies/{id} [put]
func (h *entityHandler) updateEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	entity, err := h.entityService.UpdateEntity(c.Request.Context(), actor, h.kind, c.Param("id"), req)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to update "+string(h.kind))
		return
	}
	c.JSON(http.StatusOK, dto.ToEntityResponse(entity))
}

// deleteEntity godoc
// @Summary Delete a record
// @Description Removes the record and its uploaded documents.
// @Tags entities
// @Param id path string true "Record ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies/{id} [delete]
func (h *entityHandler) deleteEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.entityService.DeleteEntity(c.Request.Context(), actor, h.kind, c.Param("id")); err != nil {
		handleServiceError(c, logger, err, "Failed to delete "+string(h.kind))
		return
	}
	c.Status(http.StatusNoContent)
}

// addAttachments godoc
// @Summary Attach documents to a record
// @Tags entities
// @Accept mpfd
// @Produce json
// @Param id path string true "Record ID"
// @Param documents formData file true "Attachments"
// @Success 200 {object} dto.EntityResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies/{id}/attachments [post]
func (h *entityHandler) addAttachments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if !isMultipart(c) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"documents must be sent as multipart/form-data"}})
		return
	}
	form, err := h.parseMultipart(c)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to parse multipart request")
		return
	}
	files, err := h.readDocuments(form)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to read uploaded documents")
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: []string{"documents is required"}})
		return
	}

	entity, err := h.entityService.AddAttachments(c.Request.Context(), actor, h.kind, c.Param("id"), files)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to add attachments")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntityResponse(entity))
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func (h *entityHandler) parseMultipart(c *gin.Context) (*multipart.Form, error) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize*maxDocuments+(1<<20))
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationFailedError("invalid multipart request: " + err.Error())
	}
	return form, nil
}

func (h *entityHandler) readDocuments(form *multipart.Form) ([]dto.UploadedFile, error) {
	headers := form.File[documentsField]
	if len(headers) > maxDocuments {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("at most %d documents per request", maxDocuments))
	}
	files := make([]dto.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("%s exceeds the maximum upload size", fh.Filename))
		}
		content, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, dto.UploadedFile{FileName: fh.Filename, Content: content})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
