package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

type templateHandler struct {
	templateService portssvc.ProjectTemplateSvc
}

func registerProjectTemplateRoutes(rg *gin.RouterGroup, templateService portssvc.ProjectTemplateSvc) {
	h := &templateHandler{templateService: templateService}

	templates := rg.Group("/project-templates")
	{
		templates.POST("", h.create)
		templates.GET("", h.list)
		templates.POST("/:id/instantiate", h.instantiate)
	}
}

// create godoc
// @Summary Create a project template
// @Tags project-templates
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectTemplateRequest true "Template"
// @Success 201 {object} domain.ProjectTemplate
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /project-templates [post]
func (h *templateHandler) create(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	tmpl, err := h.templateService.CreateTemplate(c.Request.Context(), actor, req.Name, req.Description, req.Attributes)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create project template")
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// list godoc
// @Summary List project templates
// @Tags project-templates
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListProjectTemplatesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /project-templates [get]
func (h *templateHandler) list(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListProjectTemplatesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handleBindError(c, logger, err)
		return
	}

	templates, err := h.templateService.ListTemplates(c.Request.Context(), actor, domain.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list project templates")
		return
	}
	if templates == nil {
		templates = []domain.ProjectTemplate{}
	}
	c.JSON(http.StatusOK, dto.ListProjectTemplatesResponse{Templates: templates})
}

// instantiate godoc
// @Summary Create one project per company from a template
// @Description Every company must be inside the caller's scope; either all projects are created or none.
// @Tags project-templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param body body dto.InstantiateTemplateRequest true "Companies"
// @Success 201 {object} dto.InstantiateTemplateResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /project-templates/{id}/instantiate [post]
func (h *templateHandler) instantiate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.InstantiateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	projects, err := h.templateService.Instantiate(c.Request.Context(), actor, c.Param("id"), req.CompanyIDs)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to instantiate project template")
		return
	}

	resp := dto.InstantiateTemplateResponse{Projects: make([]dto.EntityResponse, len(projects)), Created: len(projects)}
	for i := range projects {
		resp.Projects[i] = dto.ToEntityResponse(&projects[i])
	}
	logger.Info("Project template instantiated", slog.String("template_id", c.Param("id")), slog.Int("created", len(projects)))
	c.JSON(http.StatusCreated, resp)
}
