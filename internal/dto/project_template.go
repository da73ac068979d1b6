package dto

import "github.com/impresahub/impresa_backend/internal/core/domain"

type CreateProjectTemplateRequest struct {
	Name        string         `json:"name" binding:"required,max=255"`
	Description string         `json:"description" binding:"max=2000"`
	Attributes  map[string]any `json:"attributes"`
}

type InstantiateTemplateRequest struct {
	CompanyIDs []string `json:"companyIds" binding:"required,min=1,max=500,dive,uuid"`
}

type InstantiateTemplateResponse struct {
	Projects []EntityResponse `json:"projects"`
	Created  int              `json:"created"`
}

type ListProjectTemplatesResponse struct {
	Templates []domain.ProjectTemplate `json:"templates"`
}

type ListProjectTemplatesParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}
