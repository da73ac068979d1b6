package dto

import (
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// EntityRequest is the create payload shared by every owned entity kind.
// Which fields are mandatory depends on the kind.
type EntityRequest struct {
	Name       string         `json:"name" binding:"max=255"`
	VATNumber  *string        `json:"vatNumber" binding:"omitempty,partitaiva"`
	TaxCode    *string        `json:"taxCode" binding:"omitempty,codicefiscale"`
	Email      *string        `json:"email" binding:"omitempty,email"`
	Phone      *string        `json:"phone" binding:"omitempty,max=32"`
	Address    *string        `json:"address" binding:"omitempty,max=255"`
	City       *string        `json:"city" binding:"omitempty,max=120"`
	Province   *string        `json:"province" binding:"omitempty,len=2"`
	PostalCode *string        `json:"postalCode" binding:"omitempty,numeric,len=5"`
	CompanyID  *string        `json:"companyId" binding:"omitempty,uuid"`
	// OwnerID lets a privileged creator assign the record to another user.
	OwnerID    *string        `json:"ownerId" binding:"omitempty,uuid"`
	Attributes map[string]any `json:"attributes"`
}

// UpdateEntityRequest uses pointers so omitted fields are left untouched.
type UpdateEntityRequest struct {
	Name       *string        `json:"name" binding:"omitempty,min=1,max=255"`
	VATNumber  *string        `json:"vatNumber" binding:"omitempty,partitaiva"`
	TaxCode    *string        `json:"taxCode" binding:"omitempty,codicefiscale"`
	Email      *string        `json:"email" binding:"omitempty,email"`
	Phone      *string        `json:"phone" binding:"omitempty,max=32"`
	Address    *string        `json:"address" binding:"omitempty,max=255"`
	City       *string        `json:"city" binding:"omitempty,max=120"`
	Province   *string        `json:"province" binding:"omitempty,len=2"`
	PostalCode *string        `json:"postalCode" binding:"omitempty,numeric,len=5"`
	CompanyID  *string        `json:"companyId" binding:"omitempty,uuid"`
	Attributes map[string]any `json:"attributes"`
}

// UploadedFile is an uploaded document read from a multipart request.
type UploadedFile struct {
	FileName string
	Content  []byte
}

// ListEntitiesParams defines query parameters for listing entities.
type ListEntitiesParams struct {
	Search    string `form:"search"`
	CompanyID string `form:"companyId" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Limit     int    `form:"limit,default=50"`
	Offset    int    `form:"offset,default=0"`
}

type EntityResponse struct {
	ID              string              `json:"id"`
	Kind            string              `json:"kind"`
	OwnerID         string              `json:"ownerId"`
	Name            string              `json:"name"`
	VATNumber       *string             `json:"vatNumber,omitempty"`
	TaxCode         *string             `json:"taxCode,omitempty"`
	Email           *string             `json:"email,omitempty"`
	Phone           *string             `json:"phone,omitempty"`
	Address         *string             `json:"address,omitempty"`
	City            *string             `json:"city,omitempty"`
	Province        *string             `json:"province,omitempty"`
	PostalCode      *string             `json:"postalCode,omitempty"`
	CompanyID       *string             `json:"companyId,omitempty"`
	Attributes      map[string]any      `json:"attributes,omitempty"`
	Attachments     []domain.Attachment `json:"attachments"`
	Status          *string             `json:"status,omitempty"`
	IsApproved      *bool               `json:"isApproved,omitempty"`
	PendingApproval *bool               `json:"pendingApproval,omitempty"`
	IsActive        *bool               `json:"isActive,omitempty"`
	ApprovedBy      *string             `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `json:"approvedAt,omitempty"`
	RejectedBy      *string             `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time          `json:"rejectedAt,omitempty"`
	RejectionReason *string             `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	CreatedBy       string              `json:"createdBy"`
	LastUpdatedAt   time.Time           `json:"lastUpdatedAt"`
	LastUpdatedBy   string              `json:"lastUpdatedBy"`
}

type ListEntitiesResponse struct {
	Items  []EntityResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func ToEntityResponse(e *domain.Entity) EntityResponse {
	resp := EntityResponse{
		ID:            e.EntityID,
		Kind:          string(e.Kind),
		OwnerID:       e.OwnerID,
		Name:          e.Name,
		VATNumber:     e.VATNumber,
		TaxCode:       e.TaxCode,
		Email:         e.Email,
		Phone:         e.Phone,
		Address:       e.Address,
		City:          e.City,
		Province:      e.Province,
		PostalCode:    e.PostalCode,
		CompanyID:     e.CompanyID,
		Attributes:    e.Attributes,
		Attachments:   e.Attachments,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
		LastUpdatedAt: e.LastUpdatedAt,
		LastUpdatedBy: e.LastUpdatedBy,
	}
	if resp.Attachments == nil {
		resp.Attachments = []domain.Attachment{}
	}
	if e.Approval != nil {
		status := string(e.Approval.Current())
		approved := e.Approval.IsApproved()
		pending := e.Approval.IsPendingApproval()
		active := e.Approval.IsActive()
		resp.Status = &status
		resp.IsApproved = &approved
		resp.PendingApproval = &pending
		resp.IsActive = &active
		resp.ApprovedBy = e.Approval.ApprovedBy
		resp.ApprovedAt = e.Approval.ApprovedAt
		resp.RejectedBy = e.Approval.RejectedBy
		resp.RejectedAt = e.Approval.RejectedAt
		resp.RejectionReason = e.Approval.RejectionReason
	}
	return resp
}

func ToListEntitiesResponse(entities []domain.Entity, total int, page domain.Page) ListEntitiesResponse {
	items := make([]EntityResponse, len(entities))
	for i := range entities {
		items[i] = ToEntityResponse(&entities[i])
	}
	return ListEntitiesResponse{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
}
