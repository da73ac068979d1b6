package dto

import (
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// RejectRequest carries the optional free-text rejection reason.
type RejectRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=2000"`
}

type PendingApprovalsResponse struct {
	Items  []domain.PendingItem `json:"items"`
	Counts map[string]int       `json:"counts"`
	Total  int                  `json:"total"`
}

type ApprovalResponse struct {
	Type            string     `json:"type"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	IsApproved      bool       `json:"isApproved"`
	PendingApproval bool       `json:"pendingApproval"`
	IsActive        bool       `json:"isActive"`
	ApprovedBy      *string    `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      *string    `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	Changed         bool       `json:"changed"`
}

func ToPendingApprovalsResponse(items []domain.PendingItem) PendingApprovalsResponse {
	counts := make(map[string]int, len(domain.ApprovalTypes()))
	for _, t := range domain.ApprovalTypes() {
		counts[string(t)] = 0
	}
	for _, it := range items {
		counts[string(it.Type)]++
	}
	if items == nil {
		items = []domain.PendingItem{}
	}
	return PendingApprovalsResponse{Items: items, Counts: counts, Total: len(items)}
}

func ToApprovalResponse(o *domain.ApprovalOutcome) ApprovalResponse {
	return ApprovalResponse{
		Type:            string(o.Type),
		ID:              o.ID,
		Name:            o.Name,
		Status:          string(o.State.Current()),
		IsApproved:      o.State.IsApproved(),
		PendingApproval: o.State.IsPendingApproval(),
		IsActive:        o.State.IsActive(),
		ApprovedBy:      o.State.ApprovedBy,
		ApprovedAt:      o.State.ApprovedAt,
		RejectedBy:      o.State.RejectedBy,
		RejectedAt:      o.State.RejectedAt,
		RejectionReason: o.State.RejectionReason,
		Changed:         o.Changed,
	}
}
