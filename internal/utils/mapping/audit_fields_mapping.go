package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// ToModelApproval flattens an approval state into its columns.
func ToModelApproval(s domain.ApprovalState) models.ApprovalColumns {
	var status *string
	if s.Status != nil {
		v := string(*s.Status)
		status = &v
	}
	return models.ApprovalColumns{
		ApprovalStatus:  status,
		ApprovedBy:      s.ApprovedBy,
		ApprovedAt:      s.ApprovedAt,
		RejectedBy:      s.RejectedBy,
		RejectedAt:      s.RejectedAt,
		RejectionReason: s.RejectionReason,
	}
}

// ToDomainApproval rebuilds an approval state; a NULL status stays nil (legacy).
func ToDomainApproval(m models.ApprovalColumns) domain.ApprovalState {
	var status *domain.ApprovalStatus
	if m.ApprovalStatus != nil {
		v := domain.ApprovalStatus(*m.ApprovalStatus)
		status = &v
	}
	return domain.ApprovalState{
		Status:          status,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
	}
}
