package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

// ToModelUser converts a domain User to a users row
func ToModelUser(d domain.User) models.User {
	return models.User{
		UserID:          d.UserID,
		Username:        d.Username,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		Name:            d.Name,
		Role:            string(d.Role),
		ManagedBy:       d.ManagedBy,
		IsActive:        d.IsActive,
		ApprovalColumns: ToModelApproval(d.Approval),
		AuditFields:     ToModelAuditFields(d.AuditFields),
		DeletedAt:       d.DeletedAt,
	}
}

// ToDomainUser converts a users row to a domain User
func ToDomainUser(m models.User) domain.User {
	return domain.User{
		UserID:       m.UserID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Role:         domain.UserRole(m.Role),
		ManagedBy:    m.ManagedBy,
		IsActive:     m.IsActive,
		Approval:     ToDomainApproval(m.ApprovalColumns),
		AuditFields:  ToDomainAuditFields(m.AuditFields),
		DeletedAt:    m.DeletedAt,
	}
}

// ToDomainUserSlice converts a slice of rows to domain users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
