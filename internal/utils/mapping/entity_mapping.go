package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

// ToModelEntity converts a domain Entity to an entities row, encoding the jsonb columns.
func ToModelEntity(d domain.Entity) (models.Entity, error) {
	attrs, err := marshalAttributes(d.Attributes)
	if err != nil {
		return models.Entity{}, err
	}
	atts := d.Attachments
	if atts == nil {
		atts = []domain.Attachment{}
	}
	attachments, err := json.Marshal(atts)
	if err != nil {
		return models.Entity{}, fmt.Errorf("failed to encode attachments: %w", err)
	}
	m := models.Entity{
		EntityID:    d.EntityID,
		Kind:        string(d.Kind),
		OwnerID:     d.OwnerID,
		Name:        d.Name,
		VATNumber:   d.VATNumber,
		TaxCode:     d.TaxCode,
		Email:       d.Email,
		Phone:       d.Phone,
		Address:     d.Address,
		City:        d.City,
		Province:    d.Province,
		PostalCode:  d.PostalCode,
		CompanyID:   d.CompanyID,
		Attributes:  attrs,
		Attachments: attachments,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.Approval != nil {
		m.ApprovalColumns = ToModelApproval(*d.Approval)
	}
	return m, nil
}

// ToDomainEntity converts an entities row to a domain Entity.
// Approval is only populated for approval-bearing kinds.
func ToDomainEntity(m models.Entity) (domain.Entity, error) {
	d := domain.Entity{
		EntityID:    m.EntityID,
		Kind:        domain.EntityKind(m.Kind),
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		VATNumber:   m.VATNumber,
		TaxCode:     m.TaxCode,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
		City:        m.City,
		Province:    m.Province,
		PostalCode:  m.PostalCode,
		CompanyID:   m.CompanyID,
		Attachments: []domain.Attachment{},
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &d.Attributes); err != nil {
			return domain.Entity{}, fmt.Errorf("failed to decode attributes of %s: %w", m.EntityID, err)
		}
	}
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &d.Attachments); err != nil {
			return domain.Entity{}, fmt.Errorf("failed to decode attachments of %s: %w", m.EntityID, err)
		}
	}
	if schema, ok := domain.SchemaFor(d.Kind); ok && schema.Approvable {
		state := ToDomainApproval(m.ApprovalColumns)
		d.Approval = &state
	}
	return d, nil
}

// ToDomainEntitySlice converts rows to domain entities, failing on the first undecodable row.
func ToDomainEntitySlice(ms []models.Entity) ([]domain.Entity, error) {
	ds := make([]domain.Entity, 0, len(ms))
	for _, m := range ms {
		d, err := ToDomainEntity(m)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

func marshalAttributes(attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attributes: %w", err)
	}
	return b, nil
}
