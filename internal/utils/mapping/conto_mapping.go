package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

// ToModelContoEntry converts a domain ContoEntry to a conto_entries row
func ToModelContoEntry(d domain.ContoEntry) models.ContoEntry {
	return models.ContoEntry{
		EntryID:     d.EntryID,
		UserID:      d.UserID,
		CompanyID:   d.CompanyID,
		Direction:   string(d.Direction),
		Amount:      d.Amount,
		Description: d.Description,
		Category:    d.Category,
		Source:      string(d.Source),
		ReferenceID: d.ReferenceID,
		EntryDate:   d.EntryDate,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainContoEntry converts a conto_entries row to a domain ContoEntry
func ToDomainContoEntry(m models.ContoEntry) domain.ContoEntry {
	return domain.ContoEntry{
		EntryID:     m.EntryID,
		UserID:      m.UserID,
		CompanyID:   m.CompanyID,
		Direction:   domain.EntryDirection(m.Direction),
		Amount:      m.Amount,
		Description: m.Description,
		Category:    m.Category,
		Source:      domain.EntrySource(m.Source),
		ReferenceID: m.ReferenceID,
		EntryDate:   m.EntryDate,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

func ToDomainContoEntrySlice(ms []models.ContoEntry) []domain.ContoEntry {
	ds := make([]domain.ContoEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainContoEntry(m)
	}
	return ds
}
