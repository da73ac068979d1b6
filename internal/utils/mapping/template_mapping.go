package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

func ToModelProjectTemplate(d domain.ProjectTemplate) (models.ProjectTemplate, error) {
	attrs, err := marshalAttributes(d.Attributes)
	if err != nil {
		return models.ProjectTemplate{}, err
	}
	return models.ProjectTemplate{
		TemplateID:  d.TemplateID,
		Name:        d.Name,
		Description: d.Description,
		Attributes:  attrs,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}, nil
}

func ToDomainProjectTemplate(m models.ProjectTemplate) (domain.ProjectTemplate, error) {
	d := domain.ProjectTemplate{
		TemplateID:  m.TemplateID,
		Name:        m.Name,
		Description: m.Description,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &d.Attributes); err != nil {
			return domain.ProjectTemplate{}, fmt.Errorf("failed to decode template attributes: %w", err)
		}
	}
	return d, nil
}
