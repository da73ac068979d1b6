package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

func ToModelMessage(d domain.Message) models.Message {
	return models.Message(d)
}

func ToDomainMessageSlice(ms []models.Message) []domain.Message {
	ds := make([]domain.Message, len(ms))
	for i, m := range ms {
		ds[i] = domain.Message(m)
	}
	return ds
}
