package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

func ToModelOutboxEvent(d domain.OutboxEvent) models.OutboxEvent {
	return models.OutboxEvent{
		EventID:     d.EventID,
		Topic:       d.Topic,
		Payload:     d.Payload,
		Attempts:    d.Attempts,
		AvailableAt: d.AvailableAt,
		LockedAt:    d.LockedAt,
		PublishedAt: d.PublishedAt,
		LastError:   d.LastError,
		CreatedAt:   d.CreatedAt,
	}
}

func ToDomainOutboxEvent(m models.OutboxEvent) domain.OutboxEvent {
	return domain.OutboxEvent{
		EventID:     m.EventID,
		Topic:       m.Topic,
		Payload:     m.Payload,
		Attempts:    m.Attempts,
		AvailableAt: m.AvailableAt,
		LockedAt:    m.LockedAt,
		PublishedAt: m.PublishedAt,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
	}
}

func ToDomainOutboxEventSlice(ms []models.OutboxEvent) []domain.OutboxEvent {
	ds := make([]domain.OutboxEvent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOutboxEvent(m)
	}
	return ds
}
