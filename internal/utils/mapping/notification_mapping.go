package mapping

import (
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/models"
)

// ToModelNotification splits a domain notification into its row and recipient rows.
func ToModelNotification(d domain.Notification) (models.Notification, []models.NotificationRecipient) {
	row := models.Notification{
		NotificationID: d.NotificationID,
		Title:          d.Title,
		Message:        d.Message,
		Type:           string(d.Type),
		CreatedBy:      d.CreatedBy,
		CreatedByName:  d.CreatedByName,
		EntityID:       d.EntityID,
		EntityName:     d.EntityName,
		CreatedAt:      d.CreatedAt,
	}
	read := make(map[string]domain.ReadReceipt, len(d.ReadBy))
	for _, r := range d.ReadBy {
		read[r.UserID] = r
	}
	recipients := make([]models.NotificationRecipient, 0, len(d.Recipients))
	for _, uid := range d.Recipients {
		rec := models.NotificationRecipient{NotificationID: d.NotificationID, UserID: uid}
		if r, ok := read[uid]; ok {
			at := r.ReadAt
			rec.ReadAt = &at
		}
		recipients = append(recipients, rec)
	}
	return row, recipients
}

// ToDomainNotification rebuilds a notification from its row and recipient rows.
func ToDomainNotification(m models.Notification, recipients []models.NotificationRecipient) domain.Notification {
	d := domain.Notification{
		NotificationID: m.NotificationID,
		Title:          m.Title,
		Message:        m.Message,
		Type:           domain.NotificationType(m.Type),
		CreatedBy:      m.CreatedBy,
		CreatedByName:  m.CreatedByName,
		EntityID:       m.EntityID,
		EntityName:     m.EntityName,
		CreatedAt:      m.CreatedAt,
		Recipients:     make([]string, 0, len(recipients)),
		ReadBy:         []domain.ReadReceipt{},
	}
	for _, r := range recipients {
		d.Recipients = append(d.Recipients, r.UserID)
		if r.ReadAt != nil {
			d.ReadBy = append(d.ReadBy, domain.ReadReceipt{UserID: r.UserID, ReadAt: *r.ReadAt})
		}
	}
	return d
}
