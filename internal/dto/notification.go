package dto

import (
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

type ListNotificationsParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

type NotificationResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Type          string     `json:"type"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByName"`
	EntityID      *string    `json:"entityId,omitempty"`
	EntityName    *string    `json:"entityName,omitempty"`
	IsRead        bool       `json:"isRead"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// ToNotificationResponse renders n from the point of view of userID.
func ToNotificationResponse(n domain.Notification, userID string) NotificationResponse {
	resp := NotificationResponse{
		ID:            n.NotificationID,
		Title:         n.Title,
		Message:       n.Message,
		Type:          string(n.Type),
		CreatedBy:     n.CreatedBy,
		CreatedByName: n.CreatedByName,
		EntityID:      n.EntityID,
		EntityName:    n.EntityName,
		CreatedAt:     n.CreatedAt,
	}
	for _, r := range n.ReadBy {
		if r.UserID == userID {
			readAt := r.ReadAt
			resp.IsRead = true
			resp.ReadAt = &readAt
			break
		}
	}
	return resp
}

func ToNotificationResponses(ns []domain.Notification, userID string) []NotificationResponse {
	out := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		out[i] = ToNotificationResponse(n, userID)
	}
	return out
}
