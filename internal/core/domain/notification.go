package domain

import "time"

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationApproved   NotificationType = "approval_approved"
	NotificationRejected   NotificationType = "approval_rejected"
	// NotificationCommission tells a beneficiary a commission share was booked.
	NotificationCommission NotificationType = "commission_credited"
)

// PendingNotificationType returns the `<type>_pending` tag for an approval type.
func PendingNotificationType(t ApprovalType) NotificationType {
	return NotificationType(string(t) + "_pending")
}

// ReadReceipt records when one recipient read a notification.
type ReadReceipt struct {
	UserID string    `json:"userID"`
	ReadAt time.Time `json:"readAt"`
}

// Notification is a persisted message fanned out to a fixed set of recipients.
type Notification struct {
	NotificationID string           `json:"notificationID"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Recipients     []string         `json:"recipients"`
	CreatedBy      string           `json:"createdBy"`
	CreatedByName  string           `json:"createdByName"`
	EntityID       *string          `json:"entityID,omitempty"`
	EntityName     *string          `json:"entityName,omitempty"`
	ReadBy         []ReadReceipt    `json:"readBy"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// IsReadBy reports whether userID has a read receipt.
func (n Notification) IsReadBy(userID string) bool {
	for _, r := range n.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// NotificationRequest is the payload carried by the outbox to the notification sink.
// An empty Recipients list addresses every currently privileged user.
type NotificationRequest struct {
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	EntityID      string           `json:"entityId"`
	EntityName    string           `json:"entityName"`
	CreatedBy     string           `json:"createdBy"`
	CreatedByName string           `json:"createdByName"`
	Recipients    []string         `json:"recipients,omitempty"`
}
