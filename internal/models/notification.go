package models

import "time"

// Notification is a row of the notifications table joined with the viewer's receipt.
type Notification struct {
	NotificationID string    `db:"notification_id"`
	Title          string    `db:"title"`
	Message        string    `db:"message"`
	Type           string    `db:"type"`
	CreatedBy      string    `db:"created_by"`
	CreatedByName  string    `db:"created_by_name"`
	EntityID       *string   `db:"entity_id"`
	EntityName     *string   `db:"entity_name"`
	CreatedAt      time.Time `db:"created_at"`
}

// NotificationRecipient is a row of notification_recipients.
type NotificationRecipient struct {
	NotificationID string     `db:"notification_id"`
	UserID         string     `db:"user_id"`
	ReadAt         *time.Time `db:"read_at"`
}
