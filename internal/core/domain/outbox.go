package domain

import "time"

// TopicNotificationRequested is the outbox topic consumed by the notification dispatcher.
const TopicNotificationRequested = "notification.requested"

// OutboxEvent is an event written in the same transaction as the state change it announces.
type OutboxEvent struct {
	EventID     string
	Topic       string
	Payload     []byte
	Attempts    int
	AvailableAt time.Time
	LockedAt    *time.Time
	PublishedAt *time.Time
	LastError   *string
	CreatedAt   time.Time
}
