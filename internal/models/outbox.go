package models

import "time"

// OutboxEvent is a row of outbox_events.
type OutboxEvent struct {
	EventID     string     `db:"event_id"`
	Topic       string     `db:"topic"`
	Payload     []byte     `db:"payload"`
	Attempts    int        `db:"attempts"`
	AvailableAt time.Time  `db:"available_at"`
	LockedAt    *time.Time `db:"locked_at"`
	PublishedAt *time.Time `db:"published_at"`
	LastError   *string    `db:"last_error"`
	CreatedAt   time.Time  `db:"created_at"`
}
