package models

import "time"

type Message struct {
	MessageID   string     `db:"message_id"`
	SenderID    string     `db:"sender_id"`
	RecipientID string     `db:"recipient_id"`
	Subject     string     `db:"subject"`
	Body        string     `db:"body"`
	ReadAt      *time.Time `db:"read_at"`
	CreatedAt   time.Time  `db:"created_at"`
}
