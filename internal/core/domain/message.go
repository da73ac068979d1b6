package domain

import "time"

// Message is a direct message between two users.
type Message struct {
	MessageID   string     `json:"messageID"`
	SenderID    string     `json:"senderID"`
	RecipientID string     `json:"recipientID"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
