package dto

import "github.com/impresahub/impresa_backend/internal/core/domain"

type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
	Subject     string `json:"subject" binding:"required,max=200"`
	Body        string `json:"body" binding:"required,max=10000"`
}

type ListMessagesParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}
