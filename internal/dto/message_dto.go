package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type MessageResponse struct {
	Id         uuid.UUID `json:"id"`
	ChatId     uuid.UUID `json:"chat_id"`
	SenderId   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublishMessagePushJob is the payload handed to the in-process push
// pipeline after a message is persisted.
type PublishMessagePushJob struct {
	MessageId uuid.UUID `json:"message_id"`
	ChatId    uuid.UUID `json:"chat_id"`
}
