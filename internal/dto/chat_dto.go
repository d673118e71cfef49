package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type AssignAdvisorRequest struct {
	AdvisorId uuid.UUID `json:"advisor_id" validate:"required"`
}

type TransferChatRequest struct {
	// CurrentAdvisorId is the caller's claim of who owns the chat; omitted
	// by directors to force-transfer.
	CurrentAdvisorId *uuid.UUID `json:"current_advisor_id"`
	NewAdvisorId     uuid.UUID  `json:"new_advisor_id" validate:"required"`
}

type ChatResponse struct {
	Id          uuid.UUID          `json:"id"`
	ClientId    uuid.UUID          `json:"client_id"`
	AdvisorId   *uuid.UUID         `json:"advisor_id"`
	Status      string             `json:"status"`
	Messages    []*MessageResponse `json:"messages"`
	UnreadCount int                `json:"unread_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type TransferChatResponse struct {
	Chat         *ChatResponse `json:"chat"`
	OldAdvisorId *uuid.UUID    `json:"old_advisor_id"`
}

type ChatSummaryResponse struct {
	Id          uuid.UUID  `json:"id"`
	ClientId    uuid.UUID  `json:"client_id"`
	AdvisorId   *uuid.UUID `json:"advisor_id"`
	Status      string     `json:"status"`
	UnreadCount int        `json:"unread_count"`
	// IsMyClient is only meaningful for advisor listings: the chat's client
	// belongs to the advisor's assigned roster.
	IsMyClient     bool      `json:"is_my_client"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}
