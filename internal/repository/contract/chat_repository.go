package contract

import (
	"context"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Update(ctx context.Context, chat *entity.Chat) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ClaimPending atomically assigns an advisor to a chat that is still
	// PENDING (compare-and-swap on status). Returns
	// apperror.ErrChatAlreadyClaimed when the chat was claimed or closed in
	// the meantime, apperror.ErrChatNotFound when no such chat exists.
	ClaimPending(ctx context.Context, chatId, advisorId uuid.UUID) error

	// ReassignAdvisor atomically moves an ACTIVE chat from expectedAdvisorId
	// to newAdvisorId (compare-and-swap on the advisor column). Returns
	// apperror.ErrChatAlreadyClaimed when the chat changed hands or left
	// ACTIVE in the meantime, apperror.ErrChatNotFound when no such chat
	// exists.
	ReassignAdvisor(ctx context.Context, chatId, expectedAdvisorId, newAdvisorId uuid.UUID) error
}
