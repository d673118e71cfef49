package contract

import (
	"context"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	Update(ctx context.Context, message *entity.Message) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MarkAsRead sets is_read on a single message. Idempotent.
	MarkAsRead(ctx context.Context, id uuid.UUID) error

	// MarkChatMessagesAsRead sets is_read on every message of the chat that
	// was not authored by the viewer and is not already read.
	MarkChatMessagesAsRead(ctx context.Context, chatId, viewerId uuid.UUID) error
}
