package contract

import (
	"context"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// UserRepository is the read-only view of the user directory the chat core
// depends on.
type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)

	// FindClientsByAdvisorId returns the advisor's assigned-client roster,
	// used for the isMyClient annotation on chat listings.
	FindClientsByAdvisorId(ctx context.Context, advisorId uuid.UUID) ([]*entity.User, error)
}
