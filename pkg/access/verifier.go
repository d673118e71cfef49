package access

import (
	"support-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Verifier is the single source of truth for chat visibility. It is a pure
// decision function over the actor and the chat aggregate; it performs no I/O.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// CanAccessChat decides read access:
//   - directors see everything
//   - clients see their own chats
//   - advisors see chats assigned to them plus the unclaimed PENDING pool
func (v *Verifier) CanAccessChat(role entity.UserRole, actorId uuid.UUID, chat *entity.Chat) bool {
	if chat == nil {
		return false
	}
	switch role {
	case entity.UserRoleDirector:
		return true
	case entity.UserRoleClient:
		return chat.ClientId == actorId
	case entity.UserRoleAdvisor:
		return chat.IsAssignedTo(actorId) || chat.Status == entity.ChatStatusPending
	default:
		return false
	}
}

// CanSendMessage decides send access. It is a superset of read access for
// advisors: any advisor may reply to a PENDING chat (claim-on-reply), while
// an ACTIVE chat only accepts its client, its assigned advisor, or a
// director. A CLOSED chat accepts only directors.
func (v *Verifier) CanSendMessage(role entity.UserRole, actorId uuid.UUID, chat *entity.Chat) bool {
	if chat == nil {
		return false
	}
	if role == entity.UserRoleDirector {
		return true
	}
	if chat.Status == entity.ChatStatusClosed {
		return false
	}
	switch role {
	case entity.UserRoleClient:
		return chat.ClientId == actorId
	case entity.UserRoleAdvisor:
		return chat.IsAssignedTo(actorId) || chat.Status == entity.ChatStatusPending
	default:
		return false
	}
}
