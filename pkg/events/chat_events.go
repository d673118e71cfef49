package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes for the chat domain. The real-time delivery layer keys
// its routing on these.
const (
	TypeChatCreated     = "CHAT_CREATED"
	TypeChatAssigned    = "CHAT_ASSIGNED"
	TypeChatTransferred = "CHAT_TRANSFERRED"
	TypeChatClosed      = "CHAT_CLOSED"
	TypeNewMessage      = "NEW_MESSAGE"
	TypeMessageRead     = "MESSAGE_READ"
)

func ChatCreated(chatId, clientId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeChatCreated,
		Data: map[string]interface{}{
			"chat_id":   chatId.String(),
			"client_id": clientId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func ChatAssigned(chatId, clientId, advisorId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeChatAssigned,
		Data: map[string]interface{}{
			"chat_id":    chatId.String(),
			"client_id":  clientId.String(),
			"advisor_id": advisorId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// ChatTransferred carries both advisor ids so the delivery layer can notify
// the outgoing advisor as well as the incoming one. oldAdvisorId is nil when
// the transfer activated a previously unassigned chat.
func ChatTransferred(chatId, clientId uuid.UUID, oldAdvisorId *uuid.UUID, newAdvisorId uuid.UUID) Event {
	data := map[string]interface{}{
		"chat_id":        chatId.String(),
		"client_id":      clientId.String(),
		"new_advisor_id": newAdvisorId.String(),
	}
	if oldAdvisorId != nil {
		data["old_advisor_id"] = oldAdvisorId.String()
	}
	return BaseEvent{
		Type:       TypeChatTransferred,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func ChatClosed(chatId, clientId uuid.UUID, advisorId *uuid.UUID) Event {
	data := map[string]interface{}{
		"chat_id":   chatId.String(),
		"client_id": clientId.String(),
	}
	if advisorId != nil {
		data["advisor_id"] = advisorId.String()
	}
	return BaseEvent{
		Type:       TypeChatClosed,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func NewMessage(chatId, messageId, senderId uuid.UUID, messageType string) Event {
	return BaseEvent{
		Type: TypeNewMessage,
		Data: map[string]interface{}{
			"chat_id":      chatId.String(),
			"message_id":   messageId.String(),
			"sender_id":    senderId.String(),
			"message_type": messageType,
		},
		OccurredAt: time.Now(),
	}
}

// MessageRead signals read receipts for a whole chat from one viewer.
func MessageRead(chatId, viewerId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeMessageRead,
		Data: map[string]interface{}{
			"chat_id":   chatId.String(),
			"viewer_id": viewerId.String(),
		},
		OccurredAt: time.Now(),
	}
}
