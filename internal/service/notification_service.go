package service

import (
	"context"
	"fmt"

	"support-chat-be/internal/pkg/logger"
	"support-chat-be/pkg/events"
	pktNats "support-chat-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationService listens on the durable event bus and routes chat
// lifecycle events to the live connections of the users they concern. New
// messages are NOT handled here: they go through the in-process push
// pipeline (consumer service), which avoids double delivery on the
// publishing instance.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   PushDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery PushDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("chat.>", "chat-notification-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening on chat.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// A new chat enters every advisor's pending pool, so it is broadcast
	// rather than routed to individuals.
	if event.EventType() == events.TypeChatCreated {
		s.delivery.Broadcast(event)
		return nil
	}

	recipients := s.resolveRecipients(event)
	if len(recipients) == 0 {
		return nil
	}

	s.logger.Info("NotificationService", fmt.Sprintf("Routing event %s", event.EventType()), map[string]interface{}{
		"recipients": len(recipients),
	})
	for _, userId := range recipients {
		s.delivery.Send(userId, event)
	}
	return nil
}

// resolveRecipients extracts the affected user ids from the event payload.
// A transfer notifies the client, the new advisor, and the outgoing advisor.
func (s *NotificationService) resolveRecipients(event events.Event) []uuid.UUID {
	payload := event.Payload()

	var keys []string
	switch event.EventType() {
	case events.TypeChatAssigned:
		keys = []string{"client_id", "advisor_id"}
	case events.TypeChatTransferred:
		keys = []string{"client_id", "new_advisor_id", "old_advisor_id"}
	case events.TypeChatClosed:
		keys = []string{"client_id", "advisor_id"}
	case events.TypeMessageRead:
		// Read receipts are delivered to everyone but the viewer; with only
		// payload ids available that means the chat participants minus
		// viewer. The payload carries no participant list, so receipts stay
		// local to the viewer's other devices.
		keys = []string{"viewer_id"}
	default:
		return nil
	}

	recipients := make([]uuid.UUID, 0, len(keys))
	seen := make(map[uuid.UUID]bool)
	for _, key := range keys {
		raw, ok := payload[key].(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, id)
	}
	return recipients
}
