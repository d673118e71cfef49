package service

import (
	"context"
	"encoding/json"

	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/internal/repository/specification"
	"support-chat-be/internal/repository/unitofwork"
	"support-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// PushDelivery is how realtime updates reach connected users. Implemented by
// the websocket hub.
type PushDelivery interface {
	Send(userId uuid.UUID, event events.Event)
	Broadcast(event events.Event)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process push queue: for each persisted
// message it resolves the chat participants and forwards a NEW_MESSAGE
// payload to their live connections. It never writes; read-state stays with
// the messaging engine.
type consumerService struct {
	subscriber message.Subscriber
	topic      string
	uowFactory unitofwork.RepositoryFactory
	delivery   PushDelivery
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topic string,
	uowFactory unitofwork.RepositoryFactory,
	delivery PushDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topic:      topic,
		uowFactory: uowFactory,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *consumerService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	for msg := range messages {
		var job dto.PublishMessagePushJob
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			s.logger.Error("ConsumerService", "Invalid push job payload", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		if err := s.handlePush(ctx, job); err != nil {
			s.logger.Error("ConsumerService", "Push fan-out failed", map[string]interface{}{
				"message_id": job.MessageId,
				"error":      err.Error(),
			})
		}
		// Push is best effort; no redelivery either way.
		msg.Ack()
	}

	return nil
}

func (s *consumerService) handlePush(ctx context.Context, job dto.PublishMessagePushJob) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: job.MessageId})
	if err != nil {
		return err
	}
	if message == nil {
		s.logger.Warn("ConsumerService", "Push job for unknown message", map[string]interface{}{"message_id": job.MessageId})
		return nil
	}

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: job.ChatId})
	if err != nil {
		return err
	}
	if chat == nil {
		return nil
	}

	event := events.NewMessage(chat.Id, message.Id, message.SenderId, string(message.Type))

	// Deliver to both participants except the author; the author already has
	// the message locally.
	if chat.ClientId != message.SenderId {
		s.delivery.Send(chat.ClientId, event)
	}
	if chat.AdvisorId != nil && *chat.AdvisorId != message.SenderId {
		s.delivery.Send(*chat.AdvisorId, event)
	}
	return nil
}
