package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"support-chat-be/internal/apperror"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/internal/repository/specification"
	"support-chat-be/internal/repository/unitofwork"
	"support-chat-be/pkg/access"
	"support-chat-be/pkg/events"

	"github.com/google/uuid"
)

type IMessageService interface {
	SendMessage(ctx context.Context, chatId, senderId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	GetMessages(ctx context.Context, chatId, requesterId uuid.UUID) ([]*dto.MessageResponse, error)
	MarkMessageAsRead(ctx context.Context, messageId uuid.UUID) error
	MarkChatMessagesAsRead(ctx context.Context, chatId, viewerId uuid.UUID) error
}

type messageService struct {
	uowFactory       unitofwork.RepositoryFactory
	eventPublisher   EventPublisher
	publisherService IPublisherService
	verifier         *access.Verifier
	logger           logger.ILogger
}

func NewMessageService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	publisherService IPublisherService,
	log logger.ILogger,
) IMessageService {
	return &messageService{
		uowFactory:       uowFactory,
		eventPublisher:   eventPublisher,
		publisherService: publisherService,
		verifier:         access.NewVerifier(),
		logger:           log,
	}
}

// SendMessage appends a NORMAL message to the chat. An advisor replying to a
// PENDING chat claims it first (same compare-and-swap as explicit
// assignment), then appends; a lost claim race fails the send with
// ErrChatAlreadyClaimed rather than posting into someone else's
// conversation.
func (s *messageService) SendMessage(ctx context.Context, chatId, senderId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("send message: %w", apperror.ErrChatNotFound)
	}

	sender, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: senderId})
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, fmt.Errorf("send message: %w", apperror.ErrUserNotFound)
	}

	if !s.verifier.CanSendMessage(sender.Role, senderId, chat) {
		return nil, fmt.Errorf("send message: %w", apperror.ErrUnauthorized)
	}

	claimed := false
	if sender.Role == entity.UserRoleAdvisor && chat.Status == entity.ChatStatusPending {
		if err := uow.ChatRepository().ClaimPending(ctx, chatId, senderId); err != nil {
			if errors.Is(err, apperror.ErrChatAlreadyClaimed) {
				return nil, fmt.Errorf("send message: %w", err)
			}
			return nil, err
		}
		advisorId := senderId
		chat.AdvisorId = &advisorId
		chat.Status = entity.ChatStatusActive
		chat.UpdatedAt = time.Now()
		claimed = true
	}

	message := entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		SenderId:  senderId,
		Content:   req.Content,
		Type:      entity.MessageTypeNormal,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, &message); err != nil {
		return nil, err
	}
	message.Sender = sender

	if claimed {
		s.publish(ctx, events.ChatAssigned(chat.Id, chat.ClientId, senderId))
	}
	s.publish(ctx, events.NewMessage(chat.Id, message.Id, senderId, string(message.Type)))
	s.enqueuePush(ctx, &message)

	return toMessageResponse(&message), nil
}

// GetMessages returns the full ordered log and then marks every message not
// authored by the requester as read. The read receipt is a deliberate write
// side effect of this read: viewing the conversation acknowledges it.
func (s *messageService) GetMessages(ctx context.Context, chatId, requesterId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("get messages: %w", apperror.ErrChatNotFound)
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	if err := uow.MessageRepository().MarkChatMessagesAsRead(ctx, chatId, requesterId); err != nil {
		return nil, err
	}
	s.publish(ctx, events.MessageRead(chatId, requesterId))

	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		if m.SenderId != requesterId {
			m.IsRead = true
		}
		result = append(result, toMessageResponse(m))
	}
	return result, nil
}

// MarkMessageAsRead is idempotent: marking an already-read message succeeds
// without observable difference.
func (s *messageService) MarkMessageAsRead(ctx context.Context, messageId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return err
	}
	if message == nil {
		return fmt.Errorf("mark message as read: %w", apperror.ErrMessageNotFound)
	}
	if message.IsRead {
		return nil
	}

	return uow.MessageRepository().MarkAsRead(ctx, messageId)
}

// MarkChatMessagesAsRead bulk-acknowledges the chat for the viewer: every
// message not authored by the viewer and not already read gets its flag set.
func (s *messageService) MarkChatMessagesAsRead(ctx context.Context, chatId, viewerId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return err
	}
	if chat == nil {
		return fmt.Errorf("mark chat messages as read: %w", apperror.ErrChatNotFound)
	}

	if err := uow.MessageRepository().MarkChatMessagesAsRead(ctx, chatId, viewerId); err != nil {
		return err
	}
	s.publish(ctx, events.MessageRead(chatId, viewerId))
	return nil
}

func (s *messageService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("MessageService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

// enqueuePush hands the persisted message to the in-process push pipeline.
// Best effort: a full queue or stopped consumer must not fail the send.
func (s *messageService) enqueuePush(ctx context.Context, message *entity.Message) {
	if s.publisherService == nil {
		return
	}
	job := dto.PublishMessagePushJob{
		MessageId: message.Id,
		ChatId:    message.ChatId,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		s.logger.Error("MessageService", "Failed to marshal push job", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("MessageService", "Failed to enqueue push job", map[string]interface{}{"error": err.Error()})
	}
}
