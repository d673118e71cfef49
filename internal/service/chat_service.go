package service

import (
	"context"
	"fmt"
	"sort"
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

// EventPublisher is the outbound event bus contract. Satisfied by the NATS
// publisher in production; event emission is best effort and never fails the
// primary operation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	CreateChat(ctx context.Context, clientId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	AssignAdvisor(ctx context.Context, chatId, advisorId uuid.UUID) error
	TransferChat(ctx context.Context, chatId uuid.UUID, currentAdvisorId *uuid.UUID, newAdvisorId uuid.UUID) (*dto.TransferChatResponse, error)
	CloseChat(ctx context.Context, chatId, actorId uuid.UUID, actorRole entity.UserRole) error
	GetChatById(ctx context.Context, chatId, actorId uuid.UUID, actorRole entity.UserRole) (*dto.ChatResponse, error)
	ListChats(ctx context.Context, actorId uuid.UUID, actorRole entity.UserRole) ([]*dto.ChatSummaryResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher EventPublisher
	verifier       *access.Verifier
	logger         logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		verifier:       access.NewVerifier(),
		logger:         log,
	}
}

// CreateChat opens a PENDING conversation for the client and stores the
// opening message. The chat write happens first; if the message write fails
// the chat stays PENDING with an empty log and the error is surfaced, not
// masked.
func (c *chatService) CreateChat(ctx context.Context, clientId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	client, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: clientId})
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("create chat: %w", apperror.ErrUserNotFound)
	}

	now := time.Now()
	chat := entity.Chat{
		Id:        uuid.New(),
		ClientId:  clientId,
		Status:    entity.ChatStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.ChatRepository().Create(ctx, &chat); err != nil {
		return nil, err
	}

	message := entity.Message{
		Id:        uuid.New(),
		ChatId:    chat.Id,
		SenderId:  clientId,
		Content:   req.Message,
		Type:      entity.MessageTypeNormal,
		IsRead:    false,
		CreatedAt: now,
	}
	if err := uow.MessageRepository().Create(ctx, &message); err != nil {
		return nil, err
	}
	message.Sender = client
	chat.Messages = []*entity.Message{&message}

	c.publish(ctx, events.ChatCreated(chat.Id, clientId))
	c.publish(ctx, events.NewMessage(chat.Id, message.Id, clientId, string(message.Type)))

	return c.toChatResponse(&chat, clientId), nil
}

// AssignAdvisor claims a PENDING chat for the advisor. The claim is a
// compare-and-swap at the store: under a double-claim race exactly one
// advisor wins and the loser gets ErrChatAlreadyClaimed.
func (c *chatService) AssignAdvisor(ctx context.Context, chatId, advisorId uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	advisor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: advisorId})
	if err != nil {
		return err
	}
	if advisor == nil {
		return fmt.Errorf("assign advisor: %w", apperror.ErrUserNotFound)
	}
	if advisor.Role != entity.UserRoleAdvisor {
		return fmt.Errorf("assign advisor: %w", apperror.ErrInvalidRole)
	}

	if err := uow.ChatRepository().ClaimPending(ctx, chatId, advisorId); err != nil {
		return fmt.Errorf("assign advisor: %w", err)
	}

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err == nil && chat != nil {
		c.publish(ctx, events.ChatAssigned(chat.Id, chat.ClientId, advisorId))
	}
	return nil
}

// TransferChat hands the conversation to another advisor, appending a SYSTEM
// message announcing the change. currentAdvisorId, when provided, must match
// the chat's advisor; directors omit it to force-transfer. A transfer never
// regresses an ACTIVE chat and activates a chat that had no advisor yet.
func (c *chatService) TransferChat(ctx context.Context, chatId uuid.UUID, currentAdvisorId *uuid.UUID, newAdvisorId uuid.UUID) (*dto.TransferChatResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// Rollback is a no-op after a successful commit.
		_ = uow.Rollback()
	}()

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("transfer chat: %w", apperror.ErrChatNotFound)
	}

	if currentAdvisorId != nil && !chat.IsAssignedTo(*currentAdvisorId) {
		return nil, fmt.Errorf("transfer chat: advisor mismatch: %w", apperror.ErrUnauthorized)
	}

	newAdvisor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: newAdvisorId})
	if err != nil {
		return nil, err
	}
	if newAdvisor == nil {
		return nil, fmt.Errorf("transfer chat: %w", apperror.ErrUserNotFound)
	}
	if newAdvisor.Role != entity.UserRoleAdvisor {
		return nil, fmt.Errorf("transfer chat: %w", apperror.ErrInvalidRole)
	}

	oldAdvisorId := chat.AdvisorId

	if chat.Status == entity.ChatStatusPending {
		// Same claim path as explicit assignment and claim-on-reply, so a
		// concurrent claim cannot be silently overwritten.
		if err := uow.ChatRepository().ClaimPending(ctx, chatId, newAdvisorId); err != nil {
			return nil, fmt.Errorf("transfer chat: %w", err)
		}
		advisorId := newAdvisorId
		chat.AdvisorId = &advisorId
		chat.Status = entity.ChatStatusActive
		chat.UpdatedAt = time.Now()
	} else {
		if chat.AdvisorId == nil {
			return nil, fmt.Errorf("transfer chat: %w", apperror.ErrChatAlreadyClaimed)
		}
		// CAS against the advisor we just read: a concurrent transfer or
		// close wins and this one surfaces a conflict instead of clobbering.
		if err := uow.ChatRepository().ReassignAdvisor(ctx, chatId, *chat.AdvisorId, newAdvisorId); err != nil {
			return nil, fmt.Errorf("transfer chat: %w", err)
		}
		advisorId := newAdvisorId
		chat.AdvisorId = &advisorId
		chat.UpdatedAt = time.Now()
	}

	systemMessage := entity.Message{
		Id:        uuid.New(),
		ChatId:    chat.Id,
		SenderId:  newAdvisorId,
		Content:   transferAnnouncement(newAdvisor.FullName),
		Type:      entity.MessageTypeSystem,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, &systemMessage); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	systemMessage.Sender = newAdvisor
	chat.Messages = append(chat.Messages, &systemMessage)

	c.publish(ctx, events.ChatTransferred(chat.Id, chat.ClientId, oldAdvisorId, newAdvisorId))
	c.publish(ctx, events.NewMessage(chat.Id, systemMessage.Id, newAdvisorId, string(systemMessage.Type)))

	return &dto.TransferChatResponse{
		Chat:         c.toChatResponse(chat, newAdvisorId),
		OldAdvisorId: oldAdvisorId,
	}, nil
}

// CloseChat terminates an ACTIVE conversation. Only the assigned advisor or
// a director may close; a chat without an advisor must be claimed first so
// the closed record always names who handled it.
func (c *chatService) CloseChat(ctx context.Context, chatId, actorId uuid.UUID, actorRole entity.UserRole) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return err
	}
	if chat == nil {
		return fmt.Errorf("close chat: %w", apperror.ErrChatNotFound)
	}

	allowed := actorRole == entity.UserRoleDirector ||
		(actorRole == entity.UserRoleAdvisor && chat.IsAssignedTo(actorId))
	if !allowed {
		return fmt.Errorf("close chat: %w", apperror.ErrUnauthorized)
	}

	if chat.Status != entity.ChatStatusActive {
		return fmt.Errorf("close chat: status %s: %w", chat.Status, apperror.ErrChatClosed)
	}

	chat.Status = entity.ChatStatusClosed
	chat.UpdatedAt = time.Now()
	if err := uow.ChatRepository().Update(ctx, chat); err != nil {
		return err
	}

	c.publish(ctx, events.ChatClosed(chat.Id, chat.ClientId, chat.AdvisorId))
	return nil
}

// GetChatById returns the hydrated chat with its full message log and the
// viewer's unread count.
func (c *chatService) GetChatById(ctx context.Context, chatId, actorId uuid.UUID, actorRole entity.UserRole) (*dto.ChatResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("get chat: %w", apperror.ErrChatNotFound)
	}

	if !c.verifier.CanAccessChat(actorRole, actorId, chat) {
		return nil, fmt.Errorf("get chat: %w", apperror.ErrUnauthorized)
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if err := c.hydrateSenders(ctx, uow, messages); err != nil {
		return nil, err
	}
	chat.Messages = messages

	return c.toChatResponse(chat, actorId), nil
}

// ListChats aggregates conversations per role: clients see their own,
// advisors see their queue plus the unclaimed pool, directors see
// everything. Output is sorted most recently active first.
func (c *chatService) ListChats(ctx context.Context, actorId uuid.UUID, actorRole entity.UserRole) ([]*dto.ChatSummaryResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	var chats []*entity.Chat
	roster := make(map[uuid.UUID]bool)

	switch actorRole {
	case entity.UserRoleClient:
		found, err := uow.ChatRepository().FindAll(ctx, specification.ByClientID{ClientID: actorId})
		if err != nil {
			return nil, err
		}
		chats = found

	case entity.UserRoleAdvisor:
		assigned, err := uow.ChatRepository().FindAll(ctx, specification.ByAdvisorID{AdvisorID: actorId})
		if err != nil {
			return nil, err
		}
		pending, err := uow.ChatRepository().FindAll(ctx, specification.ByStatus{Status: entity.ChatStatusPending})
		if err != nil {
			return nil, err
		}
		seen := make(map[uuid.UUID]bool)
		for _, chat := range append(assigned, pending...) {
			if seen[chat.Id] {
				continue
			}
			seen[chat.Id] = true
			chats = append(chats, chat)
		}

		clients, err := uow.UserRepository().FindClientsByAdvisorId(ctx, actorId)
		if err != nil {
			return nil, err
		}
		for _, client := range clients {
			roster[client.Id] = true
		}

	case entity.UserRoleDirector:
		found, err := uow.ChatRepository().FindAll(ctx, specification.ByStatuses{
			Statuses: []entity.ChatStatus{
				entity.ChatStatusActive,
				entity.ChatStatusPending,
				entity.ChatStatusClosed,
			},
		})
		if err != nil {
			return nil, err
		}
		chats = found

	default:
		return nil, fmt.Errorf("list chats: role %s: %w", actorRole, apperror.ErrUnauthorized)
	}

	result := make([]*dto.ChatSummaryResponse, 0, len(chats))
	for _, chat := range chats {
		unread, err := uow.MessageRepository().Count(ctx,
			specification.ByChatID{ChatID: chat.Id},
			specification.Unread{ViewerID: actorId},
		)
		if err != nil {
			return nil, err
		}

		lastActivity := chat.CreatedAt
		lastMessage, err := uow.MessageRepository().FindOne(ctx,
			specification.ByChatID{ChatID: chat.Id},
			specification.OrderBy{Field: "created_at", Desc: true},
		)
		if err != nil {
			return nil, err
		}
		if lastMessage != nil && lastMessage.CreatedAt.After(lastActivity) {
			lastActivity = lastMessage.CreatedAt
		}

		result = append(result, &dto.ChatSummaryResponse{
			Id:             chat.Id,
			ClientId:       chat.ClientId,
			AdvisorId:      chat.AdvisorId,
			Status:         string(chat.Status),
			UnreadCount:    int(unread),
			IsMyClient:     roster[chat.ClientId],
			LastActivityAt: lastActivity,
			CreatedAt:      chat.CreatedAt,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})

	return result, nil
}

// publish emits a domain event. Delivery is side-channel work: failures are
// logged and never fail the calling operation.
func (c *chatService) publish(ctx context.Context, event events.Event) {
	if c.eventPublisher == nil {
		return
	}
	if err := c.eventPublisher.Publish(ctx, event); err != nil {
		c.logger.Warn("ChatService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (c *chatService) hydrateSenders(ctx context.Context, uow unitofwork.UnitOfWork, messages []*entity.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, m := range messages {
		if !seen[m.SenderId] {
			seen[m.SenderId] = true
			ids = append(ids, m.SenderId)
		}
	}
	users, err := uow.UserRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return err
	}
	byId := make(map[uuid.UUID]*entity.User, len(users))
	for _, u := range users {
		byId[u.Id] = u
	}
	for _, m := range messages {
		m.Sender = byId[m.SenderId]
	}
	return nil
}

func (c *chatService) toChatResponse(chat *entity.Chat, viewerId uuid.UUID) *dto.ChatResponse {
	messages := make([]*dto.MessageResponse, 0, len(chat.Messages))
	unread := 0
	for _, m := range chat.Messages {
		if !m.IsRead && m.SenderId != viewerId {
			unread++
		}
		messages = append(messages, toMessageResponse(m))
	}
	return &dto.ChatResponse{
		Id:          chat.Id,
		ClientId:    chat.ClientId,
		AdvisorId:   chat.AdvisorId,
		Status:      string(chat.Status),
		Messages:    messages,
		UnreadCount: unread,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
	}
}

func transferAnnouncement(advisorName string) string {
	return fmt.Sprintf("You are now in contact with %s, who will continue assisting you.", advisorName)
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	res := &dto.MessageResponse{
		Id:        m.Id,
		ChatId:    m.ChatId,
		SenderId:  m.SenderId,
		Content:   m.Content,
		Type:      string(m.Type),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
	if m.Sender != nil {
		res.SenderName = m.Sender.FullName
	}
	return res
}
