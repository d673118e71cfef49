package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"support-chat-be/internal/apperror"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageFixture(users ...*entity.User) (IMessageService, *fakeUnitOfWork, *capturingPublisher, *capturingQueue) {
	factory, uow := newFakeFactory(users...)
	publisher := &capturingPublisher{}
	queue := &capturingQueue{}
	svc := NewMessageService(factory, publisher, queue, nopLogger{})
	return svc, uow, publisher, queue
}

func TestSendMessageAsClient(t *testing.T) {
	cl := client(nil)
	svc, uow, publisher, queue := newMessageFixture(cl)

	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, Status: entity.ChatStatusPending, CreatedAt: time.Now()}
	seedChat(uow, chat)

	res, err := svc.SendMessage(context.Background(), chat.Id, cl.Id, &dto.SendMessageRequest{Content: "any update?"})
	require.NoError(t, err)

	assert.Equal(t, "any update?", res.Content)
	assert.Equal(t, string(entity.MessageTypeNormal), res.Type)
	assert.False(t, res.IsRead)
	assert.Equal(t, "Client", res.SenderName)

	stored := uow.messageRepo.stored(res.Id)
	require.NotNil(t, stored)
	assert.Equal(t, chat.Id, stored.ChatId)

	assert.Equal(t, []string{events.TypeNewMessage}, publisher.types())

	// A push job for the persisted message reaches the delivery queue.
	require.Len(t, queue.payloads, 1)
	var job dto.PublishMessagePushJob
	require.NoError(t, json.Unmarshal(queue.payloads[0], &job))
	assert.Equal(t, res.Id, job.MessageId)
	assert.Equal(t, chat.Id, job.ChatId)
}

func TestSendMessageClaimsPendingChat(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	svc, uow, publisher, _ := newMessageFixture(cl, adv)

	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, Status: entity.ChatStatusPending, CreatedAt: time.Now()}
	seedChat(uow, chat)

	_, err := svc.SendMessage(context.Background(), chat.Id, adv.Id, &dto.SendMessageRequest{Content: "how can I help?"})
	require.NoError(t, err)

	// Replying to an unclaimed chat claims it.
	stored, _ := uow.chatRepo.FindOne(context.Background())
	assert.Equal(t, entity.ChatStatusActive, stored.Status)
	require.NotNil(t, stored.AdvisorId)
	assert.Equal(t, adv.Id, *stored.AdvisorId)

	assert.Equal(t, []string{events.TypeChatAssigned, events.TypeNewMessage}, publisher.types())
}

func TestSendMessageLostClaimRace(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	svc, uow, _, queue := newMessageFixture(cl, adv)

	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, Status: entity.ChatStatusPending, CreatedAt: time.Now()}
	seedChat(uow, chat)
	uow.chatRepo.claimErr = apperror.ErrChatAlreadyClaimed

	_, err := svc.SendMessage(context.Background(), chat.Id, adv.Id, &dto.SendMessageRequest{Content: "mine now"})
	assert.ErrorIs(t, err, apperror.ErrChatAlreadyClaimed)

	// Nothing was written or pushed.
	messages, _ := uow.messageRepo.FindAll(context.Background())
	assert.Empty(t, messages)
	assert.Empty(t, queue.payloads)
}

func TestSendMessageToForeignActiveChat(t *testing.T) {
	cl := client(nil)
	owner := advisor("Anna")
	other := advisor("Bram")
	svc, uow, _, _ := newMessageFixture(cl, owner, other)

	ownerId := owner.Id
	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, AdvisorId: &ownerId, Status: entity.ChatStatusActive, CreatedAt: time.Now()}
	seedChat(uow, chat)

	_, err := svc.SendMessage(context.Background(), chat.Id, other.Id, &dto.SendMessageRequest{Content: "hello"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestSendMessageToClosedChat(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	dir := director()
	svc, uow, _, _ := newMessageFixture(cl, adv, dir)

	advId := adv.Id
	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, AdvisorId: &advId, Status: entity.ChatStatusClosed, CreatedAt: time.Now()}
	seedChat(uow, chat)

	_, err := svc.SendMessage(context.Background(), chat.Id, cl.Id, &dto.SendMessageRequest{Content: "are you there?"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.SendMessage(context.Background(), chat.Id, adv.Id, &dto.SendMessageRequest{Content: "reopening"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	// Directors may still annotate a closed conversation.
	_, err = svc.SendMessage(context.Background(), chat.Id, dir.Id, &dto.SendMessageRequest{Content: "case note"})
	assert.NoError(t, err)
}

func TestSendMessageChatNotFound(t *testing.T) {
	cl := client(nil)
	svc, _, _, _ := newMessageFixture(cl)

	_, err := svc.SendMessage(context.Background(), uuid.New(), cl.Id, &dto.SendMessageRequest{Content: "hello"})
	assert.ErrorIs(t, err, apperror.ErrChatNotFound)
}

func TestSendMessageSenderNotFound(t *testing.T) {
	cl := client(nil)
	svc, uow, _, _ := newMessageFixture(cl)

	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, Status: entity.ChatStatusPending, CreatedAt: time.Now()}
	seedChat(uow, chat)

	_, err := svc.SendMessage(context.Background(), chat.Id, uuid.New(), &dto.SendMessageRequest{Content: "hello"})
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestGetMessagesMarksThemRead(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	svc, uow, publisher, _ := newMessageFixture(cl, adv)

	advId := adv.Id
	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, AdvisorId: &advId, Status: entity.ChatStatusActive, CreatedAt: time.Now()}
	seedChat(uow, chat)

	base := time.Now()
	fromClient := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: cl.Id, Content: "question", Type: entity.MessageTypeNormal, CreatedAt: base}
	fromAdvisor := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: adv.Id, Content: "answer", Type: entity.MessageTypeNormal, CreatedAt: base.Add(time.Second)}
	seedMessage(uow, fromClient)
	seedMessage(uow, fromAdvisor)

	result, err := svc.GetMessages(context.Background(), chat.Id, adv.Id)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "question", result[0].Content)
	assert.True(t, result[0].IsRead)
	// The advisor's own message keeps its flag.
	assert.Equal(t, "answer", result[1].Content)
	assert.False(t, result[1].IsRead)

	// Viewing acknowledged the client's message in the store too.
	assert.True(t, uow.messageRepo.stored(fromClient.Id).IsRead)
	assert.False(t, uow.messageRepo.stored(fromAdvisor.Id).IsRead)

	assert.Equal(t, []string{events.TypeMessageRead}, publisher.types())
}

func TestGetMessagesChatNotFound(t *testing.T) {
	cl := client(nil)
	svc, _, _, _ := newMessageFixture(cl)

	_, err := svc.GetMessages(context.Background(), uuid.New(), cl.Id)
	assert.ErrorIs(t, err, apperror.ErrChatNotFound)
}

func TestMarkMessageAsRead(t *testing.T) {
	cl := client(nil)
	svc, uow, _, _ := newMessageFixture(cl)

	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, Status: entity.ChatStatusActive, CreatedAt: time.Now()}
	seedChat(uow, chat)
	msg := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: cl.Id, Content: "hello", Type: entity.MessageTypeNormal, CreatedAt: time.Now()}
	seedMessage(uow, msg)

	require.NoError(t, svc.MarkMessageAsRead(context.Background(), msg.Id))
	assert.True(t, uow.messageRepo.stored(msg.Id).IsRead)

	// Idempotent on replay.
	require.NoError(t, svc.MarkMessageAsRead(context.Background(), msg.Id))
	assert.True(t, uow.messageRepo.stored(msg.Id).IsRead)
}

func TestMarkMessageAsReadNotFound(t *testing.T) {
	svc, _, _, _ := newMessageFixture()

	err := svc.MarkMessageAsRead(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrMessageNotFound)
}

func TestMarkChatMessagesAsRead(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	svc, uow, publisher, _ := newMessageFixture(cl, adv)

	advId := adv.Id
	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, AdvisorId: &advId, Status: entity.ChatStatusActive, CreatedAt: time.Now()}
	seedChat(uow, chat)

	fromClient := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: cl.Id, Content: "a", Type: entity.MessageTypeNormal, CreatedAt: time.Now()}
	fromAdvisor := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: adv.Id, Content: "b", Type: entity.MessageTypeNormal, CreatedAt: time.Now()}
	seedMessage(uow, fromClient)
	seedMessage(uow, fromAdvisor)

	require.NoError(t, svc.MarkChatMessagesAsRead(context.Background(), chat.Id, adv.Id))

	assert.True(t, uow.messageRepo.stored(fromClient.Id).IsRead)
	assert.False(t, uow.messageRepo.stored(fromAdvisor.Id).IsRead)
	assert.Equal(t, []string{events.TypeMessageRead}, publisher.types())
}

func TestMarkChatMessagesAsReadChatNotFound(t *testing.T) {
	svc, _, _, _ := newMessageFixture()

	err := svc.MarkChatMessagesAsRead(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrChatNotFound)
}
