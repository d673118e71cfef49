package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushJob(m *entity.Message) dto.PublishMessagePushJob {
	return dto.PublishMessagePushJob{MessageId: m.Id, ChatId: m.ChatId}
}

type fakeDelivery struct {
	mu         sync.Mutex
	sent       map[uuid.UUID][]events.Event
	broadcasts []events.Event
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{sent: make(map[uuid.UUID][]events.Event)}
}

func (d *fakeDelivery) Send(userId uuid.UUID, event events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent[userId] = append(d.sent[userId], event)
}

func (d *fakeDelivery) Broadcast(event events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcasts = append(d.broadcasts, event)
}

func TestHandleEventBroadcastsChatCreated(t *testing.T) {
	delivery := newFakeDelivery()
	svc := NewNotificationService(nil, delivery, nopLogger{})

	event := events.ChatCreated(uuid.New(), uuid.New())
	require.NoError(t, svc.handleEvent(context.Background(), event))

	assert.Len(t, delivery.broadcasts, 1)
	assert.Empty(t, delivery.sent)
}

func TestHandleEventRoutesAssignedToParticipants(t *testing.T) {
	delivery := newFakeDelivery()
	svc := NewNotificationService(nil, delivery, nopLogger{})

	clientId := uuid.New()
	advisorId := uuid.New()
	event := events.ChatAssigned(uuid.New(), clientId, advisorId)
	require.NoError(t, svc.handleEvent(context.Background(), event))

	assert.Len(t, delivery.sent[clientId], 1)
	assert.Len(t, delivery.sent[advisorId], 1)
	assert.Empty(t, delivery.broadcasts)
}

func TestHandleEventRoutesTransferToBothAdvisors(t *testing.T) {
	delivery := newFakeDelivery()
	svc := NewNotificationService(nil, delivery, nopLogger{})

	clientId := uuid.New()
	oldAdvisorId := uuid.New()
	newAdvisorId := uuid.New()
	event := events.ChatTransferred(uuid.New(), clientId, &oldAdvisorId, newAdvisorId)
	require.NoError(t, svc.handleEvent(context.Background(), event))

	assert.Len(t, delivery.sent[clientId], 1)
	assert.Len(t, delivery.sent[oldAdvisorId], 1)
	assert.Len(t, delivery.sent[newAdvisorId], 1)
}

func TestHandleEventSkipsNewMessage(t *testing.T) {
	delivery := newFakeDelivery()
	svc := NewNotificationService(nil, delivery, nopLogger{})

	// NEW_MESSAGE delivery belongs to the push consumer, not this router.
	event := events.NewMessage(uuid.New(), uuid.New(), uuid.New(), string(entity.MessageTypeNormal))
	require.NoError(t, svc.handleEvent(context.Background(), event))

	assert.Empty(t, delivery.sent)
	assert.Empty(t, delivery.broadcasts)
}

func TestHandlePushDeliversToCounterpart(t *testing.T) {
	cl := client(nil)
	adv := advisor("Anna")
	factory, uow := newFakeFactory(cl, adv)
	delivery := newFakeDelivery()

	svc := &consumerService{
		topic:      "CHAT_MESSAGE_PUSH",
		uowFactory: factory,
		delivery:   delivery,
		logger:     nopLogger{},
	}

	advId := adv.Id
	chat := &entity.Chat{Id: uuid.New(), ClientId: cl.Id, AdvisorId: &advId, Status: entity.ChatStatusActive, CreatedAt: time.Now()}
	seedChat(uow, chat)
	msg := &entity.Message{Id: uuid.New(), ChatId: chat.Id, SenderId: adv.Id, Content: "hello", Type: entity.MessageTypeNormal, CreatedAt: time.Now()}
	seedMessage(uow, msg)

	require.NoError(t, svc.handlePush(context.Background(), pushJob(msg)))

	// The author's own devices are not poked again.
	assert.Len(t, delivery.sent[cl.Id], 1)
	assert.Empty(t, delivery.sent[adv.Id])
	assert.Equal(t, events.TypeNewMessage, delivery.sent[cl.Id][0].EventType())
}

func TestHandlePushUnknownMessageIsDropped(t *testing.T) {
	factory, _ := newFakeFactory()
	delivery := newFakeDelivery()

	svc := &consumerService{
		topic:      "CHAT_MESSAGE_PUSH",
		uowFactory: factory,
		delivery:   delivery,
		logger:     nopLogger{},
	}

	err := svc.handlePush(context.Background(), pushJob(&entity.Message{Id: uuid.New(), ChatId: uuid.New()}))
	assert.NoError(t, err)
	assert.Empty(t, delivery.sent)
}
