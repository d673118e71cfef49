package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService is the in-process job queue used for push fan-out after
// a message is persisted.
type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	publisher message.Publisher
	topic     string
}

func NewPublisherService(publisher message.Publisher, topic string) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topic:     topic,
	}
}

func (s *publisherService) Publish(_ context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.publisher.Publish(s.topic, msg)
}
