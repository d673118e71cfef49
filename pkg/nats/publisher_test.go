package nats

import (
	"context"
	"testing"

	"support-chat-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPublishWithoutConnection(t *testing.T) {
	var p *Publisher

	err := p.Publish(context.Background(), events.ChatCreated(uuid.New(), uuid.New()))
	assert.ErrorContains(t, err, "not connected")
}

func TestCloseWithoutConnection(t *testing.T) {
	var p *Publisher
	p.Close()

	p = &Publisher{}
	p.Close()
}
