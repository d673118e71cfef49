package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeNormal MessageType = "NORMAL"
	MessageTypeSystem MessageType = "SYSTEM"
)

// Message is a single chat entry. IsRead is mutated only by the messaging
// engine, never by the sender; Type and Content are immutable once created.
type Message struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	SenderId  uuid.UUID
	Sender    *User
	Content   string
	Type      MessageType
	IsRead    bool
	CreatedAt time.Time
}
