package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatStatus string

const (
	ChatStatusPending ChatStatus = "PENDING"
	ChatStatusActive  ChatStatus = "ACTIVE"
	ChatStatusClosed  ChatStatus = "CLOSED"
)

// Chat is the conversation aggregate between one client and at most one
// advisor. Messages are loaded lazily; an empty slice does not mean the chat
// has no messages, only that they were not fetched.
type Chat struct {
	Id        uuid.UUID
	ClientId  uuid.UUID
	AdvisorId *uuid.UUID
	Status    ChatStatus
	Messages  []*Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastActivityAt is the timestamp used for conversation ordering: the latest
// message time, falling back to chat creation when the log is empty.
func (c *Chat) LastActivityAt() time.Time {
	last := c.CreatedAt
	for _, m := range c.Messages {
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return last
}

// IsAssignedTo reports whether the given advisor currently owns the chat.
func (c *Chat) IsAssignedTo(advisorId uuid.UUID) bool {
	return c.AdvisorId != nil && *c.AdvisorId == advisorId
}
