package events

import "time"

// Event defines the contract for all domain events emitted by the chat core.
// Events are data, not callbacks: the core never knows how they are
// delivered.
type Event interface {
	// EventType returns the unique code for this event (e.g. "NEW_MESSAGE").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain-struct implementation used by the constructors in
// this package.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
