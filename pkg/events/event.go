package events

import "time"

// Event is one pipeline occurrence published on the bus, e.g. a phase
// transition or a dispatched learning-set bundle.
type Event interface {
	// EventType returns the event's type code (e.g. "PHASE_CHANGED").
	EventType() string

	// Payload returns the event data as published.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation every constructor in this package
// returns.
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
