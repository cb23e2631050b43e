package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventInstall         EventType = "lifecycle.install"
	EventStart           EventType = "lifecycle.start"
	EventStop            EventType = "lifecycle.stop"
	EventRemove          EventType = "lifecycle.remove"
	EventConfigChanged   EventType = "topology.config.changed"
	EventBackendsChanged EventType = "topology.backends.changed"
	EventPeerJoined      EventType = "failover.peer.joined"
	EventPeerDeparted    EventType = "failover.peer.departed"
)

// Event represents an agent event
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string

	// Attempts counts how many times the event has been requeued.
	Attempts int

	deferred bool
}

// New creates an event of the given type
func New(eventType EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// Defer marks the event for redelivery. A handler calls Defer when the
// event arrived before the agent is ready for it; the dispatcher requeues
// the event and replays it when the next event comes in.
func (e *Event) Defer() {
	e.deferred = true
}

// Deferred reports whether the handler asked for redelivery
func (e *Event) Deferred() bool {
	return e.deferred
}
