package events

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
)

// Queue delivers events to a single consumer. Producers enqueue without
// blocking; the consumer waits for new events and drains the deferred
// backlog whenever a new event arrives.
//
// Deferred events live in a separate backlog rather than behind the
// channel: they are only replayed when fresh work shows up, so a
// persistently deferred event never spins the consumer.
type Queue struct {
	eventCh chan *Event

	mu      sync.Mutex
	backlog []*Event
}

// NewQueue creates a queue buffered for a burst of producers
func NewQueue() *Queue {
	return &Queue{
		eventCh: make(chan *Event, 100), // Buffer up to 100 events
	}
}

// Enqueue adds an event for the consumer. It never blocks: if the buffer
// is full the event is dropped with a warning, on the grounds that every
// handler re-reads current state and the next event repeats the work.
func (q *Queue) Enqueue(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case q.eventCh <- event:
	default:
		metrics.EventsDroppedTotal.Inc()
		log.Logger.Warn().
			Str("component", "events").
			Str("type", string(event.Type)).
			Str("event_id", event.ID).
			Msg("event queue full, dropping event")
	}
}

// Wait blocks until a new event arrives or the context is cancelled
func (q *Queue) Wait(ctx context.Context) (*Event, error) {
	select {
	case event := <-q.eventCh:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Requeue places a deferred event on the backlog. The backlog holds at
// most one event per type: a newer event of the same type takes the
// earlier one's place in replay order, carrying its attempt count.
func (q *Queue) Requeue(event *Event) {
	event.deferred = false
	event.Attempts++

	q.mu.Lock()
	defer q.mu.Unlock()

	for i, pending := range q.backlog {
		if pending.Type == event.Type {
			if pending.Attempts > event.Attempts {
				event.Attempts = pending.Attempts
			}
			q.backlog[i] = event
			return
		}
	}
	q.backlog = append(q.backlog, event)
}

// TakeBacklog removes and returns the deferred backlog, oldest first
func (q *Queue) TakeBacklog() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog := q.backlog
	q.backlog = nil
	return backlog
}

// BacklogLen returns the number of deferred events awaiting replay
func (q *Queue) BacklogLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}
