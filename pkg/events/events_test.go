package events

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drover/pkg/metrics"
)

func TestNewEvent(t *testing.T) {
	event := New(EventConfigChanged)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventConfigChanged, event.Type)
	assert.False(t, event.Timestamp.IsZero())
	assert.False(t, event.Deferred())
	assert.Zero(t, event.Attempts)
}

func TestDeferMarksEvent(t *testing.T) {
	event := New(EventPeerJoined)

	event.Defer()

	assert.True(t, event.Deferred())
}

func TestEnqueueWaitRoundTrip(t *testing.T) {
	queue := NewQueue()

	sent := New(EventInstall)
	queue.Enqueue(sent)

	received, err := queue.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sent.ID, received.ID)
	assert.Equal(t, EventInstall, received.Type)
}

func TestEnqueueSetsTimestamp(t *testing.T) {
	queue := NewQueue()

	queue.Enqueue(&Event{ID: "bare", Type: EventStart})

	received, err := queue.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, received.Timestamp.IsZero())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	queue := NewQueue()

	before := testutil.ToFloat64(metrics.EventsDroppedTotal)
	for i := 0; i < 150; i++ {
		queue.Enqueue(New(EventBackendsChanged))
	}
	after := testutil.ToFloat64(metrics.EventsDroppedTotal)

	assert.Equal(t, float64(50), after-before)
}

func TestWaitHonorsContext(t *testing.T) {
	queue := NewQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	event, err := queue.Wait(ctx)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequeueClearsDeferredFlag(t *testing.T) {
	queue := NewQueue()

	event := New(EventPeerJoined)
	event.Defer()
	queue.Requeue(event)

	assert.False(t, event.Deferred())
	assert.Equal(t, 1, event.Attempts)
}

func TestRequeueDedupesByType(t *testing.T) {
	queue := NewQueue()

	first := New(EventPeerJoined)
	queue.Requeue(first)
	other := New(EventConfigChanged)
	queue.Requeue(other)
	second := New(EventPeerJoined)
	queue.Requeue(second)

	backlog := queue.TakeBacklog()
	require.Len(t, backlog, 2)
	assert.Equal(t, second.ID, backlog[0].ID, "newer event keeps the earlier slot")
	assert.Equal(t, other.ID, backlog[1].ID)
}

func TestRequeueCarriesAttempts(t *testing.T) {
	queue := NewQueue()

	first := New(EventPeerJoined)
	queue.Requeue(first)
	queue.TakeBacklog()
	queue.Requeue(first)

	replacement := New(EventPeerJoined)
	queue.Requeue(replacement)

	backlog := queue.TakeBacklog()
	require.Len(t, backlog, 1)
	assert.Equal(t, 2, backlog[0].Attempts)
}

func TestTakeBacklogDrains(t *testing.T) {
	queue := NewQueue()

	queue.Requeue(New(EventPeerJoined))
	assert.Equal(t, 1, queue.BacklogLen())

	backlog := queue.TakeBacklog()
	assert.Len(t, backlog, 1)
	assert.Equal(t, 0, queue.BacklogLen())
	assert.Empty(t, queue.TakeBacklog())
}
