package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drover/pkg/events"
	"github.com/cuemby/drover/pkg/haproxy"
	"github.com/cuemby/drover/pkg/types"
)

type fakeLifecycle struct {
	mu          sync.Mutex
	calls       []string
	state       types.LifecycleState
	sections    []haproxy.ListenSection
	installErr  error
	startErr    error
	reconfigErr error
}

func (f *fakeLifecycle) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeLifecycle) Install(ctx context.Context) error {
	f.record("install")
	if f.installErr != nil {
		return f.installErr
	}
	f.state.Installed = true
	return nil
}

func (f *fakeLifecycle) Start(ctx context.Context) error {
	f.record("start")
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Started = true
	return nil
}

func (f *fakeLifecycle) Stop(ctx context.Context) error {
	f.record("stop")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Started = false
	return nil
}

func (f *fakeLifecycle) Uninstall(ctx context.Context) error {
	f.record("uninstall")
	return nil
}

func (f *fakeLifecycle) Reconfigure(ctx context.Context, sections []haproxy.ListenSection) error {
	f.record("reconfigure")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections = sections
	return f.reconfigErr
}

func (f *fakeLifecycle) State() types.LifecycleState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeSource struct {
	topology *types.Topology
	err      error
}

func (f *fakeSource) Snapshot() (*types.Topology, error) {
	return f.topology.Clone(), f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*types.VRRPInstance
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, instance *types.VRRPInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, instance)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakePresence struct{ present bool }

func (f *fakePresence) PeerPresent() bool { return f.present }

type fakeRecorder struct {
	mu      sync.Mutex
	history []types.Status
}

func (f *fakeRecorder) Set(kind types.StatusKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, types.Status{Kind: kind, Message: message})
}

func (f *fakeRecorder) last() types.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return types.Status{}
	}
	return f.history[len(f.history)-1]
}

type fakeTopologyStore struct {
	saved []*types.Topology
	err   error
}

func (f *fakeTopologyStore) SaveTopology(topology *types.Topology) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, topology)
	return nil
}

type fixture struct {
	controller *Controller
	queue      *events.Queue
	lifecycle  *fakeLifecycle
	source     *fakeSource
	publisher  *fakePublisher
	presence   *fakePresence
	recorder   *fakeRecorder
	store      *fakeTopologyStore
}

func newFixture(topology *types.Topology) *fixture {
	f := &fixture{
		queue:     events.NewQueue(),
		lifecycle: &fakeLifecycle{},
		source:    &fakeSource{topology: topology},
		publisher: &fakePublisher{},
		presence:  &fakePresence{},
		recorder:  &fakeRecorder{},
		store:     &fakeTopologyStore{},
	}
	f.controller = New(f.queue, f.lifecycle, f.source, f.publisher, f.presence, f.recorder, f.store, "drover")
	return f
}

func topologyWithFailover() *types.Topology {
	return &types.Topology{
		Pools: []types.BackendPool{
			{
				Listener: types.Listener{Name: "web", Port: 443, Algorithm: types.AlgorithmRoundRobin},
				Backends: []types.Backend{{Name: "web-0", Address: "10.0.1.1", Port: 8443}},
			},
			{
				Listener: types.Listener{Name: "api", Port: 8080, Algorithm: types.AlgorithmLeastConnections},
			},
		},
		Failover: types.FailoverConfig{VirtualIP: "10.0.0.100", RouterID: 50, Interface: "eth0"},
	}
}

func dispatch(f *fixture, eventType events.EventType) *events.Event {
	event := events.New(eventType)
	f.controller.Dispatch(context.Background(), event)
	return event
}

func TestInstallDelegatesAndReportsMaintenance(t *testing.T) {
	f := newFixture(&types.Topology{})

	dispatch(f, events.EventInstall)

	assert.Equal(t, []string{"install"}, f.lifecycle.calls)
	assert.Equal(t, types.StatusMaintenance, f.recorder.last().Kind)
}

func TestStartReportsActive(t *testing.T) {
	f := newFixture(&types.Topology{})

	dispatch(f, events.EventStart)

	assert.Equal(t, []string{"start"}, f.lifecycle.calls)
	assert.Equal(t, types.StatusActive, f.recorder.last().Kind)
}

func TestStartFailureDoesNotReportActive(t *testing.T) {
	f := newFixture(&types.Topology{})
	f.lifecycle.startErr = errors.New("systemctl start failed")

	dispatch(f, events.EventStart)

	assert.Empty(t, f.recorder.history)
}

func TestStopReportsStopped(t *testing.T) {
	f := newFixture(&types.Topology{})

	dispatch(f, events.EventStop)

	assert.Equal(t, types.StatusStopped, f.recorder.last().Kind)
}

func TestTopologyChangeReconfiguresAndPersists(t *testing.T) {
	f := newFixture(topologyWithFailover())

	dispatch(f, events.EventBackendsChanged)

	assert.Equal(t, []string{"reconfigure"}, f.lifecycle.calls)
	require.Len(t, f.lifecycle.sections, 2)
	assert.Equal(t, "web", f.lifecycle.sections[0].Name)
	require.Len(t, f.store.saved, 1)
}

func TestTopologyChangeWithInvalidDocumentBlocks(t *testing.T) {
	f := newFixture(&types.Topology{})
	f.source.err = errors.New("yaml: line 3: did not find expected key")

	dispatch(f, events.EventConfigChanged)

	assert.Empty(t, f.lifecycle.calls)
	last := f.recorder.last()
	assert.Equal(t, types.StatusBlocked, last.Kind)
	assert.Contains(t, last.Message, "topology invalid")
}

func TestTopologyChangeWhileStartedReportsActive(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.lifecycle.state.Started = true

	dispatch(f, events.EventBackendsChanged)

	assert.Equal(t, types.StatusActive, f.recorder.last().Kind)
}

func TestPeerJoinedBeforeStartDefersWithoutPublishing(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.presence.present = true

	dispatch(f, events.EventPeerJoined)

	assert.Zero(t, f.publisher.count())
	assert.Equal(t, 1, f.queue.BacklogLen())
}

func TestDeferThenResume(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.presence.present = true

	// Peer joins before the first start: deferred, nothing published.
	dispatch(f, events.EventPeerJoined)
	assert.Zero(t, f.publisher.count())

	// The start event lands, then the backlog is replayed, exactly as
	// the run loop does.
	dispatch(f, events.EventStart)
	for _, deferred := range f.queue.TakeBacklog() {
		f.controller.Dispatch(context.Background(), deferred)
	}

	require.Equal(t, 1, f.publisher.count())
	instance := f.publisher.published[0]
	assert.Equal(t, "drover", instance.Name)
	assert.Equal(t, []string{"10.0.0.100"}, instance.VirtualIPs)
	// One check script per distinct frontend port.
	require.Len(t, instance.TrackScripts, 2)
	assert.Equal(t, "drover_port_443_check", instance.TrackScripts[0].Name)
	assert.Equal(t, "drover_port_8080_check", instance.TrackScripts[1].Name)
	assert.Zero(t, f.queue.BacklogLen())
}

func TestPeerJoinedWithoutPeerPresenceIsNoOp(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.lifecycle.state.Started = true
	f.presence.present = false

	event := dispatch(f, events.EventPeerJoined)

	assert.Zero(t, f.publisher.count())
	assert.False(t, event.Deferred())
	assert.Zero(t, f.queue.BacklogLen())
}

func TestMissingVirtualIPBlocksWithoutPublishing(t *testing.T) {
	topology := topologyWithFailover()
	topology.Failover.VirtualIP = ""
	f := newFixture(topology)
	f.lifecycle.state.Started = true
	f.presence.present = true

	dispatch(f, events.EventPeerJoined)

	assert.Zero(t, f.publisher.count())
	last := f.recorder.last()
	assert.Equal(t, types.StatusBlocked, last.Kind)
	assert.Contains(t, last.Message, "virtual_ip")
}

func TestTopologyChangePublishesFailoverWhenStarted(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.lifecycle.state.Started = true
	f.presence.present = true

	dispatch(f, events.EventConfigChanged)

	assert.Equal(t, 1, f.publisher.count())
}

func TestTopologyChangeSkipsFailoverWhenNotStarted(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.presence.present = true

	dispatch(f, events.EventConfigChanged)

	// The load-balancer path still ran; the failover path waited, and
	// nothing was deferred (the peer-joined redelivery covers it).
	assert.Equal(t, []string{"reconfigure"}, f.lifecycle.calls)
	assert.Zero(t, f.publisher.count())
	assert.Zero(t, f.queue.BacklogLen())
}

func TestDuplicatePortsFailThePass(t *testing.T) {
	topology := topologyWithFailover()
	topology.Pools[1].Listener.Port = 443
	f := newFixture(topology)

	dispatch(f, events.EventBackendsChanged)

	// Fail-fast: no write, no restart, no persisted snapshot.
	assert.Empty(t, f.lifecycle.calls)
	assert.Empty(t, f.store.saved)
}

func TestPublisherFailurePropagates(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.lifecycle.state.Started = true
	f.presence.present = true
	f.publisher.err = errors.New("reload failed")

	event := dispatch(f, events.EventPeerJoined)

	// External primitive failure: not deferred, not blocked, retried
	// only when the event is redelivered from outside.
	assert.False(t, event.Deferred())
}

func TestPeerDepartedLeavesConfigurationInPlace(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.lifecycle.state.Started = true
	f.presence.present = true

	dispatch(f, events.EventPeerDeparted)

	assert.Empty(t, f.lifecycle.calls)
	assert.Zero(t, f.publisher.count())
}

func TestRunReplaysBacklogAfterEachEvent(t *testing.T) {
	f := newFixture(topologyWithFailover())
	f.presence.present = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.controller.Run(ctx)
	}()

	f.queue.Enqueue(events.New(events.EventPeerJoined))
	f.queue.Enqueue(events.New(events.EventStart))

	require.Eventually(t, func() bool {
		return f.publisher.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
