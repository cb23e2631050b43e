package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/events"
	"github.com/cuemby/drover/pkg/haproxy"
	"github.com/cuemby/drover/pkg/keepalived"
	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
	"github.com/cuemby/drover/pkg/types"
)

// Lifecycle sequences the managed load-balancer process.
type Lifecycle interface {
	Install(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Uninstall(ctx context.Context) error
	Reconfigure(ctx context.Context, sections []haproxy.ListenSection) error
	State() types.LifecycleState
}

// TopologySource supplies the desired state, one snapshot per pass.
type TopologySource interface {
	Snapshot() (*types.Topology, error)
}

// Publisher delivers a VRRP instance to the failover companion.
type Publisher interface {
	Publish(ctx context.Context, instance *types.VRRPInstance) error
}

// PeerPresence answers whether a failover peer exists right now.
type PeerPresence interface {
	PeerPresent() bool
}

// StatusRecorder is the operator-facing status surface.
type StatusRecorder interface {
	Set(kind types.StatusKind, message string)
}

// TopologyStore persists the last successfully applied topology.
type TopologyStore interface {
	SaveTopology(topology *types.Topology) error
}

// Controller is the reconciliation state machine. It consumes typed
// events from a single queue and drives the load balancer and the
// failover companion, enforcing one ordering rule: VRRP configuration
// is never published before the load balancer's first start, because
// the published check scripts probe the load balancer's own ports.
type Controller struct {
	queue     *events.Queue
	lifecycle Lifecycle
	source    TopologySource
	publisher Publisher
	presence  PeerPresence
	recorder  StatusRecorder
	store     TopologyStore

	// instanceName names the VRRP instance and prefixes check scripts.
	instanceName string

	logger zerolog.Logger
}

// New wires a controller. All collaborators are required.
func New(queue *events.Queue, lifecycle Lifecycle, source TopologySource, publisher Publisher, presence PeerPresence, recorder StatusRecorder, store TopologyStore, instanceName string) *Controller {
	return &Controller{
		queue:        queue,
		lifecycle:    lifecycle,
		source:       source,
		publisher:    publisher,
		presence:     presence,
		recorder:     recorder,
		store:        store,
		instanceName: instanceName,
		logger:       log.WithComponent("controller"),
	}
}

// Run processes events until ctx ends. Exactly one event is handled to
// completion before the next; after each event the deferred backlog is
// replayed once, oldest first, so an event that changed state (a
// successful start, typically) immediately redelivers what waited on
// it.
func (c *Controller) Run(ctx context.Context) error {
	for {
		event, err := c.queue.Wait(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		c.Dispatch(ctx, event)

		for _, deferred := range c.queue.TakeBacklog() {
			c.Dispatch(ctx, deferred)
		}
	}
}

// Dispatch handles one event, instrumenting the outcome. Handler
// failures are logged and counted, never retried here: every handler
// is idempotent and the next delivery of the same logical event simply
// redoes the work.
func (c *Controller) Dispatch(ctx context.Context, event *events.Event) {
	logger := log.WithEvent(string(event.Type), event.ID)
	logger.Debug().Int("attempts", event.Attempts).Msg("dispatching event")

	metrics.EventsProcessedTotal.WithLabelValues(string(event.Type)).Inc()

	err := c.handle(ctx, event)

	if event.Deferred() {
		metrics.EventsDeferredTotal.WithLabelValues(string(event.Type)).Inc()
		logger.Info().Msg("event deferred for redelivery")
		c.queue.Requeue(event)
		return
	}
	if err != nil {
		metrics.ReconcileErrorsTotal.Inc()
		logger.Error().Err(err).Msg("event handling failed")
	}
}

func (c *Controller) handle(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventInstall:
		c.recorder.Set(types.StatusMaintenance, "installing haproxy")
		return c.lifecycle.Install(ctx)

	case events.EventStart:
		if err := c.lifecycle.Start(ctx); err != nil {
			return err
		}
		c.recorder.Set(types.StatusActive, "")
		return nil

	case events.EventStop:
		if err := c.lifecycle.Stop(ctx); err != nil {
			return err
		}
		c.recorder.Set(types.StatusStopped, "haproxy stopped")
		return nil

	case events.EventRemove:
		c.recorder.Set(types.StatusMaintenance, "removing haproxy")
		return c.lifecycle.Uninstall(ctx)

	case events.EventConfigChanged, events.EventBackendsChanged:
		return c.reconcile(ctx)

	case events.EventPeerJoined:
		return c.peerJoined(ctx, event)

	case events.EventPeerDeparted:
		// The published configuration stays in place; the surviving
		// unit keeps the virtual IP.
		c.logger.Info().Str("peer", event.Message).Msg("failover peer departed")
		return nil

	default:
		c.logger.Warn().Str("type", string(event.Type)).Msg("ignoring unknown event type")
		return nil
	}
}

// reconcile is the full pass: load-balancer configuration first, then
// a failover attempt. The load-balancer path never waits on the
// failover path.
func (c *Controller) reconcile(ctx context.Context) error {
	metrics.ReconcileCyclesTotal.Inc()
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconcileDuration)

	snapshot, err := c.source.Snapshot()
	if err != nil {
		// Operator-correctable: the document on disk is broken. Block
		// and keep serving the last applied configuration.
		c.recorder.Set(types.StatusBlocked, fmt.Sprintf("topology invalid: %v", err))
		return nil
	}

	sections, err := haproxy.BuildListenSections(snapshot.Pools, snapshot.BindAddresses)
	if err != nil {
		return err
	}
	if err := c.lifecycle.Reconfigure(ctx, sections); err != nil {
		return err
	}
	if err := c.store.SaveTopology(snapshot); err != nil {
		return fmt.Errorf("failed to persist applied topology: %w", err)
	}

	if c.lifecycle.State().Started {
		c.recorder.Set(types.StatusActive, "")
	}

	return c.reconfigureFailover(ctx, nil, snapshot)
}

// peerJoined defers until the load balancer has started, then
// reconfigures the failover companion from the current topology.
func (c *Controller) peerJoined(ctx context.Context, event *events.Event) error {
	snapshot, err := c.source.Snapshot()
	if err != nil {
		c.recorder.Set(types.StatusBlocked, fmt.Sprintf("topology invalid: %v", err))
		return nil
	}
	return c.reconfigureFailover(ctx, event, snapshot)
}

// reconfigureFailover publishes VRRP configuration when a peer exists
// and the load balancer has started. The event, when non-nil, is the
// peer-joined delivery that may be deferred on the ordering rule; the
// topology-change path passes nil and skips silently instead, because
// the deferred peer-joined event already guarantees a later attempt.
func (c *Controller) reconfigureFailover(ctx context.Context, event *events.Event, snapshot *types.Topology) error {
	if !c.presence.PeerPresent() {
		c.logger.Debug().Msg("no failover peer, skipping VRRP configuration")
		return nil
	}

	if !c.lifecycle.State().Started {
		if event != nil {
			event.Defer()
		} else {
			c.logger.Debug().Msg("haproxy not started yet, skipping VRRP configuration")
		}
		return nil
	}

	failover := snapshot.Failover
	if failover.VirtualIP == "" {
		c.recorder.Set(types.StatusBlocked, "waiting for an administrator to set failover.virtual_ip")
		return nil
	}

	iface := failover.Interface
	if iface == "" {
		var err error
		iface, err = keepalived.DetectInterface(failover.VirtualIP)
		if err != nil {
			c.recorder.Set(types.StatusBlocked, "no usable network interface for the virtual IP")
			return nil
		}
	}

	routerID := failover.RouterID
	if routerID == 0 {
		routerID = keepalived.DefaultRouterID
	}

	instance, err := keepalived.BuildVRRPInstance(c.instanceName, routerID, []string{failover.VirtualIP}, iface, snapshot.FrontendPorts())
	switch {
	case errors.Is(err, keepalived.ErrNoVirtualIP):
		c.recorder.Set(types.StatusBlocked, "waiting for an administrator to set failover.virtual_ip")
		return nil
	case errors.Is(err, keepalived.ErrNoInterface):
		c.recorder.Set(types.StatusBlocked, "no usable network interface for the virtual IP")
		return nil
	case err != nil:
		return err
	}

	if err := c.publisher.Publish(ctx, instance); err != nil {
		return err
	}

	c.logger.Info().
		Int("scripts", len(instance.TrackScripts)).
		Str("interface", instance.Interface).
		Msg("published VRRP configuration")
	return nil
}
