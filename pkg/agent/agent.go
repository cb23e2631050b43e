package agent

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/api"
	"github.com/cuemby/drover/pkg/cluster"
	"github.com/cuemby/drover/pkg/config"
	"github.com/cuemby/drover/pkg/controller"
	"github.com/cuemby/drover/pkg/events"
	"github.com/cuemby/drover/pkg/haproxy"
	"github.com/cuemby/drover/pkg/keepalived"
	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/status"
	"github.com/cuemby/drover/pkg/storage"
	"github.com/cuemby/drover/pkg/system"
	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/topology"
)

// Core is the stack shared by the daemon and the one-shot CLI
// commands: persistence, rendering, the haproxy instance manager, the
// keepalived publisher and the status recorder. The daemon adds the
// event queue, the topology watcher, gossip and the HTTP server on
// top.
type Core struct {
	Config    *config.Config
	Store     *storage.BoltStore
	Renderer  *template.Renderer
	Manager   *haproxy.InstanceManager
	Publisher *keepalived.Publisher
	Recorder  *status.Recorder
}

// NewCore opens the store and wires the host-facing components.
func NewCore(cfg *config.Config) (*Core, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.DataDir, err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	renderer, err := template.NewRenderer()
	if err != nil {
		store.Close()
		return nil, err
	}

	runner := system.ExecRunner{}
	packages := system.NewAptManager(runner)
	services := system.NewSystemdManager(runner)

	manager, err := haproxy.NewInstanceManager(haproxy.InstanceConfig{
		ConfigPath:  cfg.HAProxy.ConfigPath,
		EnvFilePath: cfg.HAProxy.EnvFilePath,
		Unit:        cfg.HAProxy.Unit,
		Package:     cfg.HAProxy.Package,
	}, packages, services, renderer, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	publisher := keepalived.NewPublisher(keepalived.PublisherConfig{
		OutputPath:    cfg.Failover.OutputPath,
		Unit:          cfg.Failover.Unit,
		ManageService: cfg.Failover.ManageService,
	}, renderer, services)

	recorder, err := status.NewRecorder(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Core{
		Config:    cfg,
		Store:     store,
		Renderer:  renderer,
		Manager:   manager,
		Publisher: publisher,
		Recorder:  recorder,
	}, nil
}

// Close releases the core's resources.
func (c *Core) Close() error {
	return c.Store.Close()
}

// Agent is the long-running daemon: it watches the topology document,
// gossips with failover peers, serves the observability endpoints and
// runs the reconciliation controller.
type Agent struct {
	core    *Core
	version string

	queue  *events.Queue
	source *topology.FileSource
	logger zerolog.Logger
}

// New builds the daemon on top of a fresh core.
func New(cfg *config.Config, version string) (*Agent, error) {
	core, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}

	queue := events.NewQueue()
	return &Agent{
		core:    core,
		version: version,
		queue:   queue,
		source:  topology.NewFileSource(cfg.TopologyPath, queue),
		logger:  log.WithComponent("agent"),
	}, nil
}

// Run starts every component and drives the controller until ctx ends.
// HAProxy keeps serving after shutdown; only the agent stops.
func (a *Agent) Run(ctx context.Context) error {
	defer a.core.Close()

	cfg := a.core.Config

	if err := a.source.Start(ctx); err != nil {
		return err
	}

	presence, gossip, err := a.startGossip(ctx)
	if err != nil {
		return err
	}
	if gossip != nil {
		defer func() {
			if leaveErr := gossip.Leave(2 * time.Second); leaveErr != nil {
				a.logger.Warn().Err(leaveErr).Msg("gossip shutdown failed")
			}
		}()
	}

	ctrl := controller.New(a.queue, a.core.Manager, a.source, a.core.Publisher, presence, a.core.Recorder, a.core.Store, cfg.InstanceName)

	server := api.NewServer(a.version, a.core.Recorder, a.core.Manager, a.source, peerView{presence: presence})
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", cfg.ListenAddr).Msg("observability endpoint listening")
		if err := server.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.bootstrap()

	runErr := make(chan error, 1)
	go func() {
		runErr <- ctrl.Run(ctx)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("observability server failed: %w", err)
	case err := <-runErr:
		return err
	}
}

// bootstrap enqueues the boot sequence. Every handler is idempotent,
// so replaying install and start on each agent restart is safe and
// heals a half-finished previous run.
func (a *Agent) bootstrap() {
	a.queue.Enqueue(events.New(events.EventInstall))
	a.queue.Enqueue(events.New(events.EventStart))
	a.queue.Enqueue(events.New(events.EventBackendsChanged))
}

func (a *Agent) startGossip(ctx context.Context) (cluster.Presence, *cluster.Gossip, error) {
	cfg := a.core.Config
	if len(cfg.Gossip.Peers) == 0 {
		a.logger.Info().Msg("no gossip peers configured, failover disabled")
		return cluster.NoPeers{}, nil, nil
	}

	gossip, err := cluster.NewGossip(ctx, cluster.Config{
		NodeName:      cfg.InstanceName,
		BindAddr:      cfg.Gossip.BindAddr,
		BindPort:      cfg.Gossip.BindPort,
		Peers:         cfg.Gossip.Peers,
		ProbeInterval: cfg.Gossip.ProbeInterval,
		ProbeTimeout:  cfg.Gossip.ProbeTimeout,
	}, a.queue)
	if err != nil {
		return nil, nil, err
	}

	if err := gossip.Join(ctx); err != nil {
		// Peers may simply not be up yet; they will join us instead.
		a.logger.Warn().Err(err).Msg("initial gossip join failed")
	}
	return gossip, gossip, nil
}

// peerView adapts a Presence into the api server's PeerProvider; a
// disabled gossip cluster presents zero peers.
type peerView struct {
	presence cluster.Presence
}

func (p peerView) PeerPresent() bool { return p.presence.PeerPresent() }
func (p peerView) Peers() []string   { return p.presence.Peers() }
