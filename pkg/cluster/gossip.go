package cluster

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/memberlist"
	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/events"
	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
)

// Presence answers whether a failover peer currently exists. The
// controller consults it before publishing VRRP configuration: without
// a peer the failover path is a silent no-op.
type Presence interface {
	PeerPresent() bool
	Peers() []string
}

// NoPeers is the presence used when gossip is disabled: never a peer,
// so the failover path stays inert.
type NoPeers struct{}

func (NoPeers) PeerPresent() bool { return false }
func (NoPeers) Peers() []string   { return nil }

// Enqueuer receives peer membership events.
type Enqueuer interface {
	Enqueue(event *events.Event)
}

// Config shapes the gossip cluster used for peer discovery.
type Config struct {
	NodeName      string
	BindAddr      string
	BindPort      int
	Peers         []string
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// Gossip discovers failover peers over a hashicorp/memberlist cluster
// and translates membership changes into drover events.
type Gossip struct {
	list   *memberlist.Memberlist
	self   string
	seeds  []string
	queue  Enqueuer
	logger zerolog.Logger
}

// NewGossip creates the cluster node and starts translating membership
// events until ctx ends.
func NewGossip(ctx context.Context, cfg Config, queue Enqueuer) (*Gossip, error) {
	const eventBufSize = 64

	nodeEvents := make(chan memberlist.NodeEvent, eventBufSize)

	mlConfig := memberlist.DefaultLANConfig()
	mlConfig.Name = cfg.NodeName
	if cfg.BindAddr != "" {
		mlConfig.BindAddr = cfg.BindAddr
	}
	mlConfig.BindPort = cfg.BindPort
	mlConfig.AdvertisePort = cfg.BindPort
	mlConfig.LogOutput = io.Discard
	if cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	if cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	mlConfig.Events = &memberlist.ChannelEventDelegate{Ch: nodeEvents}

	list, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gossip cluster: %w", err)
	}

	g := &Gossip{
		list:   list,
		self:   cfg.NodeName,
		seeds:  cfg.Peers,
		queue:  queue,
		logger: log.WithComponent("cluster"),
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case nodeEvent, open := <-nodeEvents:
				if !open {
					return
				}
				g.handle(nodeEvent)
			}
		}
	}()

	return g, nil
}

// handle translates one membership change into a drover event. The
// local node's own join is not a peer.
func (g *Gossip) handle(nodeEvent memberlist.NodeEvent) {
	if nodeEvent.Node.Name == g.self {
		return
	}

	var event *events.Event
	switch nodeEvent.Event {
	case memberlist.NodeJoin:
		event = events.New(events.EventPeerJoined)
	case memberlist.NodeLeave:
		event = events.New(events.EventPeerDeparted)
	default:
		return
	}
	event.Message = nodeEvent.Node.Name
	event.Metadata = map[string]string{
		"peer":    nodeEvent.Node.Name,
		"address": nodeEvent.Node.Address(),
	}

	g.logger.Info().
		Str("peer", nodeEvent.Node.Name).
		Str("event", string(event.Type)).
		Msg("failover peer membership changed")

	if g.list != nil {
		metrics.FailoverPeers.Set(float64(g.list.NumMembers() - 1))
	}
	g.queue.Enqueue(event)
}

// Join contacts the configured seed peers. Safe to call with no seeds.
func (g *Gossip) Join(ctx context.Context) error {
	if len(g.seeds) == 0 {
		return nil
	}
	if _, err := g.list.Join(g.seeds); err != nil {
		return fmt.Errorf("failed to join gossip peers: %w", err)
	}
	return nil
}

// PeerPresent reports whether at least one live peer besides this node
// is in the cluster.
func (g *Gossip) PeerPresent() bool {
	return g.list.NumMembers() > 1
}

// Peers returns the names of the live peers, excluding this node.
func (g *Gossip) Peers() []string {
	members := g.list.Members()
	peers := make([]string, 0, len(members))
	for _, member := range members {
		if member.Name == g.self {
			continue
		}
		peers = append(peers, member.Name)
	}
	return peers
}

// Leave announces a graceful departure and shuts the node down.
func (g *Gossip) Leave(timeout time.Duration) error {
	if err := g.list.Leave(timeout); err != nil {
		g.logger.Warn().Err(err).Msg("graceful gossip leave failed")
	}
	return g.list.Shutdown()
}
