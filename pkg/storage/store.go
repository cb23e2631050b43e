package storage

import (
	"github.com/cuemby/drover/pkg/types"
)

// Store persists the agent's durable records: the lifecycle bookkeeping
// of the managed process, the last applied topology, and the last
// reported status. Records are whole-value saves; absent records load
// as (nil, nil).
type Store interface {
	SaveLifecycleState(state *types.LifecycleState) error
	LoadLifecycleState() (*types.LifecycleState, error)

	SaveTopology(topology *types.Topology) error
	LoadTopology() (*types.Topology, error)

	SaveStatus(status *types.Status) error
	LoadStatus() (*types.Status, error)

	Close() error
}
