package types

import (
	"fmt"
	"time"
)

// BalancingAlgorithm selects how connections are spread across the
// backends of one pool.
type BalancingAlgorithm string

const (
	AlgorithmRoundRobin       BalancingAlgorithm = "round_robin"
	AlgorithmLeastConnections BalancingAlgorithm = "least_connections"
	AlgorithmSourceIP         BalancingAlgorithm = "source_ip"
)

// Known reports whether the algorithm is one of the supported values.
func (a BalancingAlgorithm) Known() bool {
	switch a {
	case AlgorithmRoundRobin, AlgorithmLeastConnections, AlgorithmSourceIP:
		return true
	}
	return false
}

// Listener is the client-facing triple exposed for one pool. It is
// replaced wholesale on every topology change, never mutated in place.
type Listener struct {
	Name      string             `yaml:"name" json:"name"`
	Port      int                `yaml:"port" json:"port"`
	Algorithm BalancingAlgorithm `yaml:"algorithm" json:"algorithm"`
}

// Backend is one endpoint inside a pool.
type Backend struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`

	// MonitorPort is the health-check port. Nil means the traffic port
	// doubles as the check port.
	MonitorPort *int `yaml:"monitor_port,omitempty" json:"monitor_port,omitempty"`

	// Weight is the relative server weight. Nil defers to the load
	// balancer's own default weight policy.
	Weight *int `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// CheckPort returns the port health checks should probe: the monitor
// port when set, the traffic port otherwise.
func (b *Backend) CheckPort() int {
	if b.MonitorPort != nil {
		return *b.MonitorPort
	}
	return b.Port
}

// BackendPool is one logical service: a listener fronting an ordered
// set of backends.
type BackendPool struct {
	Listener Listener  `yaml:"listener" json:"listener"`
	Backends []Backend `yaml:"backends,omitempty" json:"backends,omitempty"`
}

// FailoverConfig carries the operator-supplied VRRP parameters. An
// empty VirtualIP means the operator has not configured failover yet,
// which is a blocked (recoverable) condition rather than an error.
type FailoverConfig struct {
	VirtualIP string `yaml:"virtual_ip,omitempty" json:"virtual_ip,omitempty"`
	RouterID  int    `yaml:"router_id,omitempty" json:"router_id,omitempty"`

	// Interface is the NIC keepalived should claim the virtual IP on.
	// Empty means drover detects one from the host's interfaces.
	Interface string `yaml:"interface,omitempty" json:"interface,omitempty"`
}

// Topology is the full desired state drover reconciles against. An
// absent topology document decodes to the zero value, which renders an
// empty configuration (zero pools is valid).
type Topology struct {
	// BindAddresses are the addresses every listener binds on. Empty
	// means bind the wildcard address.
	BindAddresses []string       `yaml:"bind_addresses,omitempty" json:"bind_addresses,omitempty"`
	Pools         []BackendPool  `yaml:"pools,omitempty" json:"pools,omitempty"`
	Failover      FailoverConfig `yaml:"failover,omitempty" json:"failover,omitempty"`
}

// FrontendPorts returns the listener ports in pool order, deduplicated.
func (t *Topology) FrontendPorts() []int {
	seen := make(map[int]bool, len(t.Pools))
	ports := make([]int, 0, len(t.Pools))
	for _, pool := range t.Pools {
		if seen[pool.Listener.Port] {
			continue
		}
		seen[pool.Listener.Port] = true
		ports = append(ports, pool.Listener.Port)
	}
	return ports
}

// Clone returns a deep copy. Reconciliation passes operate on clones so
// no reference to the live topology outlives a pass.
func (t *Topology) Clone() *Topology {
	if t == nil {
		return nil
	}
	out := &Topology{Failover: t.Failover}
	if t.BindAddresses != nil {
		out.BindAddresses = append([]string(nil), t.BindAddresses...)
	}
	for _, pool := range t.Pools {
		cp := BackendPool{Listener: pool.Listener}
		for _, b := range pool.Backends {
			bc := b
			if b.MonitorPort != nil {
				v := *b.MonitorPort
				bc.MonitorPort = &v
			}
			if b.Weight != nil {
				v := *b.Weight
				bc.Weight = &v
			}
			cp.Backends = append(cp.Backends, bc)
		}
		out.Pools = append(out.Pools, cp)
	}
	return out
}

// VRRPScript is one local TCP-reachability probe tracked by the
// failover companion. Names are deterministic per frontend port so the
// companion can update scripts in place.
type VRRPScript struct {
	Name         string `json:"name"`
	CheckCommand string `json:"check_command"`
}

// VRRPInstance is the full failover definition published for the
// keepalived companion.
type VRRPInstance struct {
	Name            string       `json:"name"`
	RouterID        int          `json:"router_id"`
	VirtualIPs      []string     `json:"virtual_ips"`
	Interface       string       `json:"interface"`
	TrackInterfaces []string     `json:"track_interfaces"`
	TrackScripts    []VRRPScript `json:"track_scripts"`
}

// LifecyclePhase is the derived position in the managed process's
// lifecycle state machine.
type LifecyclePhase string

const (
	PhaseUninstalled LifecyclePhase = "uninstalled"
	PhaseInstalled   LifecyclePhase = "installed"
	PhaseStarted     LifecyclePhase = "started"
	PhaseStopped     LifecyclePhase = "stopped"
)

// LifecycleState is the persisted bookkeeping for the managed process.
// It is owned and mutated exclusively by the instance manager and
// survives agent restarts.
type LifecycleState struct {
	Installed bool `json:"installed"`
	Started   bool `json:"started"`

	// StartedAt records the first successful start. Zero until then.
	StartedAt time.Time `json:"started_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Phase derives the state-machine position from the persisted flags:
// UNINSTALLED → INSTALLED → STARTED ⇄ STOPPED.
func (s LifecycleState) Phase() LifecyclePhase {
	switch {
	case !s.Installed:
		return PhaseUninstalled
	case s.Started:
		return PhaseStarted
	case s.StartedAt.IsZero():
		return PhaseInstalled
	default:
		return PhaseStopped
	}
}

// StatusKind is the coarse externally-visible condition of the agent.
type StatusKind string

const (
	StatusMaintenance StatusKind = "maintenance"
	StatusActive      StatusKind = "active"
	StatusBlocked     StatusKind = "blocked"
	StatusStopped     StatusKind = "stopped"
)

// Status is the operator-facing condition. Blocked statuses always
// carry a human-readable, operator-actionable message.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
	Since   time.Time  `json:"since"`
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}
