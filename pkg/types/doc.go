/*
Package types defines the core data structures used throughout Drover.

This package contains the fundamental types that represent Drover's domain
model: the declarative load-balancer topology (pools, listeners, backends),
the VRRP failover definition published for the keepalived companion, the
persisted lifecycle bookkeeping of the managed HAProxy process, and the
operator-facing status surface. All other packages build on these types.

# Core Types

Desired topology:
  - Topology: the full desired state (bind addresses, pools, failover)
  - BackendPool: one logical service, a listener fronting ordered backends
  - Listener: the (name, port, algorithm) triple exposed to clients
  - Backend: one endpoint with optional monitor port and weight
  - BalancingAlgorithm: round_robin, least_connections, source_ip

Failover:
  - FailoverConfig: operator-supplied VRRP parameters (virtual IP, router
    id, optional interface)
  - VRRPInstance: the published failover definition
  - VRRPScript: one per-port TCP reachability probe tracked by keepalived

Lifecycle and status:
  - LifecycleState: persisted {installed, started} bookkeeping
  - LifecyclePhase: uninstalled → installed → started ⇄ stopped
  - Status / StatusKind: maintenance, active, blocked, stopped

# State Machine

The managed process follows a fixed lifecycle:

	UNINSTALLED → INSTALLED → STARTED ⇄ STOPPED
	                  ↑                    |
	                  └──── (uninstall) ───┘

LifecycleState persists only the {installed, started} flags plus
timestamps; Phase() derives the machine position. The instance manager in
pkg/haproxy is the sole mutator.

# Design Patterns

Enumeration pattern: all enums are typed string constants
(BalancingAlgorithm, LifecyclePhase, StatusKind) so they are readable in
logs, JSON, and YAML without conversion tables.

Optional fields use pointers: a nil Backend.MonitorPort means the traffic
port doubles as the check port; a nil Weight defers to HAProxy's default
weight policy.

Ownership: Topology values are owned by the topology feed; reconciliation
passes receive a Clone() and never retain references beyond the pass.
LifecycleState is owned by the instance manager; Status by the recorder.

# Integration Points

  - pkg/topology: decodes and validates Topology documents
  - pkg/haproxy: transforms pools into listen sections, owns LifecycleState
  - pkg/keepalived: builds and renders VRRPInstance records
  - pkg/storage: persists LifecycleState, Topology, and Status as JSON
  - pkg/controller: drives transitions and publishes Status
  - pkg/api: serves these types over the observability endpoints
*/
package types
