/*
Package haproxy transforms declarative backend pools into haproxy
configuration and sequences the managed process's lifecycle.

The package has two halves: a pure adapter that turns pools into listen
sections, and an instance manager that owns the install/start/stop/
reconfigure state machine of the haproxy process on the host.

# Architecture

	┌─────────────────── PKG/HAPROXY ─────────────────────────┐
	│                                                           │
	│  []types.BackendPool + bind addresses                     │
	│        │                                                  │
	│  ┌─────▼──────────────────────────────┐                  │
	│  │ BuildListenSections (pure)          │                  │
	│  │  - one section per pool, in order   │                  │
	│  │  - bind = addresses × listener port │                  │
	│  │  - balance via fixed algorithm map  │                  │
	│  │  - server lines w/ check port       │                  │
	│  └─────┬──────────────────────────────┘                  │
	│        │ []ListenSection                                  │
	│  ┌─────▼──────────────────────────────┐                  │
	│  │ InstanceManager                     │                  │
	│  │  UNINSTALLED → INSTALLED            │                  │
	│  │       → STARTED ⇄ STOPPED           │                  │
	│  │  - Install: apt + env wiring        │                  │
	│  │  - Reconfigure: render + write,     │                  │
	│  │    restart only when started        │                  │
	│  │  - persists LifecycleState          │                  │
	│  └────────────────────────────────────┘                  │
	│        │                                                  │
	│   pkg/system (apt, systemctl)   pkg/template (render)     │
	└───────────────────────────────────────────────────────────┘

# Adapter Semantics

BuildListenSections is deterministic and side-effect free, so the
controller can run it on every reconfiguration:

  - pools map to sections in input order
  - an empty bind-address set produces a single wildcard bind
  - the balancing map is fixed: round_robin→roundrobin,
    least_connections→leastconn, source_ip→source; anything else is an
    invariant violation and errors out
  - a backend's check port defaults to its traffic port
  - a nil weight is omitted from the server line
  - two pools on the same listener port are rejected

# Lifecycle Semantics

Install rewrites the maintainer environment file with
EXTRAOPTS="-f <config>" so the packaged systemd unit loads the
drover-rendered configuration alongside the distribution default, and
resets the rendered file to empty (haproxy tolerates an empty extra
config). Start and Stop are no-ops in their target states. Reconfigure
always overwrites the artifact in full but restarts only a started
service; a stopped instance picks the configuration up on its next
start. Uninstall purges the package and removes rendered artifacts
without clearing bookkeeping.

Failures from apt, systemctl, rendering, or the filesystem abort the
operation and propagate; the manager never retries internally. Handler
idempotence makes blind redelivery by the controller safe.

# Usage

	sections, err := haproxy.BuildListenSections(topo.Pools, topo.BindAddresses)
	if err != nil {
		return err
	}
	if err := mgr.Reconfigure(ctx, sections); err != nil {
		return err
	}

# Integration Points

  - pkg/controller: drives every operation in here
  - pkg/system: package and service primitives
  - pkg/template: config and environment file rendering
  - pkg/storage: LifecycleState persistence via the StateStore interface
*/
package haproxy
