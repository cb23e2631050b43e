/*
Package keepalived builds and publishes the VRRP failover definition for
the keepalived companion process.

Drover does not speak VRRP itself. It derives a VRRPInstance record from
the topology (virtual IP, router id, interface) plus one TCP
reachability script per frontend port, and renders it into a keepalived
configuration drop-in. The companion owns the actual failover.

# Check Scripts

Every frontend port across all pools gets a probe named
<service>_port_<port>_check running

	bash -c '</dev/tcp/127.0.0.1/<port>'

Names are deterministic per port so keepalived updates scripts in place.
Because the scripts probe haproxy's own listening ports, publishing them
before haproxy's first start would wedge failover with permanently
failing checks; the controller sequences that ordering.

# Recoverable Conditions

BuildVRRPInstance reports two operator-correctable conditions as
sentinel errors rather than failing the agent:

  - ErrNoVirtualIP: no virtual IP supplied yet
  - ErrNoInterface: no interface given and none detectable

The controller turns both into a blocked status.

DetectInterface fills in the interface when the operator leaves it
unset: the interface owning a subnet containing the virtual IP wins,
falling back to the first up, non-loopback interface with an IPv4
address.

# Publishing

Publisher.Publish overwrites the drop-in in full on every call. When
drover manages the companion service it reloads keepalived only when
the rendered content changed, so repeated reconciliations of identical
topology stay quiet.
*/
package keepalived
