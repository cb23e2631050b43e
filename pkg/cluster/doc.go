/*
Package cluster discovers failover peers.

Peer presence gates VRRP publication: drover only publishes keepalived
configuration when another drover unit is alive to fail over to.
Discovery runs over a hashicorp/memberlist gossip cluster; membership
changes become peer-joined and peer-departed events on the agent's
queue, and the controller consults Presence before every failover
reconfiguration.

Deployments without gossip peers use NoPeers, which keeps the failover
path permanently inert.
*/
package cluster
