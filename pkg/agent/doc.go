/*
Package agent assembles the drover daemon.

Core wires the components every entry point needs: the bolt store, the
template renderer, the haproxy instance manager, the keepalived
publisher and the status recorder. The one-shot CLI commands stop
there. Agent adds the moving parts of the daemon: the event queue, the
topology file watcher, the gossip cluster, the observability HTTP
server and the reconciliation controller, and runs them until the
context ends.
*/
package agent
