/*
Package topology is the desired-state feed: it loads, validates and
watches the declarative YAML document describing backend pools, bind
addresses and failover parameters.

The file source owns the only long-lived copy of the topology. The
controller takes a deep-copied snapshot per reconciliation pass, so no
reference to the live document outlives a pass. Edits to the document
are debounced and classified: pool or bind-address changes enqueue a
backends-changed event, failover-parameter changes a config-changed
event.

A missing or empty document is a valid desired state with zero pools.
A document that fails validation blocks reconciliation (the operator
can fix it) but never crashes the agent.
*/
package topology
