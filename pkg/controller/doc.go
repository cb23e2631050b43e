/*
Package controller is the reconciliation state machine.

One goroutine consumes typed events from the agent's queue and reacts:
lifecycle events drive the haproxy instance manager, topology events
rebuild the listen sections and rewrite the configuration, peer events
gate VRRP publication for the keepalived companion.

Every handler is idempotent and re-entrant by construction, so the
delivery mechanism may repeat events freely. Failures split four ways:
operator-correctable configuration gaps become a blocked status and a
clean return; the one ordering precondition (no VRRP before haproxy's
first start) defers the event for redelivery; external primitive
failures end the handler and surface in the log and error counter,
with no internal retry; invariant violations fail fast.
*/
package controller
