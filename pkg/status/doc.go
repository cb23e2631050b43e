/*
Package status is the operator-facing status surface.

The controller reports one of four coarse conditions: maintenance
(install or removal in progress), active (serving), blocked (waiting
for operator action, always with an actionable message) and stopped.
The recorder serializes transitions, mirrors them into the one-hot
status metric and persists the latest snapshot.
*/
package status
