/*
Package api serves the agent's observability HTTP endpoints.

Four routes: /health answers process liveness, /ready answers 503
until haproxy is started and every configured frontend port accepts
local TCP connections, /status summarizes the agent for operators and
the drover CLI, /metrics exposes Prometheus metrics.

The server is read-only: it takes snapshots from its providers and
never mutates agent state.
*/
package api
