/*
Package log provides structured logging for Drover using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ───────────────────┐
	│                                                         │
	│  ┌───────────────────────────────────────────┐         │
	│  │            Global Logger                   │         │
	│  │  - Zerolog instance                        │         │
	│  │  - Initialized via log.Init()              │         │
	│  │  - Thread-safe for concurrent use          │         │
	│  └──────────────────┬────────────────────────┘         │
	│                     │                                   │
	│  ┌──────────────────▼────────────────────────┐         │
	│  │         Component Loggers                  │         │
	│  │  - WithComponent("controller")             │         │
	│  │  - WithPool("web")                         │         │
	│  │  - WithUnit("haproxy")                     │         │
	│  │  - WithEvent("lifecycle.start", id)        │         │
	│  └──────────────────┬────────────────────────┘         │
	│                     │                                   │
	│  ┌──────────────────▼────────────────────────┐         │
	│  │            Log Output                      │         │
	│  │  JSON:                                     │         │
	│  │  {"level":"info","component":"controller", │         │
	│  │   "time":"...","message":"event handled"}  │         │
	│  │  Console:                                  │         │
	│  │  10:30AM INF event handled component=...   │         │
	│  └───────────────────────────────────────────┘         │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all Drover packages

Log Levels:
  - Debug: detailed reconciliation tracing
  - Info: lifecycle transitions, reconfigurations
  - Warn: dropped events, recoverable conditions
  - Error: failed handlers and system commands
  - Fatal: unrecoverable startup failures (process exits)

Context Loggers:
  - WithComponent: stable component name on all entries
  - WithPool: backend pool context
  - WithUnit: systemd unit context
  - WithEvent: event type + id context in the dispatch path

# Usage

Initialize once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component loggers:

	logger := log.WithComponent("controller")
	logger.Info().Str("event", "lifecycle.start").Msg("dispatching event")

Package-level helpers for one-liners:

	log.Info("agent started")
	log.Errorf("failed to reconfigure", err)

# Integration Points

  - pkg/config: supplies Level and JSONOutput from agent configuration
  - pkg/agent and cmd/drover: call Init at startup
  - all other packages: obtain component child loggers
*/
package log
