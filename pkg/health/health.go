package health

import (
	"context"
	"time"
)

// CheckType represents the kind of probe.
type CheckType string

const (
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeExec CheckType = "exec"
)

// Result is the outcome of one probe.
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is a single local probe. Drover runs TCP checkers against
// the frontend ports it configures, and exec checkers to execute the
// exact commands keepalived will track.
type Checker interface {
	// Check performs the probe and returns the result
	Check(ctx context.Context) Result

	// Type returns the kind of probe
	Type() CheckType
}
