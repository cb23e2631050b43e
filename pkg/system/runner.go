package system

import (
	"context"
	"os/exec"
)

// Runner executes one system command and returns its combined output.
// It exists so package and service managers can be tested without
// touching the host.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// Run executes the command and returns combined stdout/stderr. The raw
// error is returned untouched; callers wrap it with command context.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
