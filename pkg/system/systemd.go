package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
)

// ServiceManager controls host services. Like PackageManager, every
// operation is synchronous and failures carry the command output.
type ServiceManager interface {
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	Reload(ctx context.Context, unit string) error
	IsActive(ctx context.Context, unit string) (bool, error)
}

// SystemdManager drives services through systemctl.
type SystemdManager struct {
	runner Runner
}

// NewSystemdManager creates a systemctl-backed service manager.
func NewSystemdManager(runner Runner) *SystemdManager {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &SystemdManager{runner: runner}
}

func (s *SystemdManager) control(ctx context.Context, action, unit string) error {
	logger := log.WithUnit(unit)
	logger.Info().Str("action", action).Msg("controlling service")

	output, err := s.runner.Run(ctx, "systemctl", action, unit)
	if err != nil {
		return fmt.Errorf("systemctl %s %s failed: %w (output: %s)", action, unit, err, string(output))
	}
	metrics.ServiceActionsTotal.WithLabelValues(action).Inc()
	return nil
}

// Start starts the unit.
func (s *SystemdManager) Start(ctx context.Context, unit string) error {
	return s.control(ctx, "start", unit)
}

// Stop stops the unit.
func (s *SystemdManager) Stop(ctx context.Context, unit string) error {
	return s.control(ctx, "stop", unit)
}

// Restart restarts the unit.
func (s *SystemdManager) Restart(ctx context.Context, unit string) error {
	return s.control(ctx, "restart", unit)
}

// Reload asks the unit to reload its configuration.
func (s *SystemdManager) Reload(ctx context.Context, unit string) error {
	return s.control(ctx, "reload", unit)
}

// IsActive reports whether the unit is currently active. systemctl
// exits non-zero for inactive units, so a non-empty state string is not
// treated as a command failure.
func (s *SystemdManager) IsActive(ctx context.Context, unit string) (bool, error) {
	output, err := s.runner.Run(ctx, "systemctl", "is-active", unit)
	state := strings.TrimSpace(string(output))
	if state == "active" {
		return true, nil
	}
	if err != nil && state == "" {
		return false, fmt.Errorf("systemctl is-active %s failed: %w", unit, err)
	}
	return false, nil
}
