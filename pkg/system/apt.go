package system

import (
	"context"
	"fmt"

	"github.com/cuemby/drover/pkg/log"
)

// PackageManager installs and removes host packages. Operations either
// fully succeed or fail with the command's output attached; there is no
// internal retry.
type PackageManager interface {
	Update(ctx context.Context) error
	Install(ctx context.Context, pkg string) error
	Purge(ctx context.Context, pkg string) error
}

// AptManager drives the apt package manager.
type AptManager struct {
	runner Runner
}

// NewAptManager creates an apt-backed package manager.
func NewAptManager(runner Runner) *AptManager {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &AptManager{runner: runner}
}

// Update refreshes the package index.
func (a *AptManager) Update(ctx context.Context) error {
	logger := log.WithComponent("system")
	logger.Info().Msg("updating package index")

	output, err := a.runner.Run(ctx, "apt", "update")
	if err != nil {
		return fmt.Errorf("apt update failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// Install installs the package non-interactively.
func (a *AptManager) Install(ctx context.Context, pkg string) error {
	logger := log.WithComponent("system")
	logger.Info().Str("package", pkg).Msg("installing package")

	output, err := a.runner.Run(ctx, "apt", "install", "-yq", pkg)
	if err != nil {
		return fmt.Errorf("apt install %s failed: %w (output: %s)", pkg, err, string(output))
	}
	return nil
}

// Purge removes the package together with its configuration files.
func (a *AptManager) Purge(ctx context.Context, pkg string) error {
	logger := log.WithComponent("system")
	logger.Info().Str("package", pkg).Msg("purging package")

	output, err := a.runner.Run(ctx, "apt", "purge", "-yq", pkg)
	if err != nil {
		return fmt.Errorf("apt purge %s failed: %w (output: %s)", pkg, err, string(output))
	}
	return nil
}
