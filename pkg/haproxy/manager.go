package haproxy

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
	"github.com/cuemby/drover/pkg/system"
	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/types"
)

// StateStore persists the lifecycle bookkeeping across agent restarts.
type StateStore interface {
	SaveLifecycleState(state *types.LifecycleState) error
	LoadLifecycleState() (*types.LifecycleState, error)
}

// InstanceConfig locates the artifacts and host primitives of one
// managed haproxy instance.
type InstanceConfig struct {
	// ConfigPath is the drover-rendered configuration file, loaded by
	// the service in addition to the distribution's own haproxy.cfg.
	ConfigPath string

	// EnvFilePath is the environment file the distribution's unit
	// sources; drover rewrites it to point haproxy at ConfigPath.
	EnvFilePath string

	Unit    string
	Package string
}

type configContext struct {
	Sections []ListenSection
}

type envContext struct {
	AppConfigPath string
}

// InstanceManager owns the install/start/stop/reconfigure sequencing of
// the managed haproxy process. It is the only mutator of the persisted
// LifecycleState and must be driven from a single goroutine.
type InstanceManager struct {
	cfg      InstanceConfig
	packages system.PackageManager
	services system.ServiceManager
	renderer *template.Renderer
	store    StateStore
	state    types.LifecycleState
	logger   zerolog.Logger
}

// NewInstanceManager loads the persisted lifecycle state and returns a
// manager ready to sequence the instance.
func NewInstanceManager(cfg InstanceConfig, packages system.PackageManager, services system.ServiceManager, renderer *template.Renderer, store StateStore) (*InstanceManager, error) {
	state, err := store.LoadLifecycleState()
	if err != nil {
		return nil, fmt.Errorf("failed to load lifecycle state: %w", err)
	}
	if state == nil {
		state = &types.LifecycleState{}
	}

	m := &InstanceManager{
		cfg:      cfg,
		packages: packages,
		services: services,
		renderer: renderer,
		store:    store,
		state:    *state,
		logger:   log.WithComponent("haproxy"),
	}
	metrics.SetLifecycle(m.state.Installed, m.state.Started)
	return m, nil
}

// State returns a copy of the current lifecycle bookkeeping.
func (m *InstanceManager) State() types.LifecycleState {
	return m.state
}

// Install installs the haproxy package, rewrites the environment file
// so the packaged service also loads the drover-rendered configuration,
// and resets that configuration to empty. Safe to call when already
// installed; it re-applies rather than duplicating state.
func (m *InstanceManager) Install(ctx context.Context) error {
	m.logger.Info().Str("package", m.cfg.Package).Msg("installing the haproxy package")

	if err := m.packages.Update(ctx); err != nil {
		return err
	}
	if err := m.packages.Install(ctx, m.cfg.Package); err != nil {
		return err
	}
	if err := m.writeEnvFile(); err != nil {
		return err
	}
	if err := os.WriteFile(m.cfg.ConfigPath, nil, 0o644); err != nil {
		return fmt.Errorf("failed to reset %s: %w", m.cfg.ConfigPath, err)
	}

	m.state.Installed = true
	return m.persist()
}

// writeEnvFile renders the maintainer environment file so the packaged
// unit loads the drover configuration in addition to its default one.
func (m *InstanceManager) writeEnvFile() error {
	content, err := m.renderer.Render(template.HAProxyEnvFile, envContext{AppConfigPath: m.cfg.ConfigPath})
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.cfg.EnvFilePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.cfg.EnvFilePath, err)
	}
	return nil
}

// Start starts the service unless it is already started.
func (m *InstanceManager) Start(ctx context.Context) error {
	if m.state.Started {
		m.logger.Debug().Msg("service already started")
		return nil
	}

	m.logger.Info().Str("unit", m.cfg.Unit).Msg("starting the haproxy service")
	if err := m.services.Start(ctx, m.cfg.Unit); err != nil {
		return err
	}

	m.state.Started = true
	if m.state.StartedAt.IsZero() {
		m.state.StartedAt = time.Now()
	}
	return m.persist()
}

// Stop stops the service unless it is already stopped.
func (m *InstanceManager) Stop(ctx context.Context) error {
	if !m.state.Started {
		m.logger.Debug().Msg("service already stopped")
		return nil
	}

	m.logger.Info().Str("unit", m.cfg.Unit).Msg("stopping the haproxy service")
	if err := m.services.Stop(ctx, m.cfg.Unit); err != nil {
		return err
	}

	m.state.Started = false
	return m.persist()
}

// Reconfigure renders the listen sections to the configuration artifact,
// fully overwriting it, and restarts the service only when it is
// currently started. When stopped, the write still happens and the next
// Start picks it up. Permitted in every lifecycle state.
func (m *InstanceManager) Reconfigure(ctx context.Context, sections []ListenSection) error {
	m.logger.Info().Int("sections", len(sections)).Msg("rendering the haproxy config file")

	content, err := m.renderer.Render(template.HAProxyConfig, configContext{Sections: sections})
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.cfg.ConfigPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.cfg.ConfigPath, err)
	}

	servers := 0
	for _, section := range sections {
		servers += len(section.Servers)
	}
	metrics.ListenersConfigured.Set(float64(len(sections)))
	metrics.ServersConfigured.Set(float64(servers))

	if !m.state.Started {
		m.logger.Debug().Msg("service not started, skipping restart")
		return nil
	}

	m.logger.Info().Str("unit", m.cfg.Unit).Msg("restarting the haproxy service")
	return m.services.Restart(ctx, m.cfg.Unit)
}

// Uninstall purges the package and removes the drover-rendered
// artifacts. The persisted bookkeeping is left untouched; callers treat
// uninstall as terminal.
func (m *InstanceManager) Uninstall(ctx context.Context) error {
	m.logger.Info().Str("package", m.cfg.Package).Msg("uninstalling the haproxy package")

	if err := m.packages.Purge(ctx, m.cfg.Package); err != nil {
		return err
	}
	for _, path := range []string{m.cfg.ConfigPath, m.cfg.EnvFilePath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", path).Msg("failed to remove rendered artifact")
		}
	}
	return nil
}

func (m *InstanceManager) persist() error {
	m.state.UpdatedAt = time.Now()
	state := m.state
	if err := m.store.SaveLifecycleState(&state); err != nil {
		return fmt.Errorf("failed to persist lifecycle state: %w", err)
	}
	metrics.SetLifecycle(m.state.Installed, m.state.Started)
	return nil
}
