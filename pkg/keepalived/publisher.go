package keepalived

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
	"github.com/cuemby/drover/pkg/system"
	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/types"
)

// PublisherConfig locates the rendered drop-in and names the companion.
type PublisherConfig struct {
	// OutputPath is the keepalived configuration drop-in drover owns.
	OutputPath string

	// Unit is the companion's systemd unit, reloaded on content change
	// when ManageService is set. When unset, drover only writes the
	// file and the companion's own tooling picks it up.
	Unit          string
	ManageService bool
}

// Publisher renders VRRP definitions into the keepalived drop-in.
type Publisher struct {
	cfg      PublisherConfig
	renderer *template.Renderer
	services system.ServiceManager
	logger   zerolog.Logger
}

// NewPublisher creates a publisher for the configured drop-in path.
func NewPublisher(cfg PublisherConfig, renderer *template.Renderer, services system.ServiceManager) *Publisher {
	return &Publisher{
		cfg:      cfg,
		renderer: renderer,
		services: services,
		logger:   log.WithComponent("keepalived"),
	}
}

// Publish renders the instance and overwrites the drop-in in full. The
// companion service is reloaded only when drover manages it and the
// rendered content actually changed.
func (p *Publisher) Publish(ctx context.Context, instance *types.VRRPInstance) error {
	content, err := p.renderer.Render(template.KeepalivedConfig, instance)
	if err != nil {
		return err
	}

	previous, readErr := os.ReadFile(p.cfg.OutputPath)
	changed := readErr != nil || string(previous) != content

	if err := os.MkdirAll(filepath.Dir(p.cfg.OutputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(p.cfg.OutputPath), err)
	}
	if err := os.WriteFile(p.cfg.OutputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.cfg.OutputPath, err)
	}

	metrics.VRRPPublicationsTotal.Inc()
	p.logger.Info().Str("path", p.cfg.OutputPath).Bool("changed", changed).Msg("published VRRP configuration")

	if p.cfg.ManageService && changed {
		return p.services.Reload(ctx, p.cfg.Unit)
	}
	return nil
}
