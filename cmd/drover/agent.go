package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/drover/pkg/agent"
	"github.com/cuemby/drover/pkg/log"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the drover agent",
	Long: `Run the reconciliation daemon: watch the topology document, keep the
haproxy configuration and lifecycle in step with it, discover failover
peers over gossip and serve the observability HTTP endpoints.

Stopping the agent leaves haproxy running; traffic is not affected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := agent.New(cfg, Version)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Logger.Info().
			Str("version", Version).
			Str("instance", cfg.InstanceName).
			Str("topology", cfg.TopologyPath).
			Msg("starting drover agent")

		return a.Run(ctx)
	},
}
