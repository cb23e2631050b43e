package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/drover/pkg/agent"
	"github.com/cuemby/drover/pkg/haproxy"
	"github.com/cuemby/drover/pkg/topology"
	"github.com/cuemby/drover/pkg/types"
)

// withCore runs one lifecycle step against a freshly wired core and
// closes it afterwards.
func withCore(cmd *cobra.Command, fn func(ctx context.Context, core *agent.Core) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	core, err := agent.NewCore(cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	return fn(cmd.Context(), core)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the haproxy package and wire its configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core *agent.Core) error {
			core.Recorder.Set(types.StatusMaintenance, "installing haproxy")
			if err := core.Manager.Install(ctx); err != nil {
				return err
			}
			fmt.Println("✓ haproxy installed")
			return nil
		})
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the haproxy service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core *agent.Core) error {
			if err := core.Manager.Start(ctx); err != nil {
				return err
			}
			core.Recorder.Set(types.StatusActive, "")
			fmt.Println("✓ haproxy started")
			return nil
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the haproxy service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core *agent.Core) error {
			if err := core.Manager.Stop(ctx); err != nil {
				return err
			}
			core.Recorder.Set(types.StatusStopped, "haproxy stopped")
			fmt.Println("✓ haproxy stopped")
			return nil
		})
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Purge the haproxy package and remove rendered artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core *agent.Core) error {
			core.Recorder.Set(types.StatusMaintenance, "removing haproxy")
			if err := core.Manager.Uninstall(ctx); err != nil {
				return err
			}
			fmt.Println("✓ haproxy uninstalled")
			return nil
		})
	},
}

var reconfigureCmd = &cobra.Command{
	Use:   "reconfigure",
	Short: "Apply the topology document to haproxy once",
	Long: `Load the topology document, rebuild the listen sections and rewrite
the haproxy configuration. The service is restarted only when it is
currently started, matching the agent's behavior.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core *agent.Core) error {
			snapshot, err := topology.Load(core.Config.TopologyPath)
			if err != nil {
				return err
			}

			sections, err := haproxy.BuildListenSections(snapshot.Pools, snapshot.BindAddresses)
			if err != nil {
				return err
			}
			if err := core.Manager.Reconfigure(ctx, sections); err != nil {
				return err
			}
			if err := core.Store.SaveTopology(snapshot); err != nil {
				return err
			}

			fmt.Printf("✓ applied %d listen section(s)\n", len(sections))
			return nil
		})
	},
}
