package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/drover/pkg/haproxy"
	"github.com/cuemby/drover/pkg/keepalived"
	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/topology"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the configuration artifacts to stdout",
	Long: `Dry-run: load the topology document, build the listen sections and
print the haproxy configuration, followed by the keepalived drop-in
when failover parameters are set. Nothing is written to disk and no
service is touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("topology")
		if path == "" {
			path = cfg.TopologyPath
		}

		snapshot, err := topology.Load(path)
		if err != nil {
			return err
		}

		renderer, err := template.NewRenderer()
		if err != nil {
			return err
		}

		sections, err := haproxy.BuildListenSections(snapshot.Pools, snapshot.BindAddresses)
		if err != nil {
			return err
		}
		haproxyCfg, err := renderer.Render(template.HAProxyConfig, struct {
			Sections []haproxy.ListenSection
		}{sections})
		if err != nil {
			return err
		}

		fmt.Printf("# --- %s ---\n%s\n", cfg.HAProxy.ConfigPath, haproxyCfg)

		failover := snapshot.Failover
		if failover.VirtualIP == "" {
			fmt.Println("# keepalived: skipped, failover.virtual_ip not set")
			return nil
		}

		iface := failover.Interface
		if iface == "" {
			iface, err = keepalived.DetectInterface(failover.VirtualIP)
			if errors.Is(err, keepalived.ErrNoInterface) {
				fmt.Println("# keepalived: skipped, no usable network interface")
				return nil
			}
			if err != nil {
				return err
			}
		}

		routerID := failover.RouterID
		if routerID == 0 {
			routerID = keepalived.DefaultRouterID
		}

		instance, err := keepalived.BuildVRRPInstance(cfg.InstanceName, routerID, []string{failover.VirtualIP}, iface, snapshot.FrontendPorts())
		if err != nil {
			return err
		}
		keepalivedCfg, err := renderer.Render(template.KeepalivedConfig, instance)
		if err != nil {
			return err
		}

		fmt.Printf("# --- %s ---\n%s\n", cfg.Failover.OutputPath, keepalivedCfg)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("topology", "", "Topology document to render (defaults to the configured path)")
}
