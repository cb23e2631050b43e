package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/drover/pkg/health"
	"github.com/cuemby/drover/pkg/keepalived"
	"github.com/cuemby/drover/pkg/topology"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the configured frontend ports",
	Long: `TCP-probe every frontend port of the topology document on the
loopback address, the same reachability the keepalived check scripts
verify. With --scripts, additionally execute the exact check commands
keepalived would track.

Exits non-zero when any probe fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		snapshot, err := topology.Load(cfg.TopologyPath)
		if err != nil {
			return err
		}

		ports := snapshot.FrontendPorts()
		if len(ports) == 0 {
			fmt.Println("no frontend ports configured")
			return nil
		}

		failed := 0
		for _, port := range ports {
			result := health.NewFrontendChecker(port).Check(cmd.Context())
			mark := "✓"
			if !result.Healthy {
				mark = "✗"
				failed++
			}
			fmt.Printf("%s port %d: %s\n", mark, port, result.Message)
		}

		runScripts, _ := cmd.Flags().GetBool("scripts")
		if runScripts {
			for _, script := range keepalived.CheckScripts(cfg.InstanceName, ports) {
				result := health.NewExecChecker(script.CheckCommand).Check(cmd.Context())
				mark := "✓"
				if !result.Healthy {
					mark = "✗"
					failed++
				}
				fmt.Printf("%s %s: %s\n", mark, script.Name, result.Message)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("scripts", false, "Also execute the keepalived check script commands")
}
