package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/drover/pkg/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running agent's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ListenAddr
		}
		if strings.HasPrefix(addr, ":") {
			addr = "127.0.0.1" + addr
		}

		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/status", addr))
		if err != nil {
			return fmt.Errorf("failed to reach the agent at %s: %w", addr, err)
		}
		defer resp.Body.Close()

		var status api.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Printf("Status:   %s\n", status.Status)
		fmt.Printf("Phase:    %s\n", status.Phase)
		fmt.Printf("Pools:    %d\n", status.Pools)
		if len(status.FrontendPorts) > 0 {
			fmt.Printf("Ports:    %v\n", status.FrontendPorts)
		}
		if len(status.BindAddresses) > 0 {
			fmt.Printf("Binds:    %s\n", strings.Join(status.BindAddresses, ", "))
		}
		if len(status.Peers) > 0 {
			fmt.Printf("Peers:    %s\n", strings.Join(status.Peers, ", "))
		}
		fmt.Printf("Version:  %s\n", status.Version)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("addr", "", "Agent observability address (defaults to the configured listen address)")
}
