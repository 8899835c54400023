package main

import (
	"fmt"
	"os"

	"github.com/monify-labs/macmonitor/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macmonitor",
		Short: "macmonitor - system monitoring agent",
		Long: `macmonitor samples CPU, memory, disk, network and sensor readings of
this machine and serves them over HTTP to a local dashboard.

The agent advertises itself on the local network as _macmonitor._tcp so
dashboards can find it without configuration.

Configuration:
  --config FILE          YAML configuration file
  /etc/macmonitor/env    Environment variables file
  MACMONITOR_*           Environment overrides (e.g. MACMONITOR_PORT=9090)`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to YAML config file")

	cmd.AddCommand(
		newRunCommand(),
		newSampleCommand(),
		newInfoCommand(),
		newStatusCommand(),
		newVersionCommand(),
	)

	return cmd
}

// loadConfig layers the env file, config file, environment and explicitly set flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFlags(cmd.Flags())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
