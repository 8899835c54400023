package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/monify-labs/macmonitor/internal/agent"
	"github.com/monify-labs/macmonitor/internal/config"
	"github.com/monify-labs/macmonitor/internal/logger"
	"github.com/monify-labs/macmonitor/internal/metrics/dynamic"
	"github.com/monify-labs/macmonitor/internal/metrics/static"
	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the monitoring agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := agent.New(cfg, dynamic.NewHostSource(), log)
			if err := a.Start(ctx); err != nil {
				log.WithError(err).Error("Agent failed")
				return err
			}
			return nil
		},
	}

	config.AddFlags(cmd.Flags())
	return cmd
}

func newSampleCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Take one snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			s := sampler.New(dynamic.NewHostSource(), sampler.Options{
				CPUWindow: cfg.CPUWindow,
				DiskPath:  cfg.DiskPath,
			}, log)

			ctx := cmd.Context()
			if err := s.Initialize(ctx); err != nil {
				log.WithError(err).Warn("Failed to read baseline network counters")
			}

			// Give the network rate a measurable interval
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}

			return printJSON(cmd, s.Sample(ctx))
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Wait between baseline and snapshot")
	cmd.Flags().String("disk-path", "/", "Mount point reported as disk usage")
	cmd.Flags().Duration("cpu-window", 500*time.Millisecond, "CPU usage observation window")
	return cmd
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print host identification as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeout)
			defer cancel()

			info, err := static.CollectSystemInfo(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of the local agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "macmonitor Agent Status")
			fmt.Fprintln(out, "-----------------------")

			status, err := fetchStatus(cmd.Context(), statusURL(cfg))
			if err != nil {
				fmt.Fprintln(out, "Service: not running")
				fmt.Fprintf(out, "Version: %s\n", config.Version)
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, "Troubleshooting:")
				fmt.Fprintf(out, "  → No agent answered on %s\n", cfg.Addr())
				fmt.Fprintln(out, "  → Start it with: macmonitor run")
				return err
			}

			fmt.Fprintf(out, "Service: %s\n", status.Status)
			fmt.Fprintf(out, "Hostname: %s\n", status.Hostname)
			fmt.Fprintf(out, "Version: %s\n", status.Version)
			fmt.Fprintf(out, "Uptime: %s\n", (time.Duration(status.Uptime) * time.Second).String())
			fmt.Fprintf(out, "Samples served: %d\n", status.SamplesServed)
			fmt.Fprintf(out, "Bonjour: %s\n", onOff(status.DiscoveryActive))
			return nil
		},
	}

	cmd.Flags().String("listen", config.DefaultListen, "Address the agent listens on")
	cmd.Flags().Int("port", config.DefaultPort, "HTTP port of the agent")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "macmonitor %s\n", config.Version)
			fmt.Fprintf(out, "Commit: %s\n", config.Commit)
			fmt.Fprintf(out, "Built: %s\n", config.BuildDate)
		},
	}
}

// statusURL targets loopback when the agent listens on every interface
func statusURL(cfg *config.Config) string {
	host := cfg.Listen
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port)) + "/api/agent"
}

func fetchStatus(ctx context.Context, url string) (*models.AgentStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var status models.AgentStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode agent status: %w", err)
	}
	return &status, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func onOff(b bool) string {
	if b {
		return "advertised"
	}
	return "inactive"
}
