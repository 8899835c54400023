package static

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/shirou/gopsutil/v4/host"
)

// CollectSystemInfo gathers hostname, OS version, hardware model and architecture
func CollectSystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	hostname := info.Hostname
	if hostname == "" {
		if hostname, err = os.Hostname(); err != nil {
			hostname = "unknown"
		}
	}

	arch := info.KernelArch
	if arch == "" {
		arch = runtime.GOARCH
	}

	return &models.SystemInfo{
		Hostname:     hostname,
		OSVersion:    formatOSVersion(info),
		Model:        CollectModel(ctx),
		Architecture: arch,
	}, nil
}

// formatOSVersion renders e.g. "macOS 14.5", "ubuntu 24.04" or "linux 6.8.0"
func formatOSVersion(info *host.InfoStat) string {
	switch {
	case info.OS == "darwin" && info.PlatformVersion != "":
		return "macOS " + info.PlatformVersion
	case info.Platform != "":
		return strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	case info.OS != "":
		return strings.TrimSpace(info.OS + " " + info.KernelVersion)
	default:
		return runtime.GOOS
	}
}
