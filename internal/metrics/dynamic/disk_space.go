package dynamic

import (
	"context"
	"fmt"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/shirou/gopsutil/v4/disk"
)

// Disk reports space usage of the filesystem mounted at path
func (h *HostSource) Disk(ctx context.Context, path string) (sampler.DiskReading, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return sampler.DiskReading{}, fmt.Errorf("failed to get disk usage of %s: %w", path, err)
	}

	return sampler.DiskReading{
		Total: usage.Total,
		Free:  usage.Free,
	}, nil
}
