package dynamic

import (
	"context"
	"fmt"
	"time"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/shirou/gopsutil/v4/cpu"
)

// CPUUsage measures overall CPU busy time over window (not per-core)
func (h *HostSource) CPUUsage(ctx context.Context, window time.Duration) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU percentage: %w", err)
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("no CPU percentage reported")
	}

	return percentages[0] / 100, nil
}

// CoreCount returns the number of logical processors
func (h *HostSource) CoreCount(ctx context.Context) (int, error) {
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU count: %w", err)
	}
	return count, nil
}

// CPUFrequency returns the clock of the first CPU in GHz
func (h *HostSource) CPUFrequency(ctx context.Context) (float64, error) {
	info, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", sampler.ErrUnavailable, err)
	}

	// Usually all CPUs report the same clock
	for _, c := range info {
		if c.Mhz > 0 {
			return c.Mhz / 1000, nil
		}
	}

	return 0, sampler.ErrUnavailable
}
