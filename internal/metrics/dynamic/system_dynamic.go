package dynamic

import (
	"context"
	"fmt"
	"time"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"
)

// Uptime returns fractional seconds since boot
func (h *HostSource) Uptime(ctx context.Context) (float64, error) {
	bootTime, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get boot time: %w", err)
	}

	return time.Since(time.Unix(int64(bootTime), 0)).Seconds(), nil
}

// Processes counts running processes and their threads
func (h *HostSource) Processes(ctx context.Context) (sampler.ProcessCounts, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return sampler.ProcessCounts{}, fmt.Errorf("failed to list processes: %w", err)
	}

	counts := sampler.ProcessCounts{Processes: len(processes)}
	for _, p := range processes {
		threads, err := p.NumThreadsWithContext(ctx)
		if err != nil || threads < 1 {
			// Exited or inaccessible; it still had its main thread
			threads = 1
		}
		counts.Threads += int(threads)
	}

	return counts, nil
}
