package dynamic

import (
	"context"
	"fmt"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/shirou/gopsutil/v4/mem"
)

// Memory gathers virtual memory usage (no sampling needed)
func (h *HostSource) Memory(ctx context.Context) (sampler.MemoryReading, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return sampler.MemoryReading{}, fmt.Errorf("failed to get memory statistics: %w", err)
	}

	return sampler.MemoryReading{
		Total:       vmem.Total,
		Used:        vmem.Used,
		Available:   vmem.Available,
		UsedPercent: vmem.UsedPercent,
	}, nil
}
