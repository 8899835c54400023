package dynamic

import (
	"context"
	"fmt"

	"github.com/monify-labs/macmonitor/internal/sampler"
	gopsutilNet "github.com/shirou/gopsutil/v4/net"
)

// NetworkCounters returns cumulative I/O counters summed over all interfaces
func (h *HostSource) NetworkCounters(ctx context.Context) (sampler.NetworkCounters, error) {
	ioCounters, err := gopsutilNet.IOCountersWithContext(ctx, false)
	if err != nil {
		return sampler.NetworkCounters{}, fmt.Errorf("failed to get network statistics: %w", err)
	}

	// Without pernic gopsutil returns a single "all" entry, but sum anyway
	var counters sampler.NetworkCounters
	for _, stat := range ioCounters {
		counters.BytesRecv += stat.BytesRecv
		counters.BytesSent += stat.BytesSent
		counters.PacketsRecv += stat.PacketsRecv
		counters.PacketsSent += stat.PacketsSent
	}

	return counters, nil
}
