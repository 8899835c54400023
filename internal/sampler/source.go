package sampler

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a Source when the platform cannot supply a reading
var ErrUnavailable = errors.New("sensor unavailable on this platform")

// MemoryReading is a raw virtual memory reading
type MemoryReading struct {
	Total       uint64
	Used        uint64
	Available   uint64
	UsedPercent float64
}

// DiskReading is a raw filesystem usage reading
type DiskReading struct {
	Total uint64
	Free  uint64 // Available to unprivileged users
}

// NetworkCounters are cumulative counters summed over all interfaces
type NetworkCounters struct {
	BytesRecv   uint64
	BytesSent   uint64
	PacketsRecv uint64
	PacketsSent uint64
}

// ProcessCounts holds the number of processes and their threads
type ProcessCounts struct {
	Processes int
	Threads   int
}

// BatteryReading is the aggregate state of all batteries
type BatteryReading struct {
	Level    float64 // 0..1
	Charging bool
}

// Source reads raw OS counters. Optional capabilities (frequency,
// temperature, battery) return ErrUnavailable when unsupported.
type Source interface {
	// CPUUsage blocks for window and returns the busy fraction over it
	CPUUsage(ctx context.Context, window time.Duration) (float64, error)
	CoreCount(ctx context.Context) (int, error)
	// CPUFrequency returns the current frequency in GHz
	CPUFrequency(ctx context.Context) (float64, error)
	// CPUTemperature returns the CPU temperature in °C
	CPUTemperature(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (MemoryReading, error)
	Disk(ctx context.Context, path string) (DiskReading, error)
	NetworkCounters(ctx context.Context) (NetworkCounters, error)
	// Uptime returns seconds since boot
	Uptime(ctx context.Context) (float64, error)
	Processes(ctx context.Context) (ProcessCounts, error)
	Battery(ctx context.Context) (BatteryReading, error)
}
