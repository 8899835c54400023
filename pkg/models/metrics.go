package models

import "time"

// TimestampFormat is the ISO-8601 layout used for Snapshot timestamps
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Snapshot is one immutable reading of all monitored metrics.
// Optional readings are pointers so that an unavailable sensor encodes as null.
type Snapshot struct {
	Timestamp    string         `json:"timestamp"`
	CPU          CPUMetrics     `json:"cpu"`
	Memory       MemoryMetrics  `json:"memory"`
	Disk         DiskMetrics    `json:"disk"`
	Network      NetworkMetrics `json:"network"`
	Temperature  *float64       `json:"temperature"` // Mirrors cpu.temperature
	Uptime       float64        `json:"uptime"`      // Seconds since boot
	ProcessCount int            `json:"processCount"`
	ThreadCount  int            `json:"threadCount"`
	BatteryLevel *float64       `json:"batteryLevel"` // 0..1
	IsCharging   *bool          `json:"isCharging"`
}

// CPUMetrics contains CPU usage information
type CPUMetrics struct {
	Usage       float64  `json:"usage"` // 0..1 over the observation window
	CoreCount   int      `json:"coreCount"`
	Frequency   *float64 `json:"frequency"`   // GHz
	Temperature *float64 `json:"temperature"` // °C
}

// MemoryMetrics contains memory usage information
type MemoryMetrics struct {
	Total    uint64  `json:"total"`
	Used     uint64  `json:"used"`
	Free     uint64  `json:"free"`     // Available to new allocations
	Pressure float64 `json:"pressure"` // 0..1
}

// DiskMetrics contains space usage of the monitored volume
type DiskMetrics struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// NetworkMetrics contains derived throughput and cumulative packet counters
type NetworkMetrics struct {
	BytesIn    uint64 `json:"bytesIn"`  // bytes/sec
	BytesOut   uint64 `json:"bytesOut"` // bytes/sec
	PacketsIn  uint64 `json:"packetsIn"`
	PacketsOut uint64 `json:"packetsOut"`
}

// SystemInfo identifies the host for /api/info
type SystemInfo struct {
	Hostname     string `json:"hostname"`
	OSVersion    string `json:"osVersion"`
	Model        string `json:"model"`
	Architecture string `json:"architecture"`
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of API error responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// AgentStatus reports the agent's own state for /api/agent
type AgentStatus struct {
	Hostname        string    `json:"hostname"`
	Version         string    `json:"version"`
	Uptime          uint64    `json:"uptime"` // seconds since agent start
	StartedAt       time.Time `json:"startedAt"`
	SamplesServed   uint64    `json:"samplesServed"`
	DiscoveryActive bool      `json:"discoveryActive"`
	Status          string    `json:"status"` // "running", "stopped"
}
