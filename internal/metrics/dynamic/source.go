package dynamic

import (
	"github.com/monify-labs/macmonitor/internal/sampler"
)

// HostSource reads raw counters of the local machine through gopsutil
type HostSource struct {
	readBatteries batteryReader
}

var _ sampler.Source = (*HostSource)(nil)

// NewHostSource creates a source for the local machine
func NewHostSource() *HostSource {
	return &HostSource{
		readBatteries: systemBatteries,
	}
}
