package dynamic

import (
	"context"
	"strings"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/shirou/gopsutil/v4/sensors"
)

// cpuSensorHints are substrings of sensor keys that belong to the CPU package
var cpuSensorHints = []string{"coretemp", "k10temp", "cpu", "package", "tdie", "tctl", "soc"}

// CPUTemperature returns the CPU temperature in °C when a sensor is exposed
func (h *HostSource) CPUTemperature(ctx context.Context) (float64, error) {
	// Some sensors fail while others succeed, so only give up when none were read
	temps, _ := sensors.TemperaturesWithContext(ctx)
	return pickCPUTemperature(temps)
}

// pickCPUTemperature prefers a CPU sensor and falls back to the first valid one
func pickCPUTemperature(temps []sensors.TemperatureStat) (float64, error) {
	fallback := 0.0
	for _, t := range temps {
		if t.Temperature <= 0 {
			continue
		}

		key := strings.ToLower(t.SensorKey)
		for _, hint := range cpuSensorHints {
			if strings.Contains(key, hint) {
				return t.Temperature, nil
			}
		}

		if fallback == 0 {
			fallback = t.Temperature
		}
	}

	if fallback > 0 {
		return fallback, nil
	}
	return 0, sampler.ErrUnavailable
}
