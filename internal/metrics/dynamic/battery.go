package dynamic

import (
	"context"
	"fmt"

	"github.com/distatus/battery"
	"github.com/monify-labs/macmonitor/internal/sampler"
)

// batteryReader lists the batteries of the machine
type batteryReader func() ([]*battery.Battery, error)

func systemBatteries() ([]*battery.Battery, error) {
	return battery.GetAll()
}

// Battery aggregates charge level and charging state across all batteries
func (h *HostSource) Battery(ctx context.Context) (sampler.BatteryReading, error) {
	batteries, err := h.readBatteries()
	reading, ok := aggregateBatteries(batteries)
	if !ok {
		if err != nil {
			return sampler.BatteryReading{}, fmt.Errorf("%w: %v", sampler.ErrUnavailable, err)
		}
		return sampler.BatteryReading{}, sampler.ErrUnavailable
	}

	// Partial errors still leave usable readings
	return reading, nil
}

func aggregateBatteries(batteries []*battery.Battery) (sampler.BatteryReading, bool) {
	var current, full float64
	charging := false

	for _, b := range batteries {
		if b == nil || b.Full <= 0 {
			continue
		}
		current += b.Current
		full += b.Full

		switch b.State.Raw {
		case battery.Charging, battery.Full:
			charging = true
		}
	}

	if full <= 0 {
		return sampler.BatteryReading{}, false
	}

	return sampler.BatteryReading{
		Level:    current / full,
		Charging: charging,
	}, true
}
