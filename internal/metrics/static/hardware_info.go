package static

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
)

const unknownModel = "Unknown"

// CollectModel returns the hardware model identifier (e.g. "MacBookPro18,3"),
// falling back to the CPU model name when the platform exposes none.
func CollectModel(ctx context.Context) string {
	if model := strings.TrimSpace(platformModel()); model != "" {
		return model
	}

	// Get CPU model from first CPU (usually all are the same)
	cpuInfo, err := cpu.InfoWithContext(ctx)
	if err == nil && len(cpuInfo) > 0 && cpuInfo[0].ModelName != "" {
		return strings.TrimSpace(cpuInfo[0].ModelName)
	}

	return unknownModel
}
