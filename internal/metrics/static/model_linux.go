//go:build linux

package static

import (
	"os"
	"strings"
)

// modelFiles are checked in order; device-tree covers ARM boards
var modelFiles = []string{
	"/sys/devices/virtual/dmi/id/product_name",
	"/proc/device-tree/model",
}

func platformModel() string {
	for _, path := range modelFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		model := strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
		if model != "" && !isPlaceholderModel(model) {
			return model
		}
	}
	return ""
}

// isPlaceholderModel filters firmware defaults that carry no information
func isPlaceholderModel(model string) bool {
	switch strings.ToLower(model) {
	case "to be filled by o.e.m.", "system product name", "default string", "none":
		return true
	}
	return false
}
