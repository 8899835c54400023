//go:build !darwin && !linux

package static

func platformModel() string {
	return ""
}
