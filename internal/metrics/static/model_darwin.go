//go:build darwin

package static

import "golang.org/x/sys/unix"

func platformModel() string {
	model, err := unix.Sysctl("hw.model")
	if err != nil {
		return ""
	}
	return model
}
