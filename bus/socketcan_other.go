//go:build !linux

package bus

import "errors"

var errNoSocketCAN = errors.New("bus: socketcan is only available on linux")

// DialSocketCAN is not supported on this platform.
func DialSocketCAN(iface string) (Port, error) {
	return nil, errNoSocketCAN
}

// IsLinkUp is not supported on this platform.
func IsLinkUp(name string) (bool, error) {
	return false, errNoSocketCAN
}

// ConfigureBitrate is not supported on this platform.
func ConfigureBitrate(name string, bitrate int) error {
	return errNoSocketCAN
}
