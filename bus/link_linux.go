//go:build linux

package bus

import (
	"errors"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// IsLinkUp reports whether the network interface has IFF_UP set.
func IsLinkUp(name string) (bool, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return false, err
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return false, fmt.Errorf("bus: invalid interface name %q: %w", name, err)
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return false, err
	}
	return ifr.Uint16()&unix.IFF_UP != 0, nil
}

// ConfigureBitrate sets the arbitration bitrate of a CAN interface through the
// iproute2 `ip` tool. The link is taken down for the change and brought back
// up. Requires CAP_NET_ADMIN.
func ConfigureBitrate(name string, bitrate int) error {
	steps := [][]string{
		{"link", "set", "dev", name, "down"},
		{"link", "set", "dev", name, "type", "can", "bitrate", fmt.Sprintf("%d", bitrate)},
		{"link", "set", "dev", name, "up"},
	}
	for _, args := range steps {
		out, err := exec.Command("ip", args...).CombinedOutput()
		if err != nil {
			return requireNetAdmin(fmt.Errorf("bus: ip %v failed: %w; output: %s", args, err, string(out)))
		}
	}
	return nil
}

// requireNetAdmin maps EPERM to a clearer message.
func requireNetAdmin(err error) error {
	if errors.Is(err, unix.EPERM) {
		return fmt.Errorf("operation requires CAP_NET_ADMIN (or root): %w", err)
	}
	return err
}
