// Package bus provides the CAN frame type and the port abstraction used to
// drive a field bus: a Linux SocketCAN driver and an in-memory loopback bus
// for tests and dry runs.
package bus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Port is an open connection to a CAN bus.
// Send and Receive may be called concurrently from different goroutines.
type Port interface {
	// Send transmits one frame. It returns once the frame is queued by the driver.
	Send(frame Frame) error

	// Receive waits up to timeout for the next inbound frame. ok is false when
	// no frame arrived before the timeout.
	Receive(timeout time.Duration) (frame Frame, ok bool, err error)

	// Close releases resources. Further Send/Receive return ErrClosed.
	Close() error
}

// ErrClosed indicates the port or bus has been closed.
var ErrClosed = errors.New("bus: closed")

// Drivers accepted by Open.
const (
	DriverSocketCAN = "socketcan"
	DriverVirtual   = "virtual"
)

// Open connects to channel using the named driver. bitrate is applied to the
// interface only when configureLink is set, since that needs CAP_NET_ADMIN.
func Open(driver, channel string, bitrate int, configureLink bool) (Port, error) {
	switch strings.ToLower(driver) {
	case DriverSocketCAN, "":
		if configureLink && bitrate > 0 {
			if err := ConfigureBitrate(channel, bitrate); err != nil {
				return nil, err
			}
		}
		return DialSocketCAN(channel)
	case DriverVirtual:
		return NewLoopbackBus().OpenEcho(), nil
	default:
		return nil, fmt.Errorf("bus: unknown driver %q", driver)
	}
}
