//go:build linux

package bus

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// sendRetries bounds how often a full transmit queue (ENOBUFS) is retried.
const sendRetries = 10

// socketCAN implements Port over a Linux CAN_RAW socket.
type socketCAN struct {
	fd    int
	iface string

	mu     sync.RWMutex
	closed bool
}

// DialSocketCAN opens a raw CAN socket bound to the given interface (e.g. "can0").
func DialSocketCAN(iface string) (Port, error) {
	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("bus: interface %q: %w", iface, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("bus: socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netIf.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bus: bind %s: %w", iface, err)
	}

	return &socketCAN{fd: fd, iface: iface}, nil
}

func (s *socketCAN) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

// Send writes one frame using the can_frame binary layout.
func (s *socketCAN) Send(frame Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	for attempt := 0; ; attempt++ {
		n, werr := unix.Write(s.fd, buf)
		switch {
		case werr == nil:
			if n != len(buf) {
				return errors.New("bus: short write")
			}
			return nil
		case errors.Is(werr, unix.EINTR):
			continue
		case errors.Is(werr, unix.ENOBUFS) || errors.Is(werr, unix.EAGAIN):
			if attempt >= sendRetries {
				return fmt.Errorf("bus: %s transmit queue full: %w", s.iface, werr)
			}
			// Wait for the queue to drain a little.
			if _, perr := unix.Poll([]unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLOUT}}, 10); perr != nil && !errors.Is(perr, unix.EINTR) {
				return perr
			}
		default:
			return werr
		}
	}
}

// Receive polls the socket for up to timeout and reads one frame.
func (s *socketCAN) Receive(timeout time.Duration) (Frame, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Frame{}, false, ErrClosed
	}

	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Frame{}, false, nil
		}
		return Frame{}, false, err
	}
	if n == 0 {
		return Frame{}, false, nil
	}
	if re := fds[0].Revents; re&unix.POLLIN == 0 {
		if re&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return Frame{}, false, fmt.Errorf("bus: %s poll: revents %#x", s.iface, re)
		}
		return Frame{}, false, nil
	}

	buf := make([]byte, frameSize)
	rn, err := unix.Read(s.fd, buf)
	if err != nil {
		return Frame{}, false, err
	}
	if rn != frameSize {
		return Frame{}, false, errors.New("bus: short read")
	}
	var f Frame
	if err := f.UnmarshalBinary(buf); err != nil {
		return Frame{}, false, err
	}
	return f, true, nil
}
