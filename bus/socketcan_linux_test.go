//go:build linux

package bus

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestSocketCAN_ReceiveReportsPollError(t *testing.T) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	// the write end of a pipe with no reader polls as POLLERR without POLLIN
	unix.Close(p[0])
	s := &socketCAN{fd: p[1], iface: "test0"}
	defer s.Close()

	start := time.Now()
	_, ok, err := s.Receive(time.Second)
	if err == nil || ok {
		t.Fatalf("receive: ok=%v err=%v, want an error", ok, err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("receive waited for the timeout instead of failing")
	}
}
