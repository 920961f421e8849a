package types

import (
	"fmt"
	"time"

	"github.com/samaelod/anycan/bus"
)

// SlotCount is the fixed size of the transmit table.
const SlotCount = 10

// Slot is one configurable outbound message definition.
type Slot struct {
	ID      uint32
	Length  int
	Payload []byte
	Delay   int // ms to wait after sending, before the next slot
	Enabled bool
	Defined bool // false for a cleared slot
}

// Frame converts the slot into a bus frame, enforcing Length == len(Payload).
func (s Slot) Frame() (bus.Frame, error) {
	if s.Length < 0 || s.Length > bus.MaxLen {
		return bus.Frame{}, fmt.Errorf("%w: dlc %d out of range", ErrConfig, s.Length)
	}
	if s.Length != len(s.Payload) {
		return bus.Frame{}, fmt.Errorf("%w: dlc %d does not match %d data bytes", ErrConfig, s.Length, len(s.Payload))
	}
	if s.Delay < 0 {
		return bus.Frame{}, fmt.Errorf("%w: negative delay %d", ErrConfig, s.Delay)
	}
	f, err := bus.NewFrame(s.ID, s.Payload)
	if err != nil {
		return bus.Frame{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return f, nil
}

// Active reports whether the slot takes part in a cycle.
func (s Slot) Active() bool {
	return s.Enabled && s.Defined
}

// WriteMessage is one write-direction row of a test case.
type WriteMessage struct {
	ID      uint32
	Length  int
	Payload []byte
	Delay   int // ms
}

// TestCase is a loaded test case source.
type TestCase struct {
	Path     string
	Name     string
	Messages []WriteMessage
	Warnings []string // rows skipped while loading
}

// Record is one captured inbound frame.
type Record struct {
	Elapsed time.Duration // since the capture epoch
	Frame   bus.Frame
}

// RunStatus is the state of the most recent sequence.
type RunStatus int

const (
	StatusIdle RunStatus = iota
	StatusRunning
	StatusCompleted
	StatusError
)

func (s RunStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}
