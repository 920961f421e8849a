package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/types"
)

type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeFailed
	OutcomeInvalidConfig
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeInvalidConfig:
		return "invalid config"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one sequencer run. Slot is the 0-based slot the
// run stopped at, or -1 when no slot is involved.
type Outcome struct {
	Kind OutcomeKind
	Slot int
	Err  error
}

func (o Outcome) String() string {
	if o.Slot >= 0 && (o.Kind == OutcomeFailed || o.Kind == OutcomeInvalidConfig) {
		return fmt.Sprintf("%s at slot %d", o.Kind, o.Slot+1)
	}
	return o.Kind.String()
}

// Sequencer walks the slot table for a number of cycles and sends every
// active slot in order.
type Sequencer struct {
	port bus.Port
	ctl  *Control
	log  *Logger
	poll time.Duration

	// Continue is checked alongside the context. A nil Continue always
	// allows the run to proceed.
	Continue func() bool

	// Sent is called after each successful send.
	Sent func(slot int, f bus.Frame)
}

func NewSequencer(port bus.Port, ctl *Control, log *Logger, poll time.Duration) *Sequencer {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &Sequencer{port: port, ctl: ctl, log: log, poll: poll}
}

// Run sends the table cycleCount times, waiting cycleDelay ms after each
// cycle. Both values arrive as operator text. The table is read slot by slot
// so edits made while paused take effect.
func (s *Sequencer) Run(ctx context.Context, table *types.SlotTable, cycleCount, cycleDelay string) Outcome {
	count, err := parseNonNegative(cycleCount, "cycle count")
	if err != nil {
		s.log.Errorf("%v", err)
		return Outcome{Kind: OutcomeInvalidConfig, Slot: -1, Err: err}
	}
	delay, err := parseNonNegative(cycleDelay, "cycle delay")
	if err != nil {
		s.log.Errorf("%v", err)
		return Outcome{Kind: OutcomeInvalidConfig, Slot: -1, Err: err}
	}

	cancelled := Outcome{Kind: OutcomeCancelled, Slot: -1}
	for cycle := 1; cycle <= count; cycle++ {
		if !s.alive(ctx) {
			return cancelled
		}
		for i := 0; i < table.Len(); i++ {
			if !table.Slot(i).Active() {
				continue
			}
			if !s.waitWhilePaused(ctx) {
				return cancelled
			}
			slot := table.Slot(i)
			if !slot.Active() {
				continue
			}

			frame, err := slot.Frame()
			if err != nil {
				s.log.Errorf("Slot %d: %v", i+1, err)
				return Outcome{Kind: OutcomeInvalidConfig, Slot: i, Err: err}
			}
			if err := s.port.Send(frame); err != nil {
				err = fmt.Errorf("%w: slot %d: %v", types.ErrTransport, i+1, err)
				s.log.Errorf("Failed to send message %d: %v", i+1, err)
				return Outcome{Kind: OutcomeFailed, Slot: i, Err: err}
			}
			s.log.Printf("Sent %s", frame)
			if s.Sent != nil {
				s.Sent(i, frame)
			}

			if slot.Delay > 0 && !s.sleep(ctx, time.Duration(slot.Delay)*time.Millisecond) {
				return cancelled
			}
		}
		if delay > 0 && !s.sleep(ctx, time.Duration(delay)*time.Millisecond) {
			return cancelled
		}
		s.log.Printf("Cycle %d/%d completed.", cycle, count)
	}
	return Outcome{Kind: OutcomeCompleted, Slot: -1}
}

func (s *Sequencer) alive(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return s.Continue == nil || s.Continue()
}

func (s *Sequencer) waitWhilePaused(ctx context.Context) bool {
	for s.ctl.Paused() {
		if !s.sleep(ctx, s.poll) {
			return false
		}
	}
	return s.alive(ctx)
}

// sleep waits d in steps of the poll interval. It returns false as soon as
// the run should stop.
func (s *Sequencer) sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if !s.alive(ctx) {
			return false
		}
		left := time.Until(deadline)
		if left <= 0 {
			return true
		}
		if left > s.poll {
			left = s.poll
		}
		t := time.NewTimer(left)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

func parseNonNegative(text, what string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", types.ErrConfig, what, text)
	}
	return v, nil
}
