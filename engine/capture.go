package engine

import (
	"context"
	"errors"
	"time"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/types"
)

// Capture reads inbound frames into the record buffer while capturing is on.
type Capture struct {
	port    bus.Port
	ctl     *Control
	records *RecordBuffer
	log     *Logger
	epoch   time.Time
	timeout time.Duration
	poll    time.Duration
}

func NewCapture(port bus.Port, ctl *Control, records *RecordBuffer, log *Logger, epoch time.Time, timeout, poll time.Duration) *Capture {
	if timeout <= 0 {
		timeout = time.Second
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &Capture{
		port:    port,
		ctl:     ctl,
		records: records,
		log:     log,
		epoch:   epoch,
		timeout: timeout,
		poll:    poll,
	}
}

// Run loops until ctx is done. A receive error never ends the loop.
func (c *Capture) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if !c.ctl.Capturing() {
			c.pause(ctx)
			continue
		}

		frame, ok, err := c.port.Receive(c.timeout)
		if err != nil {
			if errors.Is(err, bus.ErrClosed) && ctx.Err() != nil {
				return
			}
			c.log.Errorf("%v: receive: %v", types.ErrTransport, err)
			c.pause(ctx)
			continue
		}
		if !ok {
			continue
		}
		// A frame that arrives after capture was switched off mid-receive is
		// discarded.
		if !c.ctl.Capturing() {
			continue
		}
		c.records.Append(types.Record{Elapsed: time.Since(c.epoch), Frame: frame})
	}
}

func (c *Capture) pause(ctx context.Context) {
	t := time.NewTimer(c.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
