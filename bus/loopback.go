package bus

import (
	"sync"
	"time"
)

// LoopbackBus is an in-memory CAN bus for tests and dry runs.
// Multiple endpoints opened from the same bus can exchange frames.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopbackBus creates a new loopback bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open creates a new endpoint attached to the bus. Frames it sends are
// delivered to every other endpoint.
func (b *LoopbackBus) Open() Port {
	return b.open(false)
}

// OpenEcho creates an endpoint that also receives its own frames, like a
// SocketCAN socket with local loopback enabled.
func (b *LoopbackBus) OpenEcho() Port {
	return b.open(true)
}

func (b *LoopbackBus) open(echo bool) *loopEndpoint {
	ep := &loopEndpoint{
		bus:    b,
		echo:   echo,
		ch:     make(chan Frame, 64),
		closed: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.dead = true
		close(ep.closed)
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Close closes the bus and detaches all endpoints.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.closeNoLock()
	}
	b.endpoints = nil
	return nil
}

type loopEndpoint struct {
	bus    *LoopbackBus
	echo   bool
	ch     chan Frame
	mu     sync.Mutex
	dead   bool
	closed chan struct{}
}

// Send broadcasts the frame to the endpoints on the same bus. A full
// receiver drops the frame instead of stalling the sender, the way a bus
// controller overruns.
func (e *loopEndpoint) Send(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	if dead {
		return ErrClosed
	}

	// Snapshot endpoints under bus lock to avoid holding it while delivering.
	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e || e.echo {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	for _, t := range targets {
		t.deliver(frame)
	}
	return nil
}

func (e *loopEndpoint) deliver(frame Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	select {
	case e.ch <- frame:
	default:
	}
}

// Receive waits up to timeout for the next frame.
func (e *loopEndpoint) Receive(timeout time.Duration) (Frame, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-e.ch:
		return f, true, nil
	case <-e.closed:
		return Frame{}, false, ErrClosed
	case <-timer.C:
		return Frame{}, false, nil
	}
}

// Close detaches the endpoint from the bus.
func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	e.closeNoLock()
	e.bus.mu.Unlock()
	return nil
}

func (e *loopEndpoint) closeNoLock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	close(e.closed)
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
}
