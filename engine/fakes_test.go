package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/types"
)

var errWire = errors.New("wire unplugged")

// recordingPort records sends and serves queued inbound frames.
type recordingPort struct {
	mu       sync.Mutex
	sent     []bus.Frame
	sentAt   []time.Time
	failOn   int // 1-based send number that fails, 0 for never
	recvErr  error
	receives int
	closed   bool
	inbound  chan bus.Frame
}

func newRecordingPort() *recordingPort {
	return &recordingPort{inbound: make(chan bus.Frame, 64)}
}

func (p *recordingPort) Send(f bus.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn > 0 && len(p.sent)+1 == p.failOn {
		p.failOn = 0
		return errWire
	}
	p.sent = append(p.sent, f)
	p.sentAt = append(p.sentAt, time.Now())
	return nil
}

func (p *recordingPort) Receive(timeout time.Duration) (bus.Frame, bool, error) {
	p.mu.Lock()
	p.receives++
	err := p.recvErr
	p.mu.Unlock()
	if err != nil {
		return bus.Frame{}, false, err
	}
	select {
	case f := <-p.inbound:
		return f, true, nil
	case <-time.After(timeout):
		return bus.Frame{}, false, nil
	}
}

func (p *recordingPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *recordingPort) Sent() []bus.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bus.Frame(nil), p.sent...)
}

func (p *recordingPort) Receives() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.receives
}

func (p *recordingPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func ids(frames []bus.Frame) []uint32 {
	out := make([]uint32, len(frames))
	for i, f := range frames {
		out[i] = f.ID
	}
	return out
}

func slot(t *testing.T, id uint32, delay int, data ...byte) types.Slot {
	t.Helper()
	if data == nil {
		data = []byte{}
	}
	return types.Slot{ID: id, Length: len(data), Payload: data, Delay: delay, Enabled: true, Defined: true}
}

func mustFrame(t *testing.T, id uint32, data ...byte) bus.Frame {
	t.Helper()
	f, err := bus.NewFrame(id, data)
	require.NoError(t, err)
	return f
}

// stubLoader serves test cases from memory.
type stubLoader struct {
	mu    sync.Mutex
	cases map[string]types.TestCase
	calls []string
}

func (s *stubLoader) Load(path string) (types.TestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, path)
	tc, ok := s.cases[path]
	if !ok {
		return types.TestCase{Path: path}, types.ErrLoad
	}
	return tc, nil
}

func oneMessageCase(id uint32) types.TestCase {
	return types.TestCase{Messages: []types.WriteMessage{{ID: id, Length: 1, Payload: []byte{byte(id)}}}}
}

// scriptedPrompter returns queued answers and counts calls.
type scriptedPrompter struct {
	mu       sync.Mutex
	confirm  []bool
	queues   [][]string
	reasons  []error
	confirms int
	refills  int
}

func (p *scriptedPrompter) ConfirmNext(_ context.Context, next, total int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms++
	if len(p.confirm) == 0 {
		return false
	}
	v := p.confirm[0]
	p.confirm = p.confirm[1:]
	return v
}

func (p *scriptedPrompter) NextQueue(_ context.Context, reason error) ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refills++
	p.reasons = append(p.reasons, reason)
	if len(p.queues) == 0 {
		return nil, false
	}
	q := p.queues[0]
	p.queues = p.queues[1:]
	return q, true
}
