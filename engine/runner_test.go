package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/anycan/types"
)

type runnerFixture struct {
	port   *recordingPort
	ctl    *Control
	queue  *Queue
	loader *stubLoader
	table  *types.SlotTable
	log    *Logger
}

func newRunnerFixture(t *testing.T, paths ...string) *runnerFixture {
	f := &runnerFixture{
		port:   newRecordingPort(),
		ctl:    NewControl(0),
		queue:  &Queue{},
		loader: &stubLoader{cases: map[string]types.TestCase{}},
		table:  types.NewSlotTable(),
		log:    NewLogger("", 100),
	}
	for i, p := range paths {
		f.loader.cases[p] = oneMessageCase(uint32(0x100 + i))
	}
	f.queue.Set(paths)
	f.ctl.SetAutomatic(true)
	if len(paths) > 0 {
		require.NoError(t, loadCase(f.queue, f.loader.Load, f.table, f.log, 0))
	}
	return f
}

func (f *runnerFixture) runner(p Prompter) *Runner {
	seq := NewSequencer(f.port, f.ctl, f.log, testPoll)
	return NewRunner(seq, f.ctl, f.queue, f.loader.Load, f.log, p, 0)
}

func TestRunner_ThreeCasesNoPrompter(t *testing.T) {
	f := newRunnerFixture(t, "a.lua", "b.lua", "c.lua")

	done := make(chan error, 1)
	go func() { done <- f.runner(nil).Drive(context.Background(), f.table, "1", "0") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner blocked after the queue ran out")
	}
	assert.Equal(t, 3, f.ctl.CaseIndex())
	assert.False(t, f.ctl.Automatic())
	assert.Equal(t, []uint32{0x100, 0x101, 0x102}, ids(f.port.Sent()))
}

func TestRunner_DecliningPrompter(t *testing.T) {
	f := newRunnerFixture(t, "a.lua", "b.lua", "c.lua")
	p := &scriptedPrompter{}

	require.NoError(t, f.runner(p).Drive(context.Background(), f.table, "1", "0"))
	assert.Equal(t, 3, f.ctl.CaseIndex())
	assert.Equal(t, 1, p.refills)
	assert.Nil(t, p.reasons[0])
	assert.False(t, f.ctl.Automatic())
}

func TestRunner_Refill(t *testing.T) {
	f := newRunnerFixture(t, "a.lua")
	f.loader.cases["x.lua"] = oneMessageCase(0x200)
	f.loader.cases["y.lua"] = oneMessageCase(0x201)
	p := &scriptedPrompter{queues: [][]string{{"x.lua", "y.lua"}}}

	require.NoError(t, f.runner(p).Drive(context.Background(), f.table, "1", "0"))
	assert.Equal(t, []uint32{0x100, 0x200, 0x201}, ids(f.port.Sent()))
	assert.Equal(t, 2, p.refills)
	assert.Equal(t, 2, f.ctl.CaseIndex())
	assert.Equal(t, []string{"x.lua", "y.lua"}, f.queue.Paths())
}

func TestRunner_LoadErrorIsExhaustion(t *testing.T) {
	f := newRunnerFixture(t, "a.lua", "b.lua", "c.lua")
	delete(f.loader.cases, "b.lua")
	p := &scriptedPrompter{}

	require.NoError(t, f.runner(p).Drive(context.Background(), f.table, "1", "0"))
	assert.Equal(t, []uint32{0x100}, ids(f.port.Sent()))
	require.Len(t, p.reasons, 1)
	assert.ErrorIs(t, p.reasons[0], types.ErrLoad)
	assert.False(t, f.ctl.Automatic())
}

func TestRunner_FailureStopsAutomatic(t *testing.T) {
	f := newRunnerFixture(t, "a.lua", "b.lua")
	f.port.failOn = 2
	p := &scriptedPrompter{}

	err := f.runner(p).Drive(context.Background(), f.table, "1", "0")
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.False(t, f.ctl.Automatic())
	assert.Equal(t, 1, f.ctl.CaseIndex())
	assert.Zero(t, p.refills)
}

func TestRunner_InvalidCycleCount(t *testing.T) {
	f := newRunnerFixture(t, "a.lua")
	err := f.runner(nil).Drive(context.Background(), f.table, "many", "0")
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.False(t, f.ctl.Automatic())
	assert.Empty(t, f.port.Sent())
}

func TestRunner_StopsWhenAutomaticCleared(t *testing.T) {
	f := newRunnerFixture(t, "a.lua", "b.lua")
	f.loader.cases["a.lua"] = types.TestCase{Messages: []types.WriteMessage{{ID: 0x100, Delay: 10000}}}
	require.NoError(t, loadCase(f.queue, f.loader.Load, f.table, f.log, 0))

	done := make(chan error, 1)
	go func() { done <- f.runner(nil).Drive(context.Background(), f.table, "1", "0") }()
	require.Eventually(t, func() bool { return len(f.port.Sent()) == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	f.ctl.SetAutomatic(false)
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("runner kept going after automatic mode was cleared")
	}
	assert.Equal(t, 0, f.ctl.CaseIndex())
}

func TestRunner_ContextCancelled(t *testing.T) {
	f := newRunnerFixture(t, "a.lua")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.runner(&scriptedPrompter{}).Drive(ctx, f.table, "1", "0"))
	assert.Empty(t, f.port.Sent())
}
