package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/engine"
)

func newHeadlessEngine(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	port, err := bus.Open(bus.DriverVirtual, "vcan0", 0, false)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "out.csv")
	e := engine.New(engine.Options{
		PausePoll:      10 * time.Millisecond,
		ReceiveTimeout: 20 * time.Millisecond,
		ExportPath:     out,
	}, port, engine.NewLogger("", 100))
	e.Start()
	return e, out
}

func TestRunHeadless_Once(t *testing.T) {
	e, out := newHeadlessEngine(t)
	require.NoError(t, e.SetSlot(0, "0x100", "AA BB", "0"))

	done := make(chan engine.ShutdownResult, 1)
	go func() {
		done <- runHeadless(e, headlessOptions{cycleCount: "2", cycleDelay: "0", send: true, once: true}, nil)
	}()

	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Equal(t, int64(2), e.Sent())
		// echoed frames may still be in flight when the sequence ends
		if !res.Export.Skipped {
			_, err := os.Stat(out)
			assert.NoError(t, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("headless run did not finish")
	}
}

func TestRunHeadless_StopSignal(t *testing.T) {
	e, _ := newHeadlessEngine(t)
	stop := make(chan os.Signal, 1)
	stop <- os.Interrupt

	res := runHeadless(e, headlessOptions{cycleCount: "1", cycleDelay: "0"}, stop)
	assert.NoError(t, res.Err)
	assert.True(t, res.Export.Skipped)
	assert.Zero(t, e.Sent())
}

func TestReport(t *testing.T) {
	assert.Equal(t, 0, report(engine.ShutdownResult{Export: engine.ExportResult{Skipped: true}}, false))
	assert.Equal(t, 1, report(engine.ShutdownResult{Err: assert.AnError}, true))
}

func TestLoadCases(t *testing.T) {
	e, _ := newHeadlessEngine(t)
	t.Cleanup(func() { e.Shutdown() })

	assert.NoError(t, loadCases(e, ""), "no folder configured")

	empty := t.TempDir()
	require.Error(t, loadCases(e, empty))
	assert.Contains(t, e.Log.ReadAll(), "Cases folder "+empty+" not loaded")

	dir := t.TempDir()
	src := `return { messages = { { direction = "write", id = "0x100", data = "AA" } } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(src), 0o644))
	require.NoError(t, loadCases(e, dir))
	assert.Equal(t, uint32(0x100), e.Table().Slot(0).ID)
}
