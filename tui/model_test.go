package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/engine"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()
	port := bus.NewLoopbackBus().Open()
	e := engine.New(engine.Options{
		PausePoll:      10 * time.Millisecond,
		ReceiveTimeout: 20 * time.Millisecond,
		ExportPath:     filepath.Join(dir, "out.csv"),
		RecentDir:      filepath.Join(dir, "recent"),
	}, port, engine.NewLogger("", 100))
	t.Cleanup(func() { e.Shutdown() })

	m := New(e, Options{Version: "test", CasesDir: dir})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func TestModel_SelectSlot(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "down", " ")
	assert.Equal(t, 1, m.cursor)
	assert.False(t, m.engine.Table().Slot(1).Enabled)
	assert.True(t, m.engine.Table().Slot(0).Enabled)

	m, _ = press(t, m, " ")
	assert.True(t, m.engine.Table().Slot(1).Enabled)
}

func TestModel_EditSlot(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "e")
	require.Equal(t, screenEditSlot, m.screen)

	m, _ = press(t, m, "0x123", "tab", "AA BB", "tab", "25")
	assert.Equal(t, "2", derivedDLC(m.slotInputs[fieldData].Value()))

	m, _ = press(t, m, "enter")
	assert.Equal(t, screenMain, m.screen)
	s := m.engine.Table().Slot(0)
	assert.True(t, s.Defined)
	assert.Equal(t, uint32(0x123), s.ID)
	assert.Equal(t, []byte{0xAA, 0xBB}, s.Payload)
	assert.Equal(t, 2, s.Length)
	assert.Equal(t, 25, s.Delay)
}

func TestModel_EditSlotRejectsBadInput(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "e", "0xZZ", "enter")
	assert.Equal(t, screenEditSlot, m.screen, "stays open on error")
	assert.False(t, m.noticeOK)
	assert.False(t, m.engine.Table().Slot(0).Defined)

	m, _ = press(t, m, "esc")
	assert.Equal(t, screenMain, m.screen)
}

func TestModel_CycleSettings(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "c")
	require.Equal(t, screenCycles, m.screen)

	m.cycleInputs[fieldCycleCount].SetValue("")
	m.cycleInputs[fieldCycleDelay].SetValue("")
	m, _ = press(t, m, "3", "tab", "250", "enter")
	assert.Equal(t, "3", m.cycleCount)
	assert.Equal(t, "250", m.cycleDelay)
	assert.Empty(t, cycleFieldError(m.cycleCount))
	assert.NotEmpty(t, cycleFieldError("-1"))
}

func TestModel_Toggles(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "a")
	assert.True(t, m.engine.Control().Automatic())
	m, _ = press(t, m, "esc")
	assert.False(t, m.engine.Control().Capturing())
	m, _ = press(t, m, "ctrl+p")
	assert.True(t, m.engine.Control().Paused())
	assert.Equal(t, "Sequence paused", m.notice)
}

func TestModel_ConfirmPrompt(t *testing.T) {
	m := newTestModel(t)
	reply := make(chan promptReply, 1)
	next, _ := m.Update(promptMsg{kind: promptConfirmNext, text: "next?", reply: reply})
	m = next.(Model)
	require.Equal(t, screenPrompt, m.screen)
	assert.Contains(t, m.View(), "next?")

	m, _ = press(t, m, "y")
	assert.Equal(t, screenMain, m.screen)
	assert.Nil(t, m.prompt)
	assert.True(t, (<-reply).yes)
}

func TestModel_NextQueuePromptCancelled(t *testing.T) {
	m := newTestModel(t)
	reply := make(chan promptReply, 1)
	next, _ := m.Update(promptMsg{kind: promptNextQueue, reply: reply})
	m = next.(Model)

	m, _ = press(t, m, "y")
	require.Equal(t, screenFolderPicker, m.screen, "yes opens the folder picker")
	assert.Empty(t, reply)

	m, _ = press(t, m, "esc")
	assert.Equal(t, screenMain, m.screen)
	assert.False(t, (<-reply).yes)
}

func TestModel_NextQueuePromptPicksFolder(t *testing.T) {
	m := newTestModel(t)
	dir := m.fileBrowser.CurrentDir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte("return {}"), 0o644))

	reply := make(chan promptReply, 1)
	next, _ := m.Update(promptMsg{kind: promptNextQueue, reply: reply})
	m = next.(Model)
	m, _ = press(t, m, "y", "s")

	assert.Equal(t, screenMain, m.screen)
	r := <-reply
	assert.True(t, r.yes)
	assert.Equal(t, dir, r.dir)
}

func TestModel_QuitShutsDown(t *testing.T) {
	m := newTestModel(t)
	reply := make(chan promptReply, 1)
	next, _ := m.Update(promptMsg{kind: promptConfirmNext, reply: reply})
	m = next.(Model)

	m, cmd := press(t, m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.True(t, m.closing)
	assert.False(t, (<-reply).yes, "a pending prompt is declined")

	msg := cmd()
	require.IsType(t, shutdownMsg{}, msg)
	assert.True(t, msg.(shutdownMsg).result.Export.Skipped)

	_, cmd = m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ViewFitsSmallTerminal(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, next.(Model).View(), "Terminal too small")
}

func TestPrompter_NextQueue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte("return {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pcap"), nil, 0o644))

	p := NewPrompter(func(msg tea.Msg) {
		msg.(promptMsg).reply <- promptReply{yes: true, dir: dir}
	})
	paths, ok := p.NextQueue(context.Background(), nil)
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(dir, "a.pcap"), filepath.Join(dir, "b.lua")}, paths)
}

func TestPrompter_CancelledContext(t *testing.T) {
	p := NewPrompter(func(tea.Msg) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.ConfirmNext(ctx, 1, 3))

	var nilPrompter *Prompter
	assert.False(t, nilPrompter.ConfirmNext(context.Background(), 1, 3))
}
