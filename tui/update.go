package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/anycan/engine"
)

const statusRefresh = 250 * time.Millisecond

type logMsg string
type logErrorMsg struct{ err error }
type tickMsg time.Time
type runDoneMsg struct{ err error }
type folderLoadedMsg struct {
	dir string
	n   int
	err error
}
type quitRequestMsg struct{}
type shutdownMsg struct{ result engine.ShutdownResult }

func waitForLog(logger *engine.Logger) tea.Cmd {
	return func() tea.Msg {
		ch := logger.Chan()
		if ch == nil {
			return nil
		}
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(msg)
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForRun(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg{err: <-done}
	}
}

func selectFolder(e *engine.Engine, dir string) tea.Cmd {
	return func() tea.Msg {
		n, err := e.SelectFolder(dir)
		return folderLoadedMsg{dir: dir, n: n, err: err}
	}
}

func shutdown(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		return shutdownMsg{result: e.Shutdown()}
	}
}

func openLogsInEditor(logContent string) tea.Cmd {
	f, err := os.CreateTemp("", "anycan-logs-*.log")
	if err != nil {
		return func() tea.Msg { return logErrorMsg{err} }
	}
	if _, err := f.WriteString(logContent); err != nil {
		f.Close()
		return func() tea.Msg { return logErrorMsg{err} }
	}
	f.Close()
	tempPath := f.Name()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "nano"
	}
	c := exec.Command(editor, tempPath)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		os.Remove(tempPath)
		if err != nil {
			return logErrorMsg{err}
		}
		return nil
	})
}

func (m *Model) setNotice(text string, ok bool) {
	m.notice = text
	m.noticeOK = ok
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	innerWidth := width - 2
	m.fileBrowser.SetSize(innerWidth-4, height-10)

	logsHeight := height - 2 - 1 - (tableHeight + 2) - footerHeight
	vpHeight := logsHeight - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.logViewport.Width = innerWidth - 4 - 1
	m.logViewport.Height = vpHeight
}

// answer resolves the pending prompt, if any.
func (m *Model) answer(r promptReply) {
	if m.prompt == nil {
		return
	}
	m.prompt.reply <- r
	m.prompt = nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.closing {
		return m, nil
	}
	m.closing = true
	m.answer(promptReply{})
	m.screen = screenMain
	return m, shutdown(m.engine)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case logMsg:
		m.logContent = m.engine.Log.ReadAll()
		m.logViewport.SetContent(m.logContent)
		if m.activeView != focusLogs {
			m.logViewport.GotoBottom()
		}
		return m, waitForLog(m.engine.Log)

	case logErrorMsg:
		m.setNotice(msg.err.Error(), false)
		return m, nil

	case tickMsg:
		if m.closing {
			return m, nil
		}
		return m, tick()

	case runDoneMsg:
		switch {
		case msg.err == nil:
			m.setNotice("Sequence finished", true)
		case errors.Is(msg.err, context.Canceled):
			m.setNotice("Sequence cancelled", false)
		default:
			m.setNotice(msg.err.Error(), false)
		}
		return m, nil

	case folderLoadedMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), false)
			return m, nil
		}
		m.setNotice(fmt.Sprintf("Loaded %d test cases from %s", msg.n, msg.dir), true)
		return m, nil

	case promptMsg:
		if m.closing {
			msg.reply <- promptReply{}
			return m, nil
		}
		m.prompt = &msg
		if m.screen != screenPrompt {
			m.back = m.screen
		}
		m.screen = screenPrompt
		return m, nil

	case quitRequestMsg:
		return m.quit()

	case shutdownMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.closing {
			return m, nil
		}
	}

	switch m.screen {
	case screenFolderPicker:
		return m.updateFolderPicker(msg)
	case screenEditSlot:
		return m.updateEditSlot(msg)
	case screenCycles:
		return m.updateCycles(msg)
	case screenPrompt:
		return m.updatePrompt(msg)
	default:
		return m.updateMain(msg)
	}
}

func (m Model) updateMain(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.activeView == focusLogs {
		switch key.String() {
		case "tab":
			m.activeView = focusTable
			m.logViewport.GotoBottom()
			return m, nil
		case "g":
			m.logViewport.GotoTop()
			return m, nil
		case "G":
			m.logViewport.GotoBottom()
			return m, nil
		case "l":
			return m, openLogsInEditor(m.engine.Log.ReadAll())
		case "q":
			return m.quit()
		}
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "q":
		return m.quit()
	case "tab":
		m.activeView = focusLogs
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.engine.Table().Len()-1 {
			m.cursor++
		}
	case " ":
		m.engine.ToggleSlot(m.cursor)
	case "enter", "e":
		m.slotInputs = newSlotInputs(m.engine.Table().Slot(m.cursor))
		m.inputFocus = fieldID
		m.screen = screenEditSlot
	case "d", "delete":
		_ = m.engine.SetSlot(m.cursor, "", "", "")
		m.setNotice(fmt.Sprintf("Slot %d cleared", m.cursor+1), true)
	case "c":
		m.cycleInputs = newCycleInputs(m.cycleCount, m.cycleDelay)
		m.inputFocus = fieldCycleCount
		m.screen = screenCycles
	case "o":
		m.fileBrowser.refreshDir()
		m.screen = screenFolderPicker
	case "a":
		if m.engine.ToggleAutomatic() {
			m.setNotice("Automatic mode", true)
		} else {
			m.setNotice("Manual mode", true)
		}
	case "r":
		done, err := m.engine.SendAll(m.cycleCount, m.cycleDelay, m.prompter)
		if err != nil {
			m.setNotice(err.Error(), false)
			return m, nil
		}
		m.setNotice("Sending...", true)
		return m, waitForRun(done)
	case "ctrl+p":
		if m.engine.TogglePause() {
			m.setNotice("Sequence paused", true)
		} else {
			m.setNotice("Sequence resumed", true)
		}
	case "esc":
		if !m.engine.ToggleCapture() {
			m.setNotice("Capture toggle ignored, too soon after the last one", false)
		}
	case "w":
		path, err := m.engine.SaveTable()
		if err != nil {
			m.setNotice(err.Error(), false)
		} else {
			m.setNotice("Saved "+path, true)
		}
	case "l":
		return m, openLogsInEditor(m.engine.Log.ReadAll())
	}
	return m, nil
}

func (m Model) updateFolderPicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.answer(promptReply{})
		m.screen = screenMain
		return m, nil
	}

	var cmd tea.Cmd
	m.fileBrowser, cmd = m.fileBrowser.Update(msg)
	dir := m.fileBrowser.Chosen
	if dir == "" {
		return m, cmd
	}
	if m.fileBrowser.CaseCount(dir) == 0 {
		m.setNotice("No test case files found in "+dir, false)
		return m, cmd
	}

	m.screen = screenMain
	if m.prompt != nil && m.prompt.kind == promptNextQueue {
		m.answer(promptReply{yes: true, dir: dir})
		return m, cmd
	}
	return m, tea.Batch(cmd, selectFolder(m.engine, dir))
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.prompt == nil {
		return m, nil
	}

	switch key.String() {
	case "y", "Y", "enter":
		if m.prompt.kind == promptNextQueue {
			// answered once a folder is picked
			m.fileBrowser.refreshDir()
			m.screen = screenFolderPicker
			return m, nil
		}
		m.answer(promptReply{yes: true})
	case "n", "N", "esc":
		m.answer(promptReply{})
	default:
		return m, nil
	}

	m.screen = m.back
	if m.screen == screenPrompt || m.screen == screenFolderPicker {
		m.screen = screenMain
	}
	return m, nil
}
