package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/anycan/types"
)

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 28
	ti.Prompt = ""
	return ti
}

// newSlotInputs prefills the editor from s. An undefined slot opens empty.
func newSlotInputs(s types.Slot) []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	inputs[fieldID] = newInput("0x100", 10)
	inputs[fieldData] = newInput("AA BB CC", 32)
	inputs[fieldDelay] = newInput("0", 8)
	if s.Defined {
		inputs[fieldID].SetValue(types.FormatID(s.ID))
		inputs[fieldData].SetValue(types.FormatPayload(s.Payload))
		inputs[fieldDelay].SetValue(strconv.Itoa(s.Delay))
	}
	inputs[fieldID].Focus()
	return inputs
}

func newCycleInputs(count, delay string) []textinput.Model {
	inputs := make([]textinput.Model, 2)
	inputs[fieldCycleCount] = newInput("1", 8)
	inputs[fieldCycleDelay] = newInput("0", 8)
	inputs[fieldCycleCount].SetValue(count)
	inputs[fieldCycleDelay].SetValue(delay)
	inputs[fieldCycleCount].Focus()
	return inputs
}

// derivedDLC mirrors what the slot will carry once saved.
func derivedDLC(data string) string {
	b, err := types.ParsePayload(data)
	if err != nil {
		return "?"
	}
	return strconv.Itoa(len(b))
}

// cycleFieldError reports a value the sequencer would reject, for inline
// display only.
func cycleFieldError(text string) string {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return "not a non-negative integer"
	}
	return ""
}

// focusInput moves focus by delta and returns the blink command.
func focusInput(inputs []textinput.Model, current, delta int) (int, tea.Cmd) {
	next := (current + delta + len(inputs)) % len(inputs)
	for i := range inputs {
		inputs[i].Blur()
	}
	return next, inputs[next].Focus()
}

func updateInputs(inputs []textinput.Model, msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(inputs))
	for i := range inputs {
		inputs[i], cmds[i] = inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m Model) updateEditSlot(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.screen = screenMain
			return m, nil
		case "tab", "down":
			var cmd tea.Cmd
			m.inputFocus, cmd = focusInput(m.slotInputs, m.inputFocus, 1)
			return m, cmd
		case "shift+tab", "up":
			var cmd tea.Cmd
			m.inputFocus, cmd = focusInput(m.slotInputs, m.inputFocus, -1)
			return m, cmd
		case "enter":
			err := m.engine.SetSlot(m.cursor,
				strings.TrimSpace(m.slotInputs[fieldID].Value()),
				strings.TrimSpace(m.slotInputs[fieldData].Value()),
				strings.TrimSpace(m.slotInputs[fieldDelay].Value()))
			if err != nil {
				m.setNotice(err.Error(), false)
				return m, nil
			}
			m.setNotice(fmt.Sprintf("Slot %d updated", m.cursor+1), true)
			m.screen = screenMain
			return m, nil
		}
	}
	return m, updateInputs(m.slotInputs, msg)
}

func (m Model) updateCycles(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.screen = screenMain
			return m, nil
		case "tab", "down", "shift+tab", "up":
			var cmd tea.Cmd
			m.inputFocus, cmd = focusInput(m.cycleInputs, m.inputFocus, 1)
			return m, cmd
		case "enter":
			// Kept verbatim; the sequencer validates at run time.
			m.cycleCount = strings.TrimSpace(m.cycleInputs[fieldCycleCount].Value())
			m.cycleDelay = strings.TrimSpace(m.cycleInputs[fieldCycleDelay].Value())
			m.screen = screenMain
			return m, nil
		}
	}
	return m, updateInputs(m.cycleInputs, msg)
}
