package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/samaelod/anycan/types"
)

func renderScrollbar(vp viewport.Model, height int) string {
	total := vp.TotalLineCount()
	visible := vp.VisibleLineCount()

	if total <= visible {
		return ""
	}

	trackHeight := height
	if trackHeight < 1 {
		trackHeight = visible
	}

	thumbPos := int(float64(trackHeight-1) * vp.ScrollPercent())
	thumbPos = max(0, min(thumbPos, trackHeight-1))

	var sb strings.Builder
	for i := 0; i < trackHeight; i++ {
		if i == thumbPos {
			sb.WriteString(scrollbarThumb.Render("█"))
		} else {
			sb.WriteString(scrollbarTrack.Render("│"))
		}
		if i < trackHeight-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func hint(key, desc string) string {
	return styleKey.Render(key) + styleSubtext.Render(" "+desc)
}

func joinHints(hints ...string) string {
	return strings.Join(hints, styleSubtext.Render(" • "))
}

func onOff(on bool, yes, no string) string {
	if on {
		return styleOK.Render(yes)
	}
	return styleSubtext.Render(no)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.width < minWindowWidth || m.height < minWindowHeight {
		return styleScreenTooSmall.
			Width(m.width).
			Height(m.height).
			Render(fmt.Sprintf("Terminal too small\n%dx%d, need %dx%d",
				m.width, m.height, minWindowWidth, minWindowHeight))
	}

	innerWidth := m.width - 2
	innerHeight := m.height - 2

	title := styleAppTitle.Render("anycan "+m.version) +
		styleSubtext.Render(fmt.Sprintf("%s %s", m.driver, m.channel))

	var body string
	switch m.screen {
	case screenFolderPicker:
		body = m.viewFolderPicker(innerWidth, innerHeight-1)
	case screenEditSlot:
		body = lipgloss.Place(innerWidth, innerHeight-1, lipgloss.Center, lipgloss.Center, m.viewEditSlot())
	case screenCycles:
		body = lipgloss.Place(innerWidth, innerHeight-1, lipgloss.Center, lipgloss.Center, m.viewCycles())
	case screenPrompt:
		body = lipgloss.Place(innerWidth, innerHeight-1, lipgloss.Center, lipgloss.Center, m.viewPrompt())
	default:
		body = m.viewMain(innerWidth)
	}

	return styleWindow.
		Width(innerWidth).
		Height(innerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m Model) viewMain(width int) string {
	tablePanelWidth := width - statusWidth
	focused := stylePanel
	if m.activeView == focusTable {
		focused = stylePanelFocused
	}
	table := focused.
		Width(tablePanelWidth - 2).
		Height(tableHeight).
		Render(m.viewTable())
	status := stylePanel.
		Width(statusWidth - 2).
		Height(tableHeight).
		Render(m.viewStatus())
	top := lipgloss.JoinHorizontal(lipgloss.Top, table, status)

	logStyle := stylePanel
	if m.activeView == focusLogs {
		logStyle = stylePanelFocused
	}
	logBody := lipgloss.JoinHorizontal(lipgloss.Top,
		m.logViewport.View(),
		renderScrollbar(m.logViewport, m.logViewport.Height))
	logs := logStyle.
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, styleTitle.Render("Logs"), logBody))

	return lipgloss.JoinVertical(lipgloss.Left, top, logs, m.viewFooter())
}

func (m Model) viewTable() string {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Transmit table"))
	sb.WriteString("\n")
	sb.WriteString(styleHeader.Render(fmt.Sprintf("  %-3s %-4s %-11s %-4s %-24s %s", "#", "Sel", "ID", "DLC", "Data", "Delay")))

	for i, s := range m.engine.Table().Snapshot() {
		sb.WriteString("\n")
		sel := "[ ]"
		if s.Enabled {
			sel = "[x]"
		}
		id, dlc, data, delay := "-", "-", "-", "-"
		if s.Defined {
			id = types.FormatID(s.ID)
			dlc = fmt.Sprint(s.Length)
			data = types.FormatPayload(s.Payload)
			delay = fmt.Sprintf("%d ms", s.Delay)
		}
		row := fmt.Sprintf("%-3d %-4s %-11s %-4s %-24s %s", i+1, sel, id, dlc, data, delay)

		switch {
		case i == m.cursor && m.activeView == focusTable:
			sb.WriteString(styleSelected.Render("> " + row))
		case !s.Active():
			sb.WriteString(styleDisabled.Render("  " + row))
		default:
			sb.WriteString(styleValue.Render("  " + row))
		}
	}
	return sb.String()
}

func (m Model) viewStatus() string {
	e := m.engine
	ctl := e.Control()

	run := e.Status().String()
	if e.Busy() && ctl.Paused() {
		run = "paused"
	}
	runStyle := styleValue
	switch e.Status() {
	case types.StatusCompleted:
		runStyle = styleOK
	case types.StatusError:
		runStyle = styleErr
	}

	index, total, current := e.QueueInfo()
	caseLine := styleSubtext.Render("none")
	if total > 0 {
		shown := min(index+1, total)
		caseLine = styleValue.Render(fmt.Sprintf("%d/%d %s", shown, total, current))
	}

	line := func(label, value string) string {
		return styleLabel.Render(label) + value
	}

	lines := []string{
		styleTitle.Render("Status"),
		line("Capture", onOff(ctl.Capturing(), "on", "paused")),
		line("Sequence", runStyle.Render(run)),
		line("Mode", onOff(ctl.Automatic(), "automatic", "manual")),
		line("Cycles", styleValue.Render(fmt.Sprintf("%s × %s ms", m.cycleCount, m.cycleDelay))),
		line("Case", caseLine),
		line("Sent", styleValue.Render(fmt.Sprint(e.Sent()))),
		line("Captured", styleValue.Render(fmt.Sprint(e.Records()))),
	}
	if m.notice != "" {
		style := styleErr
		if m.noticeOK {
			style = styleOK
		}
		lines = append(lines, "", style.Width(statusWidth-4).Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewFooter() string {
	if m.closing {
		return styleSubtext.Render("Exiting, exporting captured frames...")
	}
	if m.activeView == focusLogs {
		return joinHints(
			hint("<tab>", "table"),
			hint("↑/↓", "scroll"),
			hint("g/G", "top/bottom"),
			hint("l", "open in editor"),
			hint("q", "quit"),
		)
	}
	return joinHints(
		hint("space", "select"),
		hint("e", "edit"),
		hint("d", "clear"),
		hint("c", "cycles"),
		hint("o", "folder"),
		hint("a", "auto"),
		hint("r", "run"),
		hint("^p", "pause"),
		hint("esc", "capture"),
		hint("w", "save"),
		hint("<tab>", "logs"),
		hint("q", "quit"),
	)
}

func (m Model) viewFolderPicker(width, height int) string {
	header := styleTitle.Render("Select test case folder") + " " +
		styleSubtext.Render(m.fileBrowser.CurrentDir)
	n := m.fileBrowser.CaseCount(m.fileBrowser.CurrentDir)
	info := styleSubtext.Render(fmt.Sprintf("%d test case files here", n))
	if n > 0 {
		info = styleOK.Render(fmt.Sprintf("%d test case files here", n))
	}
	footer := joinHints(
		hint("enter", "open"),
		hint("←", "parent"),
		hint("s", "use this folder"),
		hint("esc", "cancel"),
	)
	if m.notice != "" && !m.noticeOK {
		footer = styleErr.Render(m.notice) + "\n" + footer
	}
	panel := stylePanelFocused.
		Width(width - 2).
		Height(height - 4).
		Render(m.fileBrowser.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, info, panel, footer)
}

func (m Model) viewEditSlot() string {
	labels := [fieldCount]string{"ID", "Data", "Delay"}
	var sb strings.Builder
	sb.WriteString(styleTitle.Render(fmt.Sprintf("Edit slot %d", m.cursor+1)))
	sb.WriteString("\n\n")
	for i, in := range m.slotInputs {
		label := styleLabel.Render(labels[i])
		if i == m.inputFocus {
			label = styleSelected.Width(10).Render(labels[i])
		}
		sb.WriteString(label + in.View() + "\n")
	}
	sb.WriteString(styleLabel.Render("DLC") + styleValue.Render(derivedDLC(m.slotInputs[fieldData].Value())))
	sb.WriteString("\n\n")
	if m.notice != "" && !m.noticeOK {
		sb.WriteString(styleErr.Render(m.notice) + "\n")
	}
	sb.WriteString(joinHints(hint("tab", "next"), hint("enter", "save"), hint("esc", "cancel")))
	sb.WriteString("\n" + styleSubtext.Render("empty fields clear the slot"))
	return styleModal.Render(sb.String())
}

func (m Model) viewCycles() string {
	labels := []string{"Count", "Delay ms"}
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Cycle settings"))
	sb.WriteString("\n\n")
	for i, in := range m.cycleInputs {
		label := styleLabel.Render(labels[i])
		if i == m.inputFocus {
			label = styleSelected.Width(10).Render(labels[i])
		}
		sb.WriteString(label + in.View())
		if msg := cycleFieldError(in.Value()); msg != "" {
			sb.WriteString(" " + styleErr.Render(msg))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(joinHints(hint("tab", "next"), hint("enter", "apply"), hint("esc", "cancel")))
	return styleModal.Render(sb.String())
}

func (m Model) viewPrompt() string {
	text := ""
	if m.prompt != nil {
		text = m.prompt.text
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		styleValue.Width(50).Render(text),
		"",
		joinHints(hint("y", "yes"), hint("n", "no")),
	)
	return styleModal.Render(body)
}
