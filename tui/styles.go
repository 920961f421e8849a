package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#7D56F4")
	colorSecondary = lipgloss.Color("#F4A956")
	colorText      = lipgloss.Color("#FAFAFA")
	colorSubtext   = lipgloss.Color("#777777")
	colorSuccess   = lipgloss.Color("#43BF6D")
	colorError     = lipgloss.Color("#FF5F5F")

	styleWindow = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorPrimary)

	// panels carry their own title line, so no top padding
	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorSubtext).
			Padding(0, 1)

	stylePanelFocused = stylePanel.
				BorderForeground(colorSecondary)

	styleTitle = lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorText).
			Padding(0, 1).
			Bold(true)

	styleAppTitle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true).
			Padding(0, 1)

	styleSelected = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Width(10)

	styleValue = lipgloss.NewStyle().
			Foreground(colorText)

	styleSubtext = lipgloss.NewStyle().
			Foreground(colorSubtext)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleDisabled = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Faint(true)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSuccess).
		Bold(true)

	styleErr = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorSecondary).
			Padding(1, 2)

	styleKey = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleScreenTooSmall = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				Align(lipgloss.Center, lipgloss.Center)

	scrollbarTrack = lipgloss.NewStyle().
			Foreground(colorSubtext)

	scrollbarThumb = lipgloss.NewStyle().
			Foreground(colorPrimary)
)
