package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/samaelod/anycan/engine"
)

type screen int

const (
	screenMain screen = iota
	screenFolderPicker
	screenEditSlot
	screenCycles
	screenPrompt
)

// focus on the main screen
const (
	focusTable = iota
	focusLogs
)

// slot editor fields
const (
	fieldID = iota
	fieldData
	fieldDelay
	fieldCount
)

// cycle settings fields
const (
	fieldCycleCount = iota
	fieldCycleDelay
)

type Model struct {
	screen screen
	// screen to return to once a prompt is answered
	back screen

	engine   *engine.Engine
	prompter *Prompter
	version  string
	driver   string
	channel  string

	width  int
	height int

	cursor     int // selected slot
	activeView int

	fileBrowser FileBrowser

	slotInputs  []textinput.Model
	cycleInputs []textinput.Model
	inputFocus  int

	cycleCount string
	cycleDelay string

	// pending operator question from a sequence worker
	prompt *promptMsg

	logViewport viewport.Model
	logContent  string

	notice   string
	noticeOK bool

	closing bool
}

const (
	minWindowWidth  = 80
	minWindowHeight = 24
	footerHeight    = 2
	tableHeight     = 12 // title, header and one row per slot
	statusWidth     = 36
)
