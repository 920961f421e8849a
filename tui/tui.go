package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/anycan/engine"
)

// Options describe the session shown by the control surface.
type Options struct {
	Version    string
	Driver     string
	Channel    string
	CycleCount string
	CycleDelay string
	CasesDir   string // where the folder picker opens
}

func New(e *engine.Engine, opts Options) Model {
	if opts.CycleCount == "" {
		opts.CycleCount = "1"
	}
	if opts.CycleDelay == "" {
		opts.CycleDelay = "0"
	}
	vp := viewport.New(0, 0)
	vp.SetContent(e.Log.ReadAll())

	return Model{
		screen:      screenMain,
		engine:      e,
		version:     opts.Version,
		driver:      opts.Driver,
		channel:     opts.Channel,
		fileBrowser: NewFileBrowser(opts.CasesDir),
		cycleCount:  opts.CycleCount,
		cycleDelay:  opts.CycleDelay,
		logViewport: vp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForLog(m.engine.Log), tick())
}

// Run drives e until the operator quits or a signal arrives, then returns
// what the engine persisted on shutdown.
func Run(e *engine.Engine, opts Options, signals <-chan os.Signal) (engine.ShutdownResult, error) {
	var p *tea.Program
	m := New(e, opts)
	m.prompter = NewPrompter(func(msg tea.Msg) { p.Send(msg) })
	p = tea.NewProgram(m, tea.WithAltScreen())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-signals:
			p.Send(quitRequestMsg{})
		case <-stop:
		}
	}()

	_, err := p.Run()
	// Shutdown is idempotent; this covers a program that died before quitting.
	return e.Shutdown(), err
}
