package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/config"
	"github.com/samaelod/anycan/lua"
	"github.com/samaelod/anycan/pcapreader"
	"github.com/samaelod/anycan/testcase"
	"github.com/samaelod/anycan/types"
)

// ErrBusy is returned when a sequence is started while another one runs.
var ErrBusy = errors.New("engine: a sequence is already running")

// Options tune an Engine. Zero durations fall back to the defaults of
// NewSequencer and NewCapture.
type Options struct {
	PausePoll      time.Duration
	ReceiveTimeout time.Duration
	Debounce       time.Duration
	Settle         time.Duration

	ExportPath string
	PcapPath   string
	RecentDir  string

	Load Loader
	List func(dir string) ([]string, error)
}

// OptionsFromConfig maps the application config onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PausePoll:      cfg.Timing.PausePoll(),
		ReceiveTimeout: cfg.Timing.ReceiveTimeout(),
		Debounce:       cfg.Timing.Debounce(),
		Settle:         cfg.Timing.Settle(),
		ExportPath:     cfg.Export.Path,
		PcapPath:       cfg.Export.PcapPath,
		RecentDir:      cfg.RecentDir,
	}
}

// ShutdownResult reports what Shutdown persisted.
type ShutdownResult struct {
	Export ExportResult
	Pcap   bool // pcap mirror written
	Err    error
}

// Engine owns the bus port, the slot table and the workers driving them.
type Engine struct {
	Log *Logger

	port    bus.Port
	ctl     *Control
	table   *types.SlotTable
	records *RecordBuffer
	queue   *Queue
	seq     *Sequencer
	capture *Capture
	opts    Options
	epoch   time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// runMu orders worker registration against Shutdown.
	runMu   sync.Mutex
	stopped bool

	busy   atomic.Bool
	status atomic.Int32
	sent   atomic.Int64

	mu     sync.Mutex
	source string // path of the last loaded case

	startOnce    sync.Once
	shutdownOnce sync.Once
	shutdown     ShutdownResult
}

// New creates an engine around an open port. The capture epoch is the
// moment of creation.
func New(opts Options, port bus.Port, log *Logger) *Engine {
	if opts.Load == nil {
		opts.Load = testcase.Load
	}
	if opts.List == nil {
		opts.List = testcase.List
	}
	if opts.ExportPath == "" {
		opts.ExportPath = "can_messages.csv"
	}
	if log == nil {
		log = NewLogger("", defaultLogLines)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		Log:     log,
		port:    port,
		ctl:     NewControl(opts.Debounce),
		table:   types.NewSlotTable(),
		records: NewRecordBuffer(),
		queue:   &Queue{},
		opts:    opts,
		epoch:   time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
	e.seq = NewSequencer(port, e.ctl, log, opts.PausePoll)
	e.seq.Sent = func(int, bus.Frame) { e.sent.Add(1) }
	e.capture = NewCapture(port, e.ctl, e.records, log, e.epoch, opts.ReceiveTimeout, opts.PausePoll)
	return e
}

// Start launches the capture loop.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		if !e.track() {
			return
		}
		go func() {
			defer e.wg.Done()
			e.capture.Run(e.ctx)
		}()
		e.Log.Printf("Capturing CAN messages... press esc to pause capture")
	})
}

// track registers a worker with the shutdown group. It fails once Shutdown
// has begun.
func (e *Engine) track() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.stopped {
		return false
	}
	e.wg.Add(1)
	return true
}

func (e *Engine) Control() *Control { return e.ctl }
func (e *Engine) Table() *types.SlotTable { return e.table }
func (e *Engine) Records() int { return e.records.Len() }
func (e *Engine) Sent() int64 { return e.sent.Load() }
func (e *Engine) Busy() bool { return e.busy.Load() }
func (e *Engine) Status() types.RunStatus { return types.RunStatus(e.status.Load()) }
func (e *Engine) setStatus(s types.RunStatus) { e.status.Store(int32(s)) }

// QueueInfo returns the current case index, the queue length and the name of
// the loaded case.
func (e *Engine) QueueInfo() (index, total int, current string) {
	e.mu.Lock()
	src := e.source
	e.mu.Unlock()
	if src != "" {
		current = filepath.Base(src)
	}
	return e.ctl.CaseIndex(), e.queue.Len(), current
}

// ToggleCapture reports whether the toggle was accepted.
func (e *Engine) ToggleCapture() bool {
	applied, on := e.ctl.ToggleCapture()
	if !applied {
		return false
	}
	if on {
		e.Log.Printf("Resuming CAN message capture...")
	} else {
		e.Log.Printf("Pausing CAN message capture...")
	}
	return true
}

func (e *Engine) TogglePause() bool {
	paused := e.ctl.TogglePause()
	if paused {
		e.Log.Printf("Paused")
	} else {
		e.Log.Printf("Resumed")
	}
	return paused
}

func (e *Engine) ToggleAutomatic() bool {
	auto := e.ctl.ToggleAutomatic()
	if auto {
		e.Log.Printf("Switched to automatic mode")
	} else {
		e.Log.Printf("Switched to manual mode")
	}
	return auto
}

// SelectFolder replaces the queue with the cases found in dir and loads the
// first one.
func (e *Engine) SelectFolder(dir string) (int, error) {
	paths, err := e.opts.List(dir)
	if err != nil {
		e.Log.Errorf("%v", err)
		return 0, err
	}
	if len(paths) == 0 {
		err := fmt.Errorf("%w: no test case files found in %s", types.ErrLoad, dir)
		e.Log.Warnf("No test case files found in the selected folder")
		return 0, err
	}
	e.queue.Set(paths)
	e.ctl.SetCaseIndex(0)
	e.Log.Printf("Found %d test case files", len(paths))
	return len(paths), e.LoadCase(0)
}

// LoadCase loads queue entry i into the slot table.
func (e *Engine) LoadCase(i int) error {
	if err := loadCase(e.queue, e.opts.Load, e.table, e.Log, i); err != nil {
		return err
	}
	path, _ := e.queue.Path(i)
	e.mu.Lock()
	e.source = path
	e.mu.Unlock()
	return nil
}

func (e *Engine) loader() Loader {
	return func(path string) (types.TestCase, error) {
		tc, err := e.opts.Load(path)
		if err == nil {
			e.mu.Lock()
			e.source = path
			e.mu.Unlock()
		}
		return tc, err
	}
}

// SetSlot parses operator text into slot i, keeping its selection flag.
func (e *Engine) SetSlot(i int, idText, dataText, delayText string) error {
	if i < 0 || i >= types.SlotCount {
		return fmt.Errorf("%w: slot %d out of range", types.ErrConfig, i+1)
	}
	if idText == "" && dataText == "" && delayText == "" {
		e.table.Clear(i)
		return nil
	}
	s, err := types.ParseSlot(idText, dataText, delayText, e.table.Slot(i).Enabled)
	if err != nil {
		return err
	}
	e.table.Set(i, s)
	return nil
}

func (e *Engine) ToggleSlot(i int) {
	e.table.SetEnabled(i, !e.table.Slot(i).Enabled)
}

// SaveTable writes the defined slots as a Lua test case into the recent
// directory and returns its path.
func (e *Engine) SaveTable() (string, error) {
	e.mu.Lock()
	src := e.source
	e.mu.Unlock()
	if src == "" {
		src = "table.lua"
	}
	path, err := lua.SaveToRecent(e.table.Messages(), src, e.opts.RecentDir)
	if err != nil {
		e.Log.Errorf("Save failed: %v", err)
		return "", err
	}
	e.Log.Printf("Saved table to %s", path)
	return path, nil
}

// SendAll starts one sequence on its own worker. In automatic mode the
// runner chains the queued cases; otherwise a single pass runs. The returned
// channel yields the result once and is then closed.
func (e *Engine) SendAll(cycleCount, cycleDelay string, p Prompter) (<-chan error, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	if !e.track() {
		e.busy.Store(false)
		return nil, context.Canceled
	}

	done := make(chan error, 1)
	go func() {
		defer e.wg.Done()
		defer close(done)
		defer e.busy.Store(false)

		var err error
		if e.ctl.Automatic() {
			err = e.runAutomatic(e.ctx, cycleCount, cycleDelay, p)
		} else {
			err = e.runManual(e.ctx, cycleCount, cycleDelay, p)
		}
		done <- err
	}()
	return done, nil
}

// RunManual runs one manual pass on the calling goroutine. It ends when
// either ctx or Shutdown cancels it.
func (e *Engine) RunManual(ctx context.Context, cycleCount, cycleDelay string, p Prompter) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.busy.Store(false)
	if !e.track() {
		return context.Canceled
	}
	defer e.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()
	return e.runManual(ctx, cycleCount, cycleDelay, p)
}

func (e *Engine) runAutomatic(ctx context.Context, cycleCount, cycleDelay string, p Prompter) error {
	e.setStatus(types.StatusRunning)
	r := NewRunner(e.seq, e.ctl, e.queue, e.loader(), e.Log, p, e.opts.Settle)
	if err := r.Drive(ctx, e.table, cycleCount, cycleDelay); err != nil {
		e.setStatus(types.StatusError)
		return err
	}
	e.setStatus(types.StatusCompleted)
	return nil
}

func (e *Engine) runManual(ctx context.Context, cycleCount, cycleDelay string, p Prompter) error {
	e.setStatus(types.StatusRunning)
	out := e.seq.Run(ctx, e.table, cycleCount, cycleDelay)
	switch out.Kind {
	case OutcomeCompleted:
		e.setStatus(types.StatusCompleted)
	case OutcomeCancelled:
		e.setStatus(types.StatusIdle)
		return nil
	default:
		e.setStatus(types.StatusError)
		return out.Err
	}

	total := e.queue.Len()
	if total == 0 {
		return nil
	}
	if e.ctl.CaseIndex() >= total {
		e.Log.Printf("All test cases have been completed!")
		return nil
	}
	next := e.ctl.AdvanceCase()
	if next >= total {
		e.Log.Printf("All test cases have been completed!")
		return nil
	}
	if p == nil || !p.ConfirmNext(ctx, next, total) {
		e.ctl.SetCaseIndex(total)
		return nil
	}
	return e.LoadCase(next)
}

// Shutdown stops both workers, exports what was captured and closes the
// port. Later calls return the first result.
func (e *Engine) Shutdown() ShutdownResult {
	e.shutdownOnce.Do(func() {
		e.Log.Printf("Exiting CAN message capture...")
		e.ctl.SetAutomatic(false)
		e.runMu.Lock()
		e.stopped = true
		e.cancel()
		e.runMu.Unlock()
		e.wg.Wait()

		records := e.records.Drain()
		res, err := ExportFile(e.opts.ExportPath, records, e.epoch)
		e.shutdown.Export = res
		switch {
		case err != nil:
			e.Log.Errorf("%v", err)
			e.shutdown.Err = err
		case res.Skipped:
			e.Log.Printf("No CAN messages captured.")
		default:
			e.Log.Printf("Data successfully logged to %s (%d rows)", res.Path, res.Rows)
		}

		if e.opts.PcapPath != "" {
			ok, err := pcapreader.WriteRecordsFile(e.opts.PcapPath, records, e.epoch)
			if err != nil {
				e.Log.Errorf("%v", err)
				e.shutdown.Err = errors.Join(e.shutdown.Err, err)
			}
			e.shutdown.Pcap = ok
		}

		if err := e.port.Close(); err != nil {
			e.Log.Warnf("close port: %v", err)
		}
	})
	return e.shutdown
}
