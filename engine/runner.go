package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/samaelod/anycan/types"
)

// Loader reads one test case source.
type Loader func(path string) (types.TestCase, error)

// Queue is the ordered list of test case paths for the current folder.
type Queue struct {
	mu    sync.RWMutex
	paths []string
}

func (q *Queue) Set(paths []string) {
	q.mu.Lock()
	q.paths = append([]string(nil), paths...)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.paths)
}

func (q *Queue) Path(i int) (string, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i < 0 || i >= len(q.paths) {
		return "", false
	}
	return q.paths[i], true
}

func (q *Queue) Paths() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]string(nil), q.paths...)
}

// loadCase loads queue entry i into table and logs what was skipped.
func loadCase(q *Queue, load Loader, table *types.SlotTable, log *Logger, i int) error {
	path, ok := q.Path(i)
	if !ok {
		return fmt.Errorf("%w: no test case at index %d", types.ErrLoad, i)
	}
	tc, err := load(path)
	if err != nil {
		log.Errorf("Error loading test case: %v", err)
		return err
	}
	for _, w := range tc.Warnings {
		log.Warnf("%s: %s", filepath.Base(path), w)
	}
	if dropped := table.Load(tc.Messages); dropped > 0 {
		log.Warnf("%s: %d messages beyond %d slots were dropped", filepath.Base(path), dropped, types.SlotCount)
	}
	log.Printf("Loaded test case %d/%d: %s", i+1, q.Len(), filepath.Base(path))
	return nil
}

type runnerState int

const (
	stateRunning runnerState = iota
	stateExhausted
	stateAwaitingQueue
	stateStopped
)

// Runner chains the cases of a queue through the sequencer while automatic
// mode is on.
type Runner struct {
	seq      Sequencer
	ctl      *Control
	queue    *Queue
	load     Loader
	log      *Logger
	prompter Prompter
	settle   time.Duration
}

// NewRunner builds a runner around a copy of seq that also stops when
// automatic mode is switched off. A nil prompter declines every refill.
func NewRunner(seq *Sequencer, ctl *Control, queue *Queue, load Loader, log *Logger, prompter Prompter, settle time.Duration) *Runner {
	r := &Runner{
		seq:      *seq,
		ctl:      ctl,
		queue:    queue,
		load:     load,
		log:      log,
		prompter: prompter,
		settle:   settle,
	}
	r.seq.Continue = ctl.Automatic
	return r
}

// Drive runs until automatic mode is switched off, the context is cancelled
// or the queue ran out and no refill was given. The table must already hold
// the case at the current index. A failed or invalid run switches automatic
// mode off and is returned.
func (r *Runner) Drive(ctx context.Context, table *types.SlotTable, cycleCount, cycleDelay string) error {
	state := stateRunning
	var reason error

	for {
		switch state {
		case stateRunning:
			if !r.ctl.Automatic() || ctx.Err() != nil {
				state = stateStopped
				continue
			}
			if r.ctl.CaseIndex() >= r.queue.Len() {
				state = stateExhausted
				continue
			}

			out := r.seq.Run(ctx, table, cycleCount, cycleDelay)
			switch out.Kind {
			case OutcomeCompleted:
				next := r.ctl.AdvanceCase()
				if next >= r.queue.Len() {
					continue
				}
				if err := loadCase(r.queue, r.load, table, r.log, next); err != nil {
					reason = err
					state = stateExhausted
					continue
				}
				if !r.seq.sleep(ctx, r.settle) {
					state = stateStopped
				}
			case OutcomeFailed, OutcomeInvalidConfig:
				r.ctl.SetAutomatic(false)
				r.log.Errorf("Automatic mode stopped: %s", out)
				return out.Err
			default:
				state = stateStopped
			}

		case stateExhausted:
			if !r.ctl.Automatic() || ctx.Err() != nil {
				state = stateStopped
				continue
			}
			if reason == nil {
				r.log.Printf("All test cases completed!")
			}
			state = stateAwaitingQueue

		case stateAwaitingQueue:
			var paths []string
			ok := false
			if r.prompter != nil {
				paths, ok = r.prompter.NextQueue(ctx, reason)
			}
			reason = nil
			if !ok || len(paths) == 0 || ctx.Err() != nil {
				r.ctl.SetAutomatic(false)
				r.log.Printf("Automatic mode stopped")
				state = stateStopped
				continue
			}
			r.queue.Set(paths)
			r.ctl.SetCaseIndex(0)
			if err := loadCase(r.queue, r.load, table, r.log, 0); err != nil {
				reason = err
				state = stateExhausted
				continue
			}
			state = stateRunning

		case stateStopped:
			return nil
		}
	}
}
