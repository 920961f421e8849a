package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Control holds the run flags shared by the workers and the control surface.
// Workers never cache these values; they read them on every iteration.
type Control struct {
	capturing atomic.Bool
	paused    atomic.Bool
	automatic atomic.Bool
	caseIndex atomic.Int64

	debounce   time.Duration
	toggleMu   sync.Mutex
	lastToggle time.Time
}

// NewControl returns flags in their start-up state: capturing on, everything
// else off.
func NewControl(debounce time.Duration) *Control {
	c := &Control{debounce: debounce}
	c.capturing.Store(true)
	return c
}

func (c *Control) Capturing() bool { return c.capturing.Load() }

// ToggleCapture flips the capture flag unless the previous accepted toggle
// was less than the debounce window ago. It reports whether the toggle was
// applied along with the resulting state.
func (c *Control) ToggleCapture() (applied, capturing bool) {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()
	now := time.Now()
	if !c.lastToggle.IsZero() && now.Sub(c.lastToggle) < c.debounce {
		return false, c.capturing.Load()
	}
	c.lastToggle = now
	v := !c.capturing.Load()
	c.capturing.Store(v)
	return true, v
}

func (c *Control) SetCapturing(v bool) { c.capturing.Store(v) }

func (c *Control) Paused() bool { return c.paused.Load() }

func (c *Control) SetPaused(v bool) { c.paused.Store(v) }

// TogglePause flips the pause flag and returns the new value.
func (c *Control) TogglePause() bool {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (c *Control) Automatic() bool { return c.automatic.Load() }

func (c *Control) SetAutomatic(v bool) { c.automatic.Store(v) }

// ToggleAutomatic flips automatic mode and returns the new value.
func (c *Control) ToggleAutomatic() bool {
	for {
		old := c.automatic.Load()
		if c.automatic.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (c *Control) CaseIndex() int { return int(c.caseIndex.Load()) }

func (c *Control) SetCaseIndex(i int) { c.caseIndex.Store(int64(i)) }

// AdvanceCase increments the case index and returns the new value.
func (c *Control) AdvanceCase() int { return int(c.caseIndex.Add(1)) }
