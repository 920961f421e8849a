package engine

import "context"

// Prompter asks the operator to decide how a run continues. Implementations
// must return when ctx is done.
type Prompter interface {
	// ConfirmNext asks whether to load case next (0-based) of total after a
	// manual run completed.
	ConfirmNext(ctx context.Context, next, total int) bool

	// NextQueue is asked when automatic mode ran out of cases. reason is
	// non-nil when the queue ended on a load error. It returns the new queue
	// or ok=false to stop.
	NextQueue(ctx context.Context, reason error) (paths []string, ok bool)
}

// Declining never prompts and always says no. It is the headless default.
type Declining struct{}

func (Declining) ConfirmNext(context.Context, int, int) bool { return false }

func (Declining) NextQueue(context.Context, error) ([]string, bool) { return nil, false }
