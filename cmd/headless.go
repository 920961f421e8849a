package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/samaelod/anycan/engine"
)

type headlessOptions struct {
	cycleCount string
	cycleDelay string
	send       bool // start a sequence right away
	once       bool // shut down when it finishes
}

// runHeadless mirrors the session log to stdout and drives the engine from
// signals until stop fires.
func runHeadless(e *engine.Engine, opts headlessOptions, stop <-chan os.Signal) engine.ShutdownResult {
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for line := range e.Log.Chan() {
			fmt.Println(line)
		}
	}()

	toggles := make(chan os.Signal, 1)
	if len(toggleSignals) > 0 {
		signal.Notify(toggles, toggleSignals...)
		defer signal.Stop(toggles)
	}

	finish := func() engine.ShutdownResult {
		res := e.Shutdown()
		e.Log.Close()
		<-printed
		return res
	}

	var done <-chan error
	if opts.send {
		d, err := e.SendAll(opts.cycleCount, opts.cycleDelay, engine.Declining{})
		if err != nil {
			e.Log.Errorf("%v", err)
		} else {
			done = d
		}
	}
	if opts.once && done == nil {
		return finish()
	}

	for {
		select {
		case <-stop:
			return finish()
		case sig := <-toggles:
			switch sig {
			case captureSignal:
				e.ToggleCapture()
			case pauseSignal:
				e.TogglePause()
			}
		case err := <-done:
			done = nil
			if err != nil {
				e.Log.Errorf("Sequence stopped: %v", err)
			} else {
				e.Log.Printf("Sequence finished")
			}
			if opts.once {
				return finish()
			}
		}
	}
}
