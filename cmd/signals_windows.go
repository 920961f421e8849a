package main

import "os"

// No user signals; headless toggles are unavailable.
var (
	captureSignal os.Signal
	pauseSignal   os.Signal
	toggleSignals []os.Signal
)
