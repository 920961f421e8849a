//go:build !windows

package main

import (
	"os"
	"syscall"
)

var (
	captureSignal os.Signal = syscall.SIGUSR1
	pauseSignal   os.Signal = syscall.SIGUSR2
	toggleSignals           = []os.Signal{captureSignal, pauseSignal}
)
