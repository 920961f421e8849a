package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/config"
	"github.com/samaelod/anycan/engine"
	"github.com/samaelod/anycan/tui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func sessionLogPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("anycan-%s.log", time.Now().Format("20060102-150405")))
}

func run(args []string) int {
	// Only create debug log in dev builds
	if version == "dev" {
		f, err := os.OpenFile("debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			log.SetOutput(f)
			defer f.Close()
		}
	}

	fs := pflag.NewFlagSet("anycan", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "config file (json)")
	headless := fs.Bool("headless", false, "run without the terminal UI")
	auto := fs.Bool("auto", false, "start in automatic mode")
	once := fs.Bool("once", false, "headless: shut down once the sequence finishes")
	showVersion := fs.Bool("version", false, "print the version and exit")
	config.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "anycan: %v\n", err)
		return 1
	}
	if *showVersion {
		fmt.Println("anycan", version)
		return 0
	}

	cfg, err := config.LoadWithFlags(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "anycan: %v\n", err)
		return 1
	}
	log.Printf("config: %+v", *cfg)

	logger := engine.NewLogger(sessionLogPath(cfg.LogsDir), cfg.LogLines)
	defer logger.Close()

	if cfg.Bus.Driver == "" || cfg.Bus.Driver == bus.DriverSocketCAN {
		if up, err := bus.IsLinkUp(cfg.Bus.Channel); err == nil && !up {
			logger.Warnf("Interface %s is down, bring it up with: ip link set %s up type can bitrate %d",
				cfg.Bus.Channel, cfg.Bus.Channel, cfg.Bus.Bitrate)
		}
	}

	port, err := bus.Open(cfg.Bus.Driver, cfg.Bus.Channel, cfg.Bus.Bitrate, cfg.Bus.ConfigureLink)
	if err != nil {
		log.Printf("open bus: %v", err)
		fmt.Fprintf(os.Stderr, "anycan: open %s: %v\n", cfg.Bus.Channel, err)
		return 1
	}
	logger.Printf("Connected to %s (%s)", cfg.Bus.Channel, cfg.Bus.Driver)

	e := engine.New(engine.OptionsFromConfig(cfg), port, logger)
	e.Start()

	if err := loadCases(e, cfg.CasesDir); err != nil {
		log.Printf("cases: %v", err)
	}
	if *auto && !e.Control().Automatic() {
		e.ToggleAutomatic()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	cycles := strconv.Itoa(cfg.Cycle.Count)
	delay := strconv.Itoa(cfg.Cycle.DelayMs)

	var res engine.ShutdownResult
	quiet := *headless || !term.IsTerminal(int(os.Stdout.Fd()))
	if quiet {
		res = runHeadless(e, headlessOptions{
			cycleCount: cycles,
			cycleDelay: delay,
			send:       *auto || *once,
			once:       *once,
		}, sigs)
	} else {
		res, err = tui.Run(e, tui.Options{
			Version:    version,
			Driver:     cfg.Bus.Driver,
			Channel:    cfg.Bus.Channel,
			CycleCount: cycles,
			CycleDelay: delay,
			CasesDir:   cfg.CasesDir,
		}, sigs)
		if err != nil {
			log.Printf("tui: %v", err)
			fmt.Fprintf(os.Stderr, "anycan: %v\n", err)
			return 1
		}
	}

	return report(res, quiet)
}

// loadCases queues the configured cases folder. A folder that fails to
// load leaves the table editable.
func loadCases(e *engine.Engine, dir string) error {
	if dir == "" {
		return nil
	}
	n, err := e.SelectFolder(dir)
	if err != nil {
		e.Log.Warnf("Cases folder %s not loaded: %v", dir, err)
		return err
	}
	log.Printf("cases: %d from %s", n, dir)
	return nil
}

// report prints the shutdown outcome once the terminal is released. In
// headless mode the session log already carried it.
func report(res engine.ShutdownResult, quiet bool) int {
	switch {
	case quiet:
	case res.Export.Skipped:
		fmt.Println("No CAN messages captured.")
	case res.Export.Path != "" && res.Export.Rows > 0:
		fmt.Printf("Data successfully logged to %s (%d rows)\n", res.Export.Path, res.Export.Rows)
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "anycan: %v\n", res.Err)
		return 1
	}
	return 0
}
