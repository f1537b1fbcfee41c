package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-tty"

	"ccrblink/config"
	"ccrblink/core"
)

var (
	configPath  = flag.String("config", "", "JSON configuration file (stock firmware if empty)")
	cycles      = flag.Int("cycles", 10, "Number of counter periods to simulate")
	verbose     = flag.Bool("verbose", false, "Print every handler event")
	plotPath    = flag.String("plot", "", "Write a timing diagram PNG to this path")
	interactive = flag.Bool("interactive", false, "Step from event to event (space = next, q = quit)")
	telemetry   = flag.String("telemetry", "", "Write the telemetry stream the firmware would send to this file")
)

func main() {
	flag.Parse()

	fmt.Println("ccrsim - Timer_A compare/toggle simulator")
	fmt.Println("=========================================")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// Events need cycle numbers to be placed in time
	cfg.WrapInterrupt = true

	coreCfg, err := cfg.Core()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	core.ResetDevice()
	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(*verbose)
	core.Init(coreCfg)

	r, err := newRun(cfg, coreCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.close()

	printConfig(cfg, r.trace.TickHz)

	if *interactive {
		err = r.interactive(uint64(*cycles) * uint64(cfg.Wrap))
	} else {
		err = r.cycles(*cycles)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: simulation stopped after %d ticks: %v\n", r.dev.Ticks(), err)
		core.DumpEvents()
	}

	r.printSummary()

	if *plotPath != "" {
		if perr := r.trace.SavePNG(*plotPath, 1200, 300); perr != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write plot: %v\n", perr)
			os.Exit(1)
		}
		fmt.Printf("Timing diagram written to %s\n", *plotPath)
	}

	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFile(*configPath)
}

func printConfig(cfg *config.Config, tickHz uint32) {
	fmt.Printf("Wrap:      %d ticks\n", cfg.Wrap)
	fmt.Printf("Clock:     %s (lfxt1=%s, aclk/%d, smclk/%d, timer/%d) = %d Hz\n",
		cfg.Clock.Source, cfg.Clock.LFXT1, cfg.Clock.ACLKDivider,
		cfg.Clock.SMCLKDivider, cfg.Clock.TimerDivider, tickHz)
	for i, ch := range cfg.Channels {
		fmt.Printf("CCR%d:      threshold %d -> P1.%d\n", i+1, ch.Threshold, ch.Bit)
	}
	fmt.Printf("Dispatch:  %s\n", cfg.Dispatch)
	if cfg.Dispatch == config.DispatchRange && !cfg.RangeWindowsCover() {
		fmt.Println("Warning: a threshold lies outside its range window; expect a livelock")
	}
	fmt.Println()
}

func waitKey(t *tty.TTY) (quit bool, err error) {
	for {
		r, err := t.ReadRune()
		if err != nil {
			return true, err
		}
		switch r {
		case ' ', '\r', '\n':
			return false, nil
		case 'q', 'Q':
			return true, nil
		}
	}
}
