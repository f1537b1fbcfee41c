package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"ccrblink/core"
	"ccrblink/host/serial"
	"ccrblink/host/trace"
)

var (
	device   = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud     = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	replay   = flag.String("replay", "", "Decode a recorded telemetry file instead of a device")
	verbose  = flag.Bool("verbose", false, "Print every event")
	plotPath = flag.String("plot", "", "Write a timing diagram PNG on exit")
)

func main() {
	flag.Parse()

	fmt.Println("ccrmon - blinker telemetry monitor")
	fmt.Println("==================================")

	src, err := openSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	mon := trace.NewMonitor()
	mon.OnEvent = func(ev core.MatchEvent) {
		if *verbose || ev.Kind == core.EventSpurious {
			fmt.Println(core.FormatEvent(ev))
		}
	}

	// Closing the source unblocks the copy on Ctrl-C
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		src.Close()
	}()

	_, err = io.Copy(mon, src)
	if err != nil && !errors.Is(err, os.ErrClosed) {
		fmt.Fprintf(os.Stderr, "Error: read failed: %v\n", err)
	}

	printSummary(mon)

	if *plotPath != "" && mon.Trace != nil {
		if err := mon.Trace.SavePNG(*plotPath, 1200, 300); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write plot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Timing diagram written to %s\n", *plotPath)
	}
}

func openSource() (io.ReadCloser, error) {
	if *replay != "" {
		fmt.Printf("Replaying %s...\n", *replay)
		return os.Open(*replay)
	}

	fmt.Printf("Connecting to %s at %d baud...\n", *device, *baud)
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	// Block until data arrives; the copy loop treats a timeout as EOF
	cfg.ReadTimeout = 0
	return serial.Open(cfg)
}

func printSummary(mon *trace.Monitor) {
	fmt.Println()
	fmt.Printf("Blocks: %d, missing: %d, undecodable: %d\n", mon.Frames(), mon.Gaps, mon.Errors)
	if mon.Identify == nil {
		fmt.Println("No identify message received")
		return
	}
	id := mon.Identify
	fmt.Printf("Device: wrap %d ticks at %d Hz, thresholds %d/%d\n",
		id.Wrap, id.TickHz, id.Thresholds[0], id.Thresholds[1])

	tr := mon.Trace
	fmt.Printf("Periods: %d, spurious entries: %d\n", tr.Wraps, tr.Spurious)
	for ch := core.CCR1; ch <= core.CCR2; ch++ {
		s := tr.Stats(ch)
		fmt.Printf("CCR%d: %d toggles, interval %.1f ± %.1f ticks", ch, s.Toggles, s.MeanTicks, s.StdDevTicks)
		if s.PeriodSeconds > 0 {
			fmt.Printf(", period %.3f s", s.PeriodSeconds)
		}
		fmt.Println()
	}
}
