package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-tty"

	"ccrblink/config"
	"ccrblink/core"
	"ccrblink/host/trace"
	"ccrblink/protocol"
	"ccrblink/sim"
)

// run ties the simulated device to the trace and the optional telemetry
// file.
type run struct {
	dev   *sim.Device
	trace *trace.Trace
	wrap  uint16

	out     *os.File
	scratch *protocol.ScratchOutput
	encoder *protocol.StreamEncoder
}

func newRun(cfg *config.Config, coreCfg core.Config) (*run, error) {
	var initial [core.NumCompareChannels]bool
	for i, ch := range coreCfg.Channels {
		initial[i] = ch.InitialHigh
	}

	r := &run{
		dev:   sim.New(),
		trace: trace.New(cfg.Wrap, core.TickHz(), initial),
		wrap:  cfg.Wrap,
	}

	if *telemetry != "" {
		f, err := os.Create(*telemetry)
		if err != nil {
			return nil, fmt.Errorf("create telemetry file: %w", err)
		}
		r.out = f
		r.scratch = protocol.NewScratchOutput()
		r.encoder = protocol.NewStreamEncoder(r.scratch)

		id := core.Identify{Wrap: cfg.Wrap, TickHz: r.trace.TickHz}
		for i, ch := range coreCfg.Channels {
			id.Thresholds[i] = ch.Threshold
		}
		if err := r.emit(func(o protocol.OutputBuffer) { core.EncodeIdentify(o, id) }); err != nil {
			f.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *run) close() {
	if r.out != nil {
		r.out.Close()
	}
}

func (r *run) emit(frame func(o protocol.OutputBuffer)) error {
	if r.out == nil {
		return nil
	}
	r.scratch.Reset()
	r.encoder.EncodeFrame(frame)
	if _, err := r.out.Write(r.scratch.Result()); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}

// drain moves buffered handler events into the trace, the telemetry
// file and, when verbose, the console.
func (r *run) drain() (int, error) {
	var events [core.EventRingSize]core.MatchEvent
	var n int
	core.Free(func(cs core.CriticalSection) {
		for n < len(events) {
			ev, ok := core.PopEvent(cs)
			if !ok {
				return
			}
			events[n] = ev
			n++
		}
	})

	for _, ev := range events[:n] {
		r.trace.Add(ev)
		if *verbose || *interactive {
			fmt.Printf("%10d  %s\n", r.trace.Tick(ev), core.FormatEvent(ev))
		}
		if err := r.emit(func(o protocol.OutputBuffer) { core.EncodeEvent(o, ev) }); err != nil {
			return n, err
		}
	}
	return n, nil
}

// cycles runs n full counter periods, draining after each one
func (r *run) cycles(n int) error {
	for i := 0; i < n; i++ {
		err := r.dev.Advance(uint64(r.wrap))
		if _, derr := r.drain(); derr != nil {
			return derr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// interactive advances to each handler entry in turn and waits for a key
func (r *run) interactive(limit uint64) error {
	t, err := tty.Open()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer t.Close()

	fmt.Println("space: next event, q: quit")
	for r.dev.Ticks() < limit {
		next := uint64(r.dev.TicksUntilEvent())
		if next == 0 {
			return fmt.Errorf("timer is not running")
		}
		err := r.dev.Advance(next)
		n, derr := r.drain()
		if derr != nil {
			return derr
		}
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if quit, err := waitKey(t); quit {
			return err
		}
	}
	return nil
}

func (r *run) printSummary() {
	fmt.Println()
	fmt.Println("Summary")
	fmt.Println("-------")
	fmt.Printf("Ticks simulated:  %d\n", r.dev.Ticks())
	fmt.Printf("Periods:          %d\n", r.trace.Wraps)
	fmt.Printf("Vector entries:   %s=%d %s=%d\n",
		core.VectorTimer0A0, r.dev.Delivered(core.VectorTimer0A0),
		core.VectorTimer0A1, r.dev.Delivered(core.VectorTimer0A1))
	fmt.Printf("Spurious entries: %d\n", r.trace.Spurious)

	for ch := core.CCR1; ch <= core.CCR2; ch++ {
		s := r.trace.Stats(ch)
		fmt.Printf("CCR%d: %d toggles, interval %.1f ± %.1f ticks", ch, s.Toggles, s.MeanTicks, s.StdDevTicks)
		if s.PeriodSeconds > 0 {
			fmt.Printf(", period %.3f s", s.PeriodSeconds)
		}
		fmt.Println()
	}
	fmt.Printf("CCR1 -> CCR2 phase: %.1f ticks\n", r.trace.Phase(core.CCR1, core.CCR2))
}
