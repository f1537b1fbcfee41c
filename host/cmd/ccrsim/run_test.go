package main

import (
	"os"
	"path/filepath"
	"testing"

	"ccrblink/config"
	"ccrblink/core"
	"ccrblink/host/trace"
)

func TestRunWritesReadableTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.bin")
	*telemetry = path
	t.Cleanup(func() { *telemetry = "" })

	cfg := config.Default()
	cfg.WrapInterrupt = true
	coreCfg, err := cfg.Core()
	if err != nil {
		t.Fatal(err)
	}
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)
	core.Init(coreCfg)

	r, err := newRun(cfg, coreCfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.cycles(4); err != nil {
		t.Fatal(err)
	}
	r.close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	m := trace.NewMonitor()
	m.Write(data)

	if m.Identify == nil || m.Identify.Wrap != 5000 || m.Identify.TickHz != 6000 {
		t.Fatalf("Unexpected identify: %+v", m.Identify)
	}
	if m.Gaps != 0 || m.Errors != 0 {
		t.Errorf("Expected a clean stream, got %d gaps and %d errors", m.Gaps, m.Errors)
	}
	// 4 periods of two toggles and one wrap each
	if got := len(m.Trace.Edges); got != 8 {
		t.Errorf("Expected 8 edges, got %d", got)
	}
	if diff := len(r.trace.Edges) - len(m.Trace.Edges); diff != 0 {
		t.Errorf("Telemetry lost %d edges", diff)
	}
	if m.Trace.Wraps != 4 {
		t.Errorf("Expected 4 wraps, got %d", m.Trace.Wraps)
	}
}

func TestRunStopsOnLivelock(t *testing.T) {
	cfg := config.Default()
	cfg.Dispatch = config.DispatchRange
	cfg.Channels[0].Threshold = 2500
	coreCfg, err := cfg.Core()
	if err != nil {
		t.Fatal(err)
	}
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)
	core.Init(coreCfg)

	r, err := newRun(cfg, coreCfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.cycles(2); err == nil {
		t.Error("Expected the run to stop")
	}
	if r.trace.Spurious == 0 {
		t.Error("Expected spurious entries before the livelock")
	}
}
