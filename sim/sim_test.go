package sim

import (
	"errors"
	"testing"

	"ccrblink/core"
	"github.com/google/go-cmp/cmp"
)

func stockConfig(c core.Classifier) core.Config {
	return core.Config{
		Wrap:         5000,
		Clock:        core.ClockConfig{LFXT1: core.LFXT1VLO, ACLKDivider: core.Div2},
		TimerClock:   core.ClockACLK,
		TimerDivider: core.Div1,
		Channels: [core.NumCompareChannels]core.ChannelConfig{
			{Threshold: 1000, Bit: 0, InitialHigh: true},
			{Threshold: 4000, Bit: 6},
		},
		Classifier:    c,
		WrapInterrupt: true,
	}
}

// boot resets the device, initializes it with cfg and returns a model
func boot(t *testing.T, cfg core.Config) *Device {
	t.Helper()
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)
	core.Init(cfg)
	return New()
}

func drain() []core.MatchEvent {
	var events []core.MatchEvent
	core.Free(func(cs core.CriticalSection) {
		for {
			ev, ok := core.PopEvent(cs)
			if !ok {
				return
			}
			events = append(events, ev)
		}
	})
	return events
}

func TestSteadyStateToggles(t *testing.T) {
	classifiers := map[string]core.Classifier{
		"flag":  core.FlagClassifier{},
		"range": core.DefaultRangeClassifier(),
	}

	for name, c := range classifiers {
		t.Run(name, func(t *testing.T) {
			d := boot(t, stockConfig(c))

			for cycle := uint32(0); cycle < 3; cycle++ {
				if err := d.Advance(5000); err != nil {
					t.Fatalf("cycle %d: %v", cycle, err)
				}
				// Each cycle: bit 0 toggles at 1000, bit 6 at 4000, then the wrap
				bit0 := cycle%2 == 1
				want := []core.MatchEvent{
					{Kind: core.EventMatch, Channel: core.CCR1, Count: 1000, Level: bit0, Cycle: cycle},
					{Kind: core.EventMatch, Channel: core.CCR2, Count: 4000, Level: !bit0, Cycle: cycle},
					{Kind: core.EventWrap, Channel: core.CCR0, Count: 0, Cycle: cycle + 1},
				}
				if diff := cmp.Diff(want, drain()); diff != "" {
					t.Errorf("cycle %d events mismatch (-want +got):\n%s", cycle, diff)
				}
			}

			if got := d.Delivered(core.VectorTimer0A1); got != 6 {
				t.Errorf("Expected 6 shared-vector entries, got %d", got)
			}
			if got := d.Delivered(core.VectorTimer0A0); got != 3 {
				t.Errorf("Expected 3 wrap entries, got %d", got)
			}
		})
	}
}

func TestFlagsClearedEachCycle(t *testing.T) {
	d := boot(t, stockConfig(nil))
	regs := core.DeviceRegisters()

	for i := 0; i < 2*5000; i++ {
		if err := d.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for ch := core.CCR0; ch <= core.CCR2; ch++ {
			if regs.Timer0.TACCTL[ch].HasBits(core.CCIFG) {
				t.Fatalf("step %d: CCR%d flag left pending", i, ch)
			}
		}
	}
}

func TestAdvanceMatchesStep(t *testing.T) {
	stepped := boot(t, stockConfig(nil))
	for i := 0; i < 12345; i++ {
		if err := stepped.Step(); err != nil {
			t.Fatal(err)
		}
	}
	wantRegs := *core.DeviceRegisters()
	wantEvents := drain()

	jumped := boot(t, stockConfig(nil))
	if err := jumped.Advance(12345); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(wantRegs, *core.DeviceRegisters()); diff != "" {
		t.Errorf("Registers mismatch (-step +advance):\n%s", diff)
	}
	if diff := cmp.Diff(wantEvents, drain()); diff != "" {
		t.Errorf("Events mismatch (-step +advance):\n%s", diff)
	}
	if stepped.Ticks() != jumped.Ticks() {
		t.Errorf("Tick count mismatch: %d vs %d", stepped.Ticks(), jumped.Ticks())
	}
}

func TestTicksUntilEvent(t *testing.T) {
	d := boot(t, stockConfig(nil))
	regs := core.DeviceRegisters()

	testCases := []struct {
		count uint16
		want  uint32
	}{
		{0, 1000},
		{999, 1},
		{1000, 3000},
		{4500, 500},
		{4999, 1},
	}
	for _, tc := range testCases {
		regs.Timer0.TAR.Set(tc.count)
		if got := d.TicksUntilEvent(); got != tc.want {
			t.Errorf("count %d: expected %d, got %d", tc.count, tc.want, got)
		}
	}
}

func TestWatchdogResetsUnheldDevice(t *testing.T) {
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)
	d := New()
	d.WatchdogInterval = 100

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = d.Step()
	}
	if !errors.Is(err, ErrWatchdogReset) {
		t.Fatalf("Expected watchdog reset, got %v", err)
	}
	if d.Resets() != 1 {
		t.Errorf("Expected 1 reset, got %d", d.Resets())
	}
}

func TestWatchdogBadPassword(t *testing.T) {
	d := boot(t, stockConfig(nil))
	core.DeviceRegisters().Watchdog.WDTCTL.Set(0x1280)

	err := d.Step()
	if !errors.Is(err, ErrWatchdogReset) {
		t.Fatalf("Expected watchdog reset, got %v", err)
	}
	if core.InterruptsEnabled() {
		t.Error("Reset should mask interrupts")
	}
	if got := core.DeviceRegisters().Timer0.TACTL.Get(); got != 0 {
		t.Errorf("Reset should clear TACTL, got 0x%04X", got)
	}
}

func TestHeldWatchdogNeverFires(t *testing.T) {
	d := boot(t, stockConfig(nil))
	d.WatchdogInterval = 10
	if err := d.Advance(1000); err != nil {
		t.Fatalf("Held watchdog fired: %v", err)
	}
}

func TestRangeMisclassificationLivelocks(t *testing.T) {
	cfg := stockConfig(core.DefaultRangeClassifier())
	cfg.Channels[0].Threshold = 2500 // outside the first window
	d := boot(t, cfg)

	err := d.Advance(5000)
	if !errors.Is(err, ErrLivelock) {
		t.Fatalf("Expected livelock, got %v", err)
	}
	if !core.DeviceRegisters().Timer0.TACCTL[core.CCR1].HasBits(core.CCIFG) {
		t.Error("Unclassified flag should still be pending")
	}
}

func TestFlagDispatchHandlesMovedThreshold(t *testing.T) {
	cfg := stockConfig(nil)
	cfg.Channels[0].Threshold = 2500
	d := boot(t, cfg)

	if err := d.Advance(5000); err != nil {
		t.Fatal(err)
	}
	events := drain()
	if len(events) == 0 || events[0].Count != 2500 || events[0].Channel != core.CCR1 {
		t.Errorf("Expected CCR1 match at 2500, got %+v", events)
	}
}

func TestMaskedInterruptsNotDelivered(t *testing.T) {
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)

	// Configure by hand without unmasking
	core.Free(func(cs core.CriticalSection) {
		core.Watchdog.Borrow(cs).Hold()
		tm := core.Timer0.Borrow(cs)
		tm.Configure(100, core.ClockACLK, core.Div1)
		tm.ArmChannel(core.CCR1, 10)
		tm.Start()
	})
	d := New()

	if err := d.Advance(50); err != nil {
		t.Fatal(err)
	}
	if d.Delivered(core.VectorTimer0A1) != 0 {
		t.Error("Vector delivered while interrupts were masked")
	}
	if !core.DeviceRegisters().Timer0.TACCTL[core.CCR1].HasBits(core.CCIFG) {
		t.Error("Match flag should be latched while masked")
	}

	core.EnableInterrupts()
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if d.Delivered(core.VectorTimer0A1) != 1 {
		t.Error("Latched match should be delivered once unmasked")
	}
}

func TestStoppedTimerDoesNotCount(t *testing.T) {
	core.ResetDevice()
	t.Cleanup(core.ResetDevice)
	core.Free(func(cs core.CriticalSection) {
		core.Watchdog.Borrow(cs).Hold()
	})
	d := New()

	if err := d.Advance(1 << 40); err != nil {
		t.Fatal(err)
	}
	if got := core.DeviceRegisters().Timer0.TAR.Get(); got != 0 {
		t.Errorf("Stopped counter moved to %d", got)
	}
	if d.TicksUntilEvent() != 0 {
		t.Error("Stopped timer should report no upcoming event")
	}
}
