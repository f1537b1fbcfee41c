package core

import "testing"

func TestTimerConfigureRegisters(t *testing.T) {
	resetForTest(t)

	Free(func(cs CriticalSection) {
		tm := Timer0.Borrow(cs)
		tm.Configure(5000, ClockACLK, Div4)
		if tm.Running() {
			t.Error("Configure must leave the timer stopped")
		}
		tm.ArmChannel(CCR1, 1000)
		tm.ArmChannel(CCR2, 4000)
		tm.Start()
	})

	r := &DeviceRegisters().Timer0
	// TASSEL=01 (ACLK), ID=10 (/4), MC=01 (up), TACLR
	want := uint16(1<<8 | 2<<6 | 1<<4 | TACLR)
	if got := r.TACTL.Get(); got != want {
		t.Errorf("Expected TACTL 0x%04X, got 0x%04X", want, got)
	}
	if r.TACCR[CCR0].Get() != 5000 || r.TACCR[CCR1].Get() != 1000 || r.TACCR[CCR2].Get() != 4000 {
		t.Errorf("Unexpected compare registers: %d %d %d",
			r.TACCR[CCR0].Get(), r.TACCR[CCR1].Get(), r.TACCR[CCR2].Get())
	}
	for _, ch := range []Channel{CCR1, CCR2} {
		if r.TACCTL[ch].Get() != CCIE {
			t.Errorf("CCR%d: expected TACCTL 0x%04X, got 0x%04X", ch, CCIE, r.TACCTL[ch].Get())
		}
	}
	if r.TACCTL[CCR0].Get() != 0 {
		t.Errorf("CCR0 interrupt should stay disabled, got 0x%04X", r.TACCTL[CCR0].Get())
	}
}

func TestTimerControlFields(t *testing.T) {
	resetForTest(t)

	Free(func(cs CriticalSection) {
		tm := Timer0.Borrow(cs)
		tm.Configure(100, ClockSMCLK, Div8)
		ctl := tm.Control()
		if ctl.ClockSource() != ClockSMCLK {
			t.Errorf("Expected SMCLK, got %v", ctl.ClockSource())
		}
		if ctl.Divider() != Div8 {
			t.Errorf("Expected /8, got /%d", ctl.Divider().Factor())
		}
		if ctl.Mode() != ModeStop {
			t.Errorf("Expected stop mode, got %d", ctl.Mode())
		}
		tm.Start()
		if ctl.Mode() != ModeUp {
			t.Errorf("Expected up mode, got %d", ctl.Mode())
		}
		if tm.Wrap() != 100 {
			t.Errorf("Expected wrap 100, got %d", tm.Wrap())
		}
	})
}

func TestTimerArmDisarm(t *testing.T) {
	resetForTest(t)

	Free(func(cs CriticalSection) {
		tm := Timer0.Borrow(cs)
		tm.Configure(5000, ClockACLK, Div1)
		tm.ArmChannel(CCR2, 4000)
		if !tm.CompareControl(CCR2).InterruptEnabled() {
			t.Error("Armed channel should have CCIE set")
		}
		if tm.Threshold(CCR2) != 4000 {
			t.Errorf("Expected threshold 4000, got %d", tm.Threshold(CCR2))
		}
		tm.DisarmChannel(CCR2)
		if tm.CompareControl(CCR2).InterruptEnabled() {
			t.Error("Disarmed channel should have CCIE clear")
		}
		if tm.Threshold(CCR2) != 4000 {
			t.Error("Disarming must not touch the threshold")
		}
	})
}

func TestCompareControlFlag(t *testing.T) {
	resetForTest(t)
	r := &DeviceRegisters().Timer0
	r.TACCTL[CCR1].Set(CCIE | CCIFG)

	Free(func(cs CriticalSection) {
		cc := Timer0.Borrow(cs).CompareControl(CCR1)
		if !cc.MatchPending() {
			t.Fatal("Expected match pending")
		}
		cc.ClearMatch()
		if cc.MatchPending() {
			t.Error("ClearMatch left the flag set")
		}
		if !cc.InterruptEnabled() {
			t.Error("ClearMatch must not touch CCIE")
		}
	})
}

func TestClockSelection(t *testing.T) {
	testCases := []struct {
		name   string
		clock  ClockConfig
		source ClockSource
		div    Divider
		wantHz uint32
	}{
		{"stock VLO/2", ClockConfig{LFXT1: LFXT1VLO, ACLKDivider: Div2}, ClockACLK, Div1, 6000},
		{"crystal/1 timer/8", ClockConfig{LFXT1: LFXT1Crystal}, ClockACLK, Div8, 4096},
		{"SMCLK/2", ClockConfig{SMCLKDivider: Div2}, ClockSMCLK, Div1, 550000},
		{"external TACLK", ClockConfig{}, ClockTACLK, Div1, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resetForTest(t)
			Free(func(cs CriticalSection) {
				Clock.Borrow(cs).Configure(tc.clock)
				Timer0.Borrow(cs).Configure(5000, tc.source, tc.div)
			})
			if got := TickHz(); got != tc.wantHz {
				t.Errorf("Expected %d Hz, got %d", tc.wantHz, got)
			}
		})
	}
}

func TestClockRegisterBits(t *testing.T) {
	resetForTest(t)
	Free(func(cs CriticalSection) {
		Clock.Borrow(cs).Configure(ClockConfig{LFXT1: LFXT1VLO, ACLKDivider: Div2, SMCLKDivider: Div4})
	})

	r := &DeviceRegisters().Clock
	if got := r.BCSCTL3.Get(); got != 0x20 {
		t.Errorf("Expected BCSCTL3 LFXT1S_2 (0x20), got 0x%02X", got)
	}
	if got := r.BCSCTL1.Get(); got != 0x10 {
		t.Errorf("Expected BCSCTL1 DIVA_1 (0x10), got 0x%02X", got)
	}
	if got := r.BCSCTL2.Get(); got != 0x04 {
		t.Errorf("Expected BCSCTL2 DIVS_2 (0x04), got 0x%02X", got)
	}
}

func TestWatchdogHold(t *testing.T) {
	resetForTest(t)
	Free(func(cs CriticalSection) {
		w := Watchdog.Borrow(cs)
		if w.Held() {
			t.Error("Watchdog should run from reset")
		}
		w.Hold()
		if !w.Held() {
			t.Error("Hold did not stop the watchdog")
		}
	})
	if got := DeviceRegisters().Watchdog.WDTCTL.Get(); got != 0x5A80 {
		t.Errorf("Expected WDTCTL 0x5A80, got 0x%04X", got)
	}
}
