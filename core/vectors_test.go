package core

import "testing"

func TestVectorTableWiring(t *testing.T) {
	for v := Vector(0); v < NumVectors; v++ {
		if vectorTable[v] == nil {
			t.Errorf("Vector %v has no handler", v)
		}
	}
}

func TestDispatchMasksInterrupts(t *testing.T) {
	resetForTest(t)
	EnableInterrupts()

	saved := vectorTable[VectorTimer0A1]
	t.Cleanup(func() { vectorTable[VectorTimer0A1] = saved })

	var maskedInside bool
	vectorTable[VectorTimer0A1] = func() {
		maskedInside = !InterruptsEnabled()
	}
	Dispatch(VectorTimer0A1)

	if !maskedInside {
		t.Error("Handler ran with interrupts unmasked")
	}
	if !InterruptsEnabled() {
		t.Error("Dispatch did not restore the interrupt mask")
	}
}

func TestDispatchOutOfRange(t *testing.T) {
	resetForTest(t)
	Dispatch(NumVectors) // must not panic
	Dispatch(Vector(200))
}

func TestInitUnmasksLast(t *testing.T) {
	resetForTest(t)
	if InterruptsEnabled() {
		t.Fatal("Interrupts should be masked from reset")
	}

	Init(stockConfig(nil))

	if !InterruptsEnabled() {
		t.Error("Init should leave interrupts unmasked")
	}
	r := DeviceRegisters()
	if got := r.Watchdog.WDTCTL.Get(); got != WDTPW|WDTHOLD {
		t.Errorf("Watchdog not held: WDTCTL 0x%04X", got)
	}
	if got := r.Port1.PxDIR.Get(); got != 0x41 {
		t.Errorf("Expected P1DIR 0x41, got 0x%02X", got)
	}
	if got := r.Port1.PxOUT.Get(); got != 0x01 {
		t.Errorf("Expected P1OUT 0x01, got 0x%02X", got)
	}
	if got := TickHz(); got != 6000 {
		t.Errorf("Expected 6000 Hz tick, got %d", got)
	}
	Free(func(cs CriticalSection) {
		tm := Timer0.Borrow(cs)
		if tm.Control().Mode() != ModeUp {
			t.Error("Timer should be counting up")
		}
		if tm.Wrap() != 5000 || tm.Threshold(CCR1) != 1000 || tm.Threshold(CCR2) != 4000 {
			t.Error("Compare registers not loaded")
		}
	})
}
