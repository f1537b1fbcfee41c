package core

import "testing"

func TestPortToggleRoundTrip(t *testing.T) {
	resetForTest(t)

	Free(func(cs CriticalSection) {
		p := Port1.Borrow(cs)
		p.SetDirection(0, true)
		p.SetDirection(6, true)
		p.Set(0)

		for _, bit := range []PortBit{0, 6} {
			before := p.Level(bit)
			first := p.Toggle(bit)
			if first == before {
				t.Errorf("bit %d: toggle did not change level", bit)
			}
			second := p.Toggle(bit)
			if second != before {
				t.Errorf("bit %d: two toggles should restore %v, got %v", bit, before, second)
			}
		}
	})

	regs := DeviceRegisters()
	if got := regs.Port1.PxOUT.Get(); got != 0x01 {
		t.Errorf("Expected P1OUT 0x01, got 0x%02X", got)
	}
	if got := regs.Port1.PxDIR.Get(); got != 0x41 {
		t.Errorf("Expected P1DIR 0x41, got 0x%02X", got)
	}
}

func TestPortToggleLeavesOtherBits(t *testing.T) {
	resetForTest(t)
	DeviceRegisters().Port1.PxOUT.Set(0xA5)

	Free(func(cs CriticalSection) {
		Port1.Borrow(cs).Toggle(6)
	})

	if got := DeviceRegisters().Port1.PxOUT.Get(); got != 0xE5 {
		t.Errorf("Expected only bit 6 flipped (0xE5), got 0x%02X", got)
	}
}

func TestPortDirection(t *testing.T) {
	resetForTest(t)

	Free(func(cs CriticalSection) {
		p := Port1.Borrow(cs)
		p.SetDirection(3, true)
		if !p.IsOutput(3) {
			t.Error("bit 3 should be an output")
		}
		p.SetDirection(3, false)
		if p.IsOutput(3) {
			t.Error("bit 3 should be an input again")
		}
	})
}

func TestPortMirrorsBoundBits(t *testing.T) {
	resetForTest(t)
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)

	Free(func(cs CriticalSection) {
		p := Port1.Borrow(cs)
		p.Bind(0, 25)
		p.SetDirection(0, true)
		p.SetDirection(1, true) // not bound
		p.Set(0)
		p.Set(1)
		p.Toggle(0)
	})

	if !mock.outputs[25] {
		t.Error("Bound pin 25 should be configured as output")
	}
	if len(mock.outputs) != 1 {
		t.Errorf("Only the bound pin should be configured, got %v", mock.outputs)
	}
	if mock.pins[25] {
		t.Error("Pin 25 should be low after set then toggle")
	}
	if mock.writes != 2 {
		t.Errorf("Expected 2 pin writes, got %d", mock.writes)
	}
}
