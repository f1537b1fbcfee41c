package core

// PortRegisters is one digital I/O port (P1 on the device)
type PortRegisters struct {
	PxIN  Register8
	PxOUT Register8
	PxDIR Register8 // 1 = output
}

// PortBit is a bit index within a port
type PortBit uint8

func (b PortBit) mask() uint8 {
	return 1 << (b & 7)
}

// Port exposes bit-level direction and output control. It does no bounds
// checking; callers only address bits they configured as outputs.
type Port struct {
	r     *PortRegisters
	pins  [8]GPIOPin
	bound uint8 // bits mirrored onto physical pins
}

// Bind mirrors bit onto a physical pin through the registered GPIODriver.
func (p *Port) Bind(bit PortBit, pin GPIOPin) {
	p.pins[bit&7] = pin
	p.bound |= bit.mask()
}

// SetDirection configures bit as an output (or input)
func (p *Port) SetDirection(bit PortBit, output bool) {
	if output {
		p.r.PxDIR.SetBits(bit.mask())
		if gpioDriver != nil && p.bound&bit.mask() != 0 {
			_ = gpioDriver.ConfigureOutput(p.pins[bit&7])
		}
	} else {
		p.r.PxDIR.ClearBits(bit.mask())
	}
}

// IsOutput reports the configured direction of bit
func (p *Port) IsOutput(bit PortBit) bool {
	return p.r.PxDIR.HasBits(bit.mask())
}

// Set drives bit high
func (p *Port) Set(bit PortBit) {
	p.r.PxOUT.SetBits(bit.mask())
	p.mirror(bit, true)
}

// Clear drives bit low
func (p *Port) Clear(bit PortBit) {
	p.r.PxOUT.ClearBits(bit.mask())
	p.mirror(bit, false)
}

// Toggle inverts bit and returns the new level. The read and the write
// happen back to back; callers hold a critical section.
func (p *Port) Toggle(bit PortBit) bool {
	level := !p.Level(bit)
	if level {
		p.r.PxOUT.SetBits(bit.mask())
	} else {
		p.r.PxOUT.ClearBits(bit.mask())
	}
	p.mirror(bit, level)
	return level
}

// Level returns the driven level of bit
func (p *Port) Level(bit PortBit) bool {
	return p.r.PxOUT.HasBits(bit.mask())
}

func (p *Port) mirror(bit PortBit, level bool) {
	if gpioDriver == nil || p.bound&bit.mask() == 0 {
		return
	}
	_ = gpioDriver.SetPin(p.pins[bit&7], level)
}
