//go:build !tinygo

package core

// Register8 is a memory-backed 8-bit register for host builds. The method
// set matches runtime/volatile.Register8 so the same core code runs under
// TinyGo against real or emulated peripherals.
type Register8 struct {
	Reg uint8
}

func (r *Register8) Get() uint8 {
	return r.Reg
}

func (r *Register8) Set(value uint8) {
	r.Reg = value
}

func (r *Register8) SetBits(value uint8) {
	r.Reg |= value
}

func (r *Register8) ClearBits(value uint8) {
	r.Reg &^= value
}

func (r *Register8) HasBits(value uint8) bool {
	return r.Reg&value > 0
}

// ReplaceBits replaces the masked field at bit position pos with value.
func (r *Register8) ReplaceBits(value uint8, mask uint8, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}

// Register16 is the 16-bit counterpart of Register8.
type Register16 struct {
	Reg uint16
}

func (r *Register16) Get() uint16 {
	return r.Reg
}

func (r *Register16) Set(value uint16) {
	r.Reg = value
}

func (r *Register16) SetBits(value uint16) {
	r.Reg |= value
}

func (r *Register16) ClearBits(value uint16) {
	r.Reg &^= value
}

func (r *Register16) HasBits(value uint16) bool {
	return r.Reg&value > 0
}

func (r *Register16) ReplaceBits(value uint16, mask uint16, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}
