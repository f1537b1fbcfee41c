package core

// Vector identifies a hardware interrupt entry point
type Vector uint8

const (
	VectorTimer0A0 Vector = iota // CCR0 (wrap), dedicated
	VectorTimer0A1               // CCR1, CCR2 and TAIFG, shared
	NumVectors
)

func (v Vector) String() string {
	switch v {
	case VectorTimer0A0:
		return "TIMER0_A0"
	case VectorTimer0A1:
		return "TIMER0_A1"
	}
	return "unknown"
}

// vectorTable is fixed at build time; there is no runtime registration.
var vectorTable = [NumVectors]func(){
	VectorTimer0A0: handleWrap,
	VectorTimer0A1: handleCompare,
}

// Dispatch enters the handler for v the way the CPU does: interrupts are
// masked while it runs and the prior mask is restored on return.
func Dispatch(v Vector) {
	if v >= NumVectors {
		return
	}
	state, prev := maskInterrupts()
	defer unmaskInterrupts(state, prev)
	vectorTable[v]()
}
