package core

import "sync/atomic"

// The Global Interrupt Mask of the emulated device. It is masked at reset,
// unmasked once by EnableInterrupts after initialization, and only ever
// re-masked for the duration of a critical section or a vector dispatch.
var (
	interruptsOn uint32 // 1 while vectors may be delivered
	unmaskedOnce uint32 // 1 after EnableInterrupts has run since reset
	sectionDepth uint8  // nesting depth of active critical sections
)

// EnableInterrupts unmasks interrupts globally. Only the first call after a
// device reset has any effect.
func EnableInterrupts() {
	if atomic.CompareAndSwapUint32(&unmaskedOnce, 0, 1) {
		atomic.StoreUint32(&interruptsOn, 1)
	}
}

// InterruptsEnabled reports whether vectors may currently be delivered.
func InterruptsEnabled() bool {
	return atomic.LoadUint32(&interruptsOn) != 0
}

// maskInterrupts masks both the CPU and the logical mask and returns what
// is needed to undo it.
func maskInterrupts() (State, uint32) {
	state := disableInterrupts()
	return state, atomic.SwapUint32(&interruptsOn, 0)
}

func unmaskInterrupts(state State, prev uint32) {
	atomic.StoreUint32(&interruptsOn, prev)
	restoreInterrupts(state)
}

func resetInterruptMask() {
	atomic.StoreUint32(&interruptsOn, 0)
	atomic.StoreUint32(&unmaskedOnce, 0)
	sectionDepth = 0
}
