//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved CPU interrupt state
type State = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
