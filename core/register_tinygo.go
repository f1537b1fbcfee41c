//go:build tinygo

package core

import "runtime/volatile"

// Registers are shared between the main thread and interrupt handlers, so
// every access goes through volatile loads and stores.
type (
	Register8  = volatile.Register8
	Register16 = volatile.Register16
)
