package core

// WDTCTL fields
const (
	WDTPW     = 0x5A00 // Password, required in the high byte of every write
	WDTPWMask = 0xFF00
	WDTHOLD   = 0x0080 // Stops the watchdog counter
)

// WatchdogRegisters is the watchdog+ register block
type WatchdogRegisters struct {
	WDTCTL Register16
}

// WatchdogTimer runs from reset and restarts the device unless it is held
// before its first interval expires.
type WatchdogTimer struct {
	r *WatchdogRegisters
}

// Hold stops the watchdog. This must be the first write after reset.
func (w *WatchdogTimer) Hold() {
	w.r.WDTCTL.Set(WDTPW | WDTHOLD)
}

// Held reports whether the watchdog is stopped
func (w *WatchdogTimer) Held() bool {
	return w.r.WDTCTL.HasBits(WDTHOLD)
}
