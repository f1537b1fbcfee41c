package core

// Registers is the device register file, laid out as the MSP430G2553
// peripherals the firmware drives. On the host it is plain memory that the
// hardware model in package sim operates on.
type Registers struct {
	Watchdog WatchdogRegisters
	Clock    ClockRegisters
	Port1    PortRegisters
	Timer0   TimerRegisters
}

var deviceRegisters Registers

// Peripheral handles. Each one can only be borrowed inside Free.
var (
	Watchdog = Shared[WatchdogTimer]{v: &WatchdogTimer{r: &deviceRegisters.Watchdog}}
	Clock    = Shared[ClockModule]{v: &ClockModule{r: &deviceRegisters.Clock}}
	Port1    = Shared[Port]{v: &Port{r: &deviceRegisters.Port1}}
	Timer0   = Shared[TimerA]{v: &TimerA{r: &deviceRegisters.Timer0}}
)

// DeviceRegisters returns the raw register file. Only hardware glue (the
// simulator and target drivers) should touch it directly.
func DeviceRegisters() *Registers {
	return &deviceRegisters
}

// ResetDevice restores power-on state: registers cleared, interrupts
// masked, handler state and the event ring emptied.
func ResetDevice() {
	deviceRegisters = Registers{}
	Port1.v.bound = 0
	resetInterruptMask()
	resetHandlers()
	resetEvents()
}
