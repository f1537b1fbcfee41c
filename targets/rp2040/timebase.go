//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"ccrblink/sim"
)

// RP2040 TIMER peripheral. The runtime owns alarm 0; the timebase uses
// alarm 1 and its own IRQ line.
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14
	timerTIMERAWL = timerBase + 0x28
	timerINTR     = timerBase + 0x34
	timerINTESet  = timerBase + 0x2000 + 0x38 // atomic set alias of INTE

	alarmBit = 1 << 1

	// usPerSecond is the TIMER count rate
	usPerSecond = 1000000

	// fallbackTickHz paces the model when the timer runs from an external
	// clock whose rate is unknown
	fallbackTickHz = 1000

	// idlePoll is how many ticks to wait between checks of a stopped timer
	idlePoll = 1000

	// minLeadUs keeps a late deadline from being written in the past
	minLeadUs = 2
)

var (
	timerRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerAlarm1 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTESet)))
)

// Timebase advances the device model in step with wall time. Deadlines
// are derived from the total tick count, so rounding never accumulates.
type Timebase struct {
	dev     *sim.Device
	tickHz  uint64
	startUs uint32
	elapsed uint64 // ticks scheduled so far
	pending uint64 // ticks the next alarm will advance

	// Faults counts model errors; LastFault is the most recent one
	Faults    uint32
	LastFault error
}

var timebase *Timebase

// StartTimebase begins pacing dev at tickHz counter ticks per second
func StartTimebase(dev *sim.Device, tickHz uint32) *Timebase {
	if tickHz == 0 {
		tickHz = fallbackTickHz
	}
	timebase = &Timebase{
		dev:     dev,
		tickHz:  uint64(tickHz),
		startUs: timerRAWL.Get(),
	}

	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		timebase.onAlarm()
	})
	timerInte.Set(alarmBit)
	intr.Enable()

	timebase.schedule()
	return timebase
}

func (tb *Timebase) onAlarm() {
	timerIntr.Set(alarmBit) // write 1 to clear

	if err := tb.dev.Advance(tb.pending); err != nil {
		tb.Faults++
		tb.LastFault = err
	}
	tb.schedule()
}

// schedule arms the alarm for the next tick at which the model has
// something to do.
func (tb *Timebase) schedule() {
	n := uint64(tb.dev.TicksUntilEvent())
	if n == 0 {
		n = idlePoll
	}
	tb.pending = n
	tb.elapsed += n

	deadline := tb.startUs + uint32(tb.elapsed*usPerSecond/tb.tickHz)
	now := timerRAWL.Get()
	if int32(deadline-now) < minLeadUs {
		deadline = now + minLeadUs
	}
	timerAlarm1.Set(deadline)
}
