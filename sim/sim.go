// Package sim models the Timer0_A3, watchdog and interrupt controller that
// the firmware core drives. It owns the hardware side of the register file:
// it advances the counter, raises match flags and delivers vectors through
// the core vector table whenever the Global Interrupt Mask allows it.
package sim

import (
	"errors"
	"fmt"
	"math"

	"ccrblink/core"
)

var (
	// ErrWatchdogReset means the device restarted; all state is lost.
	ErrWatchdogReset = errors.New("sim: watchdog reset")

	// ErrLivelock means a handler returned with its vector still pending
	// too many times in a row, usually because a match flag was not cleared.
	ErrLivelock = errors.New("sim: interrupt livelock")
)

const (
	// DefaultWatchdogInterval is the watchdog period in steps
	DefaultWatchdogInterval = 32768

	// MaxRedeliveries bounds back-to-back deliveries within one step
	MaxRedeliveries = 16
)

// Device is the hardware model. Each Step is one counter tick.
type Device struct {
	regs *core.Registers

	// WatchdogInterval is how many steps an unheld watchdog survives
	WatchdogInterval uint32

	ticks       uint64
	watchdogAge uint32
	resets      int
	delivered   [core.NumVectors]uint64
}

// New returns a model bound to the core register file
func New() *Device {
	return &Device{
		regs:             core.DeviceRegisters(),
		WatchdogInterval: DefaultWatchdogInterval,
	}
}

// Ticks returns the number of steps taken
func (d *Device) Ticks() uint64 {
	return d.ticks
}

// Resets returns how many watchdog resets have happened
func (d *Device) Resets() int {
	return d.resets
}

// Delivered returns how many times v has been entered
func (d *Device) Delivered(v core.Vector) uint64 {
	return d.delivered[v]
}

// Step advances the device by one counter tick and delivers whatever
// interrupts that raised.
func (d *Device) Step() error {
	d.ticks++
	if err := d.ageWatchdog(); err != nil {
		return err
	}
	d.countTimer()
	return d.deliver()
}

// Advance runs n steps, skipping quiet stretches in one jump
func (d *Device) Advance(n uint64) error {
	for n > 0 {
		if skip := d.quietTicks(); skip > 0 {
			if skip > n {
				skip = n
			}
			if d.upMode() {
				t := &d.regs.Timer0
				t.TAR.Set(t.TAR.Get() + uint16(skip))
			}
			d.ticks += skip
			n -= skip
			continue
		}
		if err := d.Step(); err != nil {
			return err
		}
		n--
	}
	return nil
}

// TicksUntilEvent returns how many steps until the counter next reaches a
// compare value or wraps. It returns 0 while the timer is stopped.
func (d *Device) TicksUntilEvent() uint32 {
	t := &d.regs.Timer0
	if !d.upMode() {
		return 0
	}
	wrap := uint32(t.TACCR[core.CCR0].Get())
	count := uint32(t.TAR.Get())
	if wrap == 0 || count >= wrap {
		return 1
	}

	next := wrap - count
	for ch := core.CCR1; ch <= core.CCR2; ch++ {
		th := uint32(t.TACCR[ch].Get())
		if th >= wrap {
			continue
		}
		var dist uint32
		if th > count {
			dist = th - count
		} else {
			dist = th + wrap - count
		}
		if dist < next {
			next = dist
		}
	}
	return next
}

// quietTicks returns how many steps can be skipped without anything
// observable happening.
func (d *Device) quietTicks() uint64 {
	if !d.watchdogHeld() || d.regs.Timer0.TACTL.HasBits(core.TACLR) {
		return 0
	}
	if _, ok := d.pending(); ok && core.InterruptsEnabled() {
		return 0
	}
	if !d.upMode() {
		return math.MaxUint64
	}
	until := d.TicksUntilEvent()
	if until <= 1 {
		return 0
	}
	return uint64(until - 1)
}

func (d *Device) upMode() bool {
	return core.ModeOf(d.regs.Timer0.TACTL.Get()) == core.ModeUp
}

func (d *Device) watchdogHeld() bool {
	return d.regs.Watchdog.WDTCTL.HasBits(core.WDTHOLD)
}

func (d *Device) ageWatchdog() error {
	ctl := d.regs.Watchdog.WDTCTL.Get()
	if ctl != 0 && ctl&core.WDTPWMask != core.WDTPW {
		d.reset()
		return fmt.Errorf("%w: bad password in WDTCTL 0x%04X", ErrWatchdogReset, ctl)
	}
	if ctl&core.WDTHOLD != 0 {
		d.watchdogAge = 0
		return nil
	}
	d.watchdogAge++
	if d.watchdogAge >= d.WatchdogInterval {
		d.reset()
		return fmt.Errorf("%w: watchdog not held within %d ticks", ErrWatchdogReset, d.WatchdogInterval)
	}
	return nil
}

func (d *Device) reset() {
	core.ResetDevice()
	d.watchdogAge = 0
	d.resets++
}

// countTimer advances TAR in up mode and raises the flags that produces
func (d *Device) countTimer() {
	t := &d.regs.Timer0
	if t.TACTL.HasBits(core.TACLR) {
		t.TAR.Set(0)
		t.TACTL.ClearBits(core.TACLR)
	}
	if !d.upMode() {
		return
	}

	next := t.TAR.Get() + 1
	if next == t.TACCR[core.CCR0].Get() {
		next = 0
		t.TACCTL[core.CCR0].SetBits(core.CCIFG)
		t.TACTL.SetBits(core.TAIFG)
	}
	t.TAR.Set(next)

	for ch := core.CCR1; ch <= core.CCR2; ch++ {
		if t.TACCR[ch].Get() == next {
			t.TACCTL[ch].SetBits(core.CCIFG)
		}
	}
}

// pending returns the highest-priority vector with an enabled, raised
// source. CCR0 outranks the shared vector.
func (d *Device) pending() (core.Vector, bool) {
	t := &d.regs.Timer0
	if isRaised(&t.TACCTL[core.CCR0]) {
		return core.VectorTimer0A0, true
	}
	for ch := core.CCR1; ch <= core.CCR2; ch++ {
		if isRaised(&t.TACCTL[ch]) {
			return core.VectorTimer0A1, true
		}
	}
	if t.TACTL.HasBits(core.TAIE) && t.TACTL.HasBits(core.TAIFG) {
		return core.VectorTimer0A1, true
	}
	return 0, false
}

func isRaised(r *core.Register16) bool {
	return r.HasBits(core.CCIE) && r.HasBits(core.CCIFG)
}

func (d *Device) deliver() error {
	for n := 0; core.InterruptsEnabled(); n++ {
		v, ok := d.pending()
		if !ok {
			return nil
		}
		if n >= MaxRedeliveries {
			return fmt.Errorf("%w: %s still pending after %d entries", ErrLivelock, v, n)
		}
		if v == core.VectorTimer0A0 {
			d.regs.Timer0.TACCTL[core.CCR0].ClearBits(core.CCIFG)
		}
		d.delivered[v]++
		core.Dispatch(v)
	}
	return nil
}
