package core

// TACTL fields
const (
	tactlTASSELPos = 8
	tactlIDPos     = 6
	tactlMCPos     = 4
	TACLR          = 1 << 2 // Resets TAR and the divider, self-clearing
	TAIE           = 1 << 1 // Overflow interrupt enable
	TAIFG          = 1 << 0 // Overflow flag
)

// TACCTLx fields
const (
	CCIE  = 1 << 4 // Compare interrupt enable
	CCIFG = 1 << 0 // Compare match flag
)

// TimerRegisters is the Timer0_A3 register block
type TimerRegisters struct {
	TACTL  Register16
	TAR    Register16
	TACCTL [3]Register16
	TACCR  [3]Register16
}

// ClockSource selects the timer input clock (TACTL.TASSEL)
type ClockSource uint8

const (
	ClockTACLK ClockSource = iota
	ClockACLK
	ClockSMCLK
	ClockINCLK
)

func (s ClockSource) String() string {
	switch s {
	case ClockTACLK:
		return "taclk"
	case ClockACLK:
		return "aclk"
	case ClockSMCLK:
		return "smclk"
	}
	return "inclk"
}

// Mode is the counting mode (TACTL.MC)
type Mode uint8

const (
	ModeStop Mode = iota
	// ModeUp counts 0 .. TACCR0-1 and then returns to 0
	ModeUp
	ModeContinuous
	ModeUpDown
)

// ModeOf decodes the MC field of a raw TACTL value
func ModeOf(tactl uint16) Mode {
	return Mode((tactl >> tactlMCPos) & fieldMask2)
}

// Channel is a capture/compare unit. CCR0 holds the wrap value and has a
// dedicated vector; the others share one.
type Channel uint8

const (
	CCR0 Channel = iota
	CCR1
	CCR2
)

// NumCompareChannels is how many channels can drive outputs
const NumCompareChannels = 2

// Control is a typed view of TACTL
type Control struct {
	r *Register16
}

func (c Control) SelectClock(src ClockSource) {
	c.r.ReplaceBits(uint16(src), fieldMask2, tactlTASSELPos)
}

func (c Control) SetDivider(div Divider) {
	c.r.ReplaceBits(uint16(div), fieldMask2, tactlIDPos)
}

func (c Control) SetMode(m Mode) {
	c.r.ReplaceBits(uint16(m), fieldMask2, tactlMCPos)
}

// Clear requests a counter reset
func (c Control) Clear() {
	c.r.SetBits(TACLR)
}

func (c Control) ClockSource() ClockSource {
	return ClockSource((c.r.Get() >> tactlTASSELPos) & fieldMask2)
}

func (c Control) Divider() Divider {
	return Divider((c.r.Get() >> tactlIDPos) & fieldMask2)
}

func (c Control) Mode() Mode {
	return ModeOf(c.r.Get())
}

// CompareControl is a typed view of one TACCTLx register
type CompareControl struct {
	r *Register16
}

func (c CompareControl) EnableInterrupt() {
	c.r.SetBits(CCIE)
}

func (c CompareControl) DisableInterrupt() {
	c.r.ClearBits(CCIE)
}

func (c CompareControl) InterruptEnabled() bool {
	return c.r.HasBits(CCIE)
}

// MatchPending reports the hardware-set match flag
func (c CompareControl) MatchPending() bool {
	return c.r.HasBits(CCIFG)
}

// ClearMatch acknowledges a match. A pending, enabled flag that is never
// cleared re-enters the handler as soon as it returns.
func (c CompareControl) ClearMatch() {
	c.r.ClearBits(CCIFG)
}

// TimerA is the timer/counter engine: a free-running up-counter that wraps
// at CCR0 and two compare channels armed against it.
type TimerA struct {
	r *TimerRegisters
}

func (t *TimerA) Control() Control {
	return Control{r: &t.r.TACTL}
}

func (t *TimerA) CompareControl(ch Channel) CompareControl {
	return CompareControl{r: &t.r.TACCTL[ch]}
}

// Configure stops the timer, sets the wrap value and selects its clock.
// It must run before any channel is armed.
func (t *TimerA) Configure(wrap uint16, src ClockSource, div Divider) {
	ctl := t.Control()
	ctl.SetMode(ModeStop)
	t.r.TACCR[CCR0].Set(wrap)
	ctl.SelectClock(src)
	ctl.SetDivider(div)
	ctl.Clear()
}

// ArmChannel sets the threshold of ch and enables its match interrupt.
// Callers guarantee 0 < threshold < wrap; nothing here checks it. A
// threshold at or past the wrap value never matches.
func (t *TimerA) ArmChannel(ch Channel, threshold uint16) {
	t.r.TACCR[ch].Set(threshold)
	t.CompareControl(ch).EnableInterrupt()
}

// DisarmChannel disables the match interrupt of ch
func (t *TimerA) DisarmChannel(ch Channel) {
	t.CompareControl(ch).DisableInterrupt()
}

// EnableWrapInterrupt raises the dedicated CCR0 vector on every wrap
func (t *TimerA) EnableWrapInterrupt() {
	t.CompareControl(CCR0).EnableInterrupt()
}

// Start begins counting up to the wrap value
func (t *TimerA) Start() {
	t.Control().SetMode(ModeUp)
}

// Running reports whether the counter is counting
func (t *TimerA) Running() bool {
	return t.Control().Mode() != ModeStop
}

// Count reads the counter
func (t *TimerA) Count() uint16 {
	return t.r.TAR.Get()
}

func (t *TimerA) Wrap() uint16 {
	return t.r.TACCR[CCR0].Get()
}

func (t *TimerA) Threshold(ch Channel) uint16 {
	return t.r.TACCR[ch].Get()
}
