package core

// Basic Clock Module+ field positions
const (
	bcsctl1DIVAPos   = 4
	bcsctl2DIVSPos   = 1
	bcsctl3LFXT1SPos = 4
	fieldMask2       = 0x3
)

// Nominal oscillator frequencies
const (
	VLOHz     = 12000   // Internal very-low-power oscillator
	LFXT1Hz   = 32768   // Watch crystal on LFXT1
	DCOHz     = 1100000 // DCO after reset calibration
	unknownHz = 0
)

// ClockRegisters is the Basic Clock Module+ register block
type ClockRegisters struct {
	BCSCTL1 Register8
	BCSCTL2 Register8
	BCSCTL3 Register8
}

// LFXT1Source selects what drives ACLK (BCSCTL3.LFXT1S)
type LFXT1Source uint8

const (
	LFXT1Crystal  LFXT1Source = 0
	LFXT1VLO      LFXT1Source = 2
	LFXT1External LFXT1Source = 3
)

func (s LFXT1Source) String() string {
	switch s {
	case LFXT1Crystal:
		return "crystal"
	case LFXT1VLO:
		return "vlo"
	case LFXT1External:
		return "external"
	}
	return "reserved"
}

// Divider is a 2-bit power-of-two clock divider used by both the clock
// module and the timer input stage.
type Divider uint8

const (
	Div1 Divider = iota
	Div2
	Div4
	Div8
)

// Factor returns the division factor
func (d Divider) Factor() uint32 {
	return 1 << (d & fieldMask2)
}

// DividerFor returns the divider for factor 1, 2, 4 or 8.
func DividerFor(factor uint32) (Divider, bool) {
	switch factor {
	case 1:
		return Div1, true
	case 2:
		return Div2, true
	case 4:
		return Div4, true
	case 8:
		return Div8, true
	}
	return Div1, false
}

// ClockConfig is the one-shot clock selection
type ClockConfig struct {
	LFXT1        LFXT1Source
	ACLKDivider  Divider
	SMCLKDivider Divider
}

// ClockModule is the clock source selector. It is configured once during
// initialization, before the timer starts.
type ClockModule struct {
	r *ClockRegisters
}

// Configure applies cfg
func (c *ClockModule) Configure(cfg ClockConfig) {
	c.r.BCSCTL3.ReplaceBits(uint8(cfg.LFXT1), fieldMask2, bcsctl3LFXT1SPos)
	c.r.BCSCTL1.ReplaceBits(uint8(cfg.ACLKDivider), fieldMask2, bcsctl1DIVAPos)
	c.r.BCSCTL2.ReplaceBits(uint8(cfg.SMCLKDivider), fieldMask2, bcsctl2DIVSPos)
}

// Config reads back the current selection
func (c *ClockModule) Config() ClockConfig {
	return ClockConfig{
		LFXT1:        LFXT1Source((c.r.BCSCTL3.Get() >> bcsctl3LFXT1SPos) & fieldMask2),
		ACLKDivider:  Divider((c.r.BCSCTL1.Get() >> bcsctl1DIVAPos) & fieldMask2),
		SMCLKDivider: Divider((c.r.BCSCTL2.Get() >> bcsctl2DIVSPos) & fieldMask2),
	}
}

// ACLKHz returns the nominal ACLK frequency
func (c *ClockModule) ACLKHz() uint32 {
	cfg := c.Config()
	var base uint32
	switch cfg.LFXT1 {
	case LFXT1VLO:
		base = VLOHz
	case LFXT1Crystal, LFXT1External:
		base = LFXT1Hz
	default:
		return unknownHz
	}
	return base / cfg.ACLKDivider.Factor()
}

// SMCLKHz returns the nominal SMCLK frequency
func (c *ClockModule) SMCLKHz() uint32 {
	return DCOHz / c.Config().SMCLKDivider.Factor()
}

// TimerTickHz returns the counter tick rate for the timer's selected clock
// source and input divider. External sources (TACLK, INCLK) report 0.
func (c *ClockModule) TimerTickHz(t *TimerA) uint32 {
	ctl := t.Control()
	var src uint32
	switch ctl.ClockSource() {
	case ClockACLK:
		src = c.ACLKHz()
	case ClockSMCLK:
		src = c.SMCLKHz()
	default:
		return unknownHz
	}
	return src / ctl.Divider().Factor()
}
