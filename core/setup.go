package core

// ChannelConfig binds one compare channel to an output bit
type ChannelConfig struct {
	Threshold   uint16
	Bit         PortBit
	InitialHigh bool
	Pin         GPIOPin // physical pin the bit is mirrored to, if a driver is registered
}

// Config is everything Init needs. It is applied once; there is no
// reconfiguration after interrupts are unmasked.
type Config struct {
	Wrap          uint16
	Clock         ClockConfig
	TimerClock    ClockSource
	TimerDivider  Divider
	Channels      [NumCompareChannels]ChannelConfig
	Classifier    Classifier // nil selects FlagClassifier
	WrapInterrupt bool       // count cycles on the CCR0 vector
}

// Init brings the device up with interrupts masked, then unmasks them.
// The handler never observes a partially configured timer or port.
func Init(cfg Config) {
	Free(func(cs CriticalSection) {
		Watchdog.Borrow(cs).Hold()
		Clock.Borrow(cs).Configure(cfg.Clock)

		port := Port1.Borrow(cs)
		for i, ch := range cfg.Channels {
			port.Bind(ch.Bit, ch.Pin)
			port.SetDirection(ch.Bit, true)
			if ch.InitialHigh {
				port.Set(ch.Bit)
			} else {
				port.Clear(ch.Bit)
			}
			channelBits[i] = ch.Bit
		}

		if cfg.Classifier != nil {
			classifier = cfg.Classifier
		} else {
			classifier = FlagClassifier{}
		}
		cycles = 0
		resetEvents()

		t := Timer0.Borrow(cs)
		t.Configure(cfg.Wrap, cfg.TimerClock, cfg.TimerDivider)
		for i, ch := range cfg.Channels {
			t.ArmChannel(Channel(i+1), ch.Threshold)
		}
		if cfg.WrapInterrupt {
			t.EnableWrapInterrupt()
		}
		t.Start()
	})
	EnableInterrupts()
	DebugPrintln("[INIT] timer running, wrap=" + utoa(uint32(cfg.Wrap)))
}

// TickHz returns the configured counter tick rate
func TickHz() uint32 {
	var hz uint32
	Free(func(cs CriticalSection) {
		hz = Clock.Borrow(cs).TimerTickHz(Timer0.Borrow(cs))
	})
	return hz
}
