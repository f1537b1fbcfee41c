// Package config loads the controller configuration from JSON
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ccrblink/core"
)

var (
	ErrInvalidWrap      = errors.New("invalid wrap value")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidBit       = errors.New("invalid port bit")
	ErrInvalidClock     = errors.New("invalid clock selection")
	ErrInvalidDispatch  = errors.New("invalid dispatch mode")
)

// Dispatch modes
const (
	DispatchFlag  = "flag"
	DispatchRange = "range"
)

// Channel configures one compare channel and the output it toggles
type Channel struct {
	Threshold   uint16 `json:"threshold"`
	Bit         uint8  `json:"bit"`          // P1 bit toggled on match
	InitialHigh bool   `json:"initial_high"` // level before the first match
	Pin         uint32 `json:"pin"`          // physical pin on targets that mirror P1
}

// Window is a counter range used by range dispatch. Hi == 0 is open-ended.
type Window struct {
	Lo uint16 `json:"lo"`
	Hi uint16 `json:"hi"`
}

// Clock selects the timer timebase
type Clock struct {
	Source       string `json:"source"`        // "aclk" or "smclk"
	LFXT1        string `json:"lfxt1"`         // "vlo", "crystal" or "external"
	ACLKDivider  uint32 `json:"aclk_divider"`  // 1, 2, 4 or 8
	SMCLKDivider uint32 `json:"smclk_divider"` // 1, 2, 4 or 8
	TimerDivider uint32 `json:"timer_divider"` // 1, 2, 4 or 8
}

// Config is the on-disk configuration
type Config struct {
	Wrap          uint16    `json:"wrap"`
	Clock         Clock     `json:"clock"`
	Channels      []Channel `json:"channels"`
	Dispatch      string    `json:"dispatch"`
	Windows       []Window  `json:"windows"`
	WrapInterrupt bool      `json:"wrap_interrupt"`
}

// Load parses a JSON configuration, fills in defaults and validates it
func Load(jsonData []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Load(data)
}

// Default returns the stock configuration: a 5000-tick period from ACLK
// (VLO/2), CCR1 at 1000 toggling P1.0 and CCR2 at 4000 toggling P1.6.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in missing configuration values. Channels given
// explicitly are kept as written so that bad thresholds reach Validate.
func applyDefaults(cfg *Config) {
	if cfg.Wrap == 0 {
		cfg.Wrap = 5000
	}

	if cfg.Clock.Source == "" {
		cfg.Clock.Source = core.ClockACLK.String()
	}
	if cfg.Clock.LFXT1 == "" {
		cfg.Clock.LFXT1 = core.LFXT1VLO.String()
	}
	if cfg.Clock.ACLKDivider == 0 {
		cfg.Clock.ACLKDivider = 2
	}
	if cfg.Clock.SMCLKDivider == 0 {
		cfg.Clock.SMCLKDivider = 1
	}
	if cfg.Clock.TimerDivider == 0 {
		cfg.Clock.TimerDivider = 1
	}

	if len(cfg.Channels) == 0 {
		cfg.Channels = []Channel{
			{Threshold: 1000, Bit: 0, InitialHigh: true, Pin: 25},
			{Threshold: 4000, Bit: 6, InitialHigh: false, Pin: 15},
		}
	}

	if cfg.Dispatch == "" {
		cfg.Dispatch = DispatchFlag
	}
	if len(cfg.Windows) == 0 {
		def := core.DefaultRangeClassifier()
		for _, w := range def.Windows {
			cfg.Windows = append(cfg.Windows, Window{Lo: w.Lo, Hi: w.Hi})
		}
	}
}

// Validate checks the caller preconditions the firmware itself never
// checks: every threshold must sit strictly between 0 and the wrap value.
func (c *Config) Validate() error {
	if c.Wrap < 2 {
		return fmt.Errorf("%w: %d leaves no room for a threshold", ErrInvalidWrap, c.Wrap)
	}

	if len(c.Channels) != core.NumCompareChannels {
		return fmt.Errorf("%w: need exactly %d channels, got %d",
			ErrInvalidThreshold, core.NumCompareChannels, len(c.Channels))
	}
	var used uint8
	for i, ch := range c.Channels {
		if ch.Threshold == 0 || ch.Threshold >= c.Wrap {
			return fmt.Errorf("%w: channel %d threshold %d must be in (0, %d)",
				ErrInvalidThreshold, i+1, ch.Threshold, c.Wrap)
		}
		if ch.Bit > 7 {
			return fmt.Errorf("%w: channel %d bit %d", ErrInvalidBit, i+1, ch.Bit)
		}
		if used&(1<<ch.Bit) != 0 {
			return fmt.Errorf("%w: channel %d reuses bit %d", ErrInvalidBit, i+1, ch.Bit)
		}
		used |= 1 << ch.Bit
	}

	if _, err := c.clockConfig(); err != nil {
		return err
	}

	switch c.Dispatch {
	case DispatchFlag:
	case DispatchRange:
		if len(c.Windows) != core.NumCompareChannels {
			return fmt.Errorf("%w: range dispatch needs %d windows, got %d",
				ErrInvalidDispatch, core.NumCompareChannels, len(c.Windows))
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDispatch, c.Dispatch)
	}
	return nil
}

// RangeWindowsCover reports whether, under range dispatch, each channel's
// threshold falls inside its own window and no other. When it does not,
// a match goes unclassified, its flag is never cleared and the handler
// livelocks.
func (c *Config) RangeWindowsCover() bool {
	if c.Dispatch != DispatchRange {
		return true
	}
	rc := c.rangeClassifier()
	for i, ch := range c.Channels {
		m := rc.Classify(nil, ch.Threshold)
		if got, ok := m.Channel(); !ok || int(got) != i+1 {
			return false
		}
	}
	return true
}

func (c *Config) rangeClassifier() core.RangeClassifier {
	var rc core.RangeClassifier
	for i := 0; i < len(c.Windows) && i < core.NumCompareChannels; i++ {
		rc.Windows[i] = core.Window{Lo: c.Windows[i].Lo, Hi: c.Windows[i].Hi}
	}
	return rc
}

type clockSettings struct {
	clock   core.ClockConfig
	source  core.ClockSource
	divider core.Divider
}

func (c *Config) clockConfig() (clockSettings, error) {
	var s clockSettings

	switch c.Clock.Source {
	case core.ClockACLK.String():
		s.source = core.ClockACLK
	case core.ClockSMCLK.String():
		s.source = core.ClockSMCLK
	default:
		return s, fmt.Errorf("%w: timer source %q", ErrInvalidClock, c.Clock.Source)
	}

	switch c.Clock.LFXT1 {
	case core.LFXT1VLO.String():
		s.clock.LFXT1 = core.LFXT1VLO
	case core.LFXT1Crystal.String():
		s.clock.LFXT1 = core.LFXT1Crystal
	case core.LFXT1External.String():
		s.clock.LFXT1 = core.LFXT1External
	default:
		return s, fmt.Errorf("%w: lfxt1 %q", ErrInvalidClock, c.Clock.LFXT1)
	}

	var ok bool
	if s.clock.ACLKDivider, ok = core.DividerFor(c.Clock.ACLKDivider); !ok {
		return s, fmt.Errorf("%w: aclk divider %d", ErrInvalidClock, c.Clock.ACLKDivider)
	}
	if s.clock.SMCLKDivider, ok = core.DividerFor(c.Clock.SMCLKDivider); !ok {
		return s, fmt.Errorf("%w: smclk divider %d", ErrInvalidClock, c.Clock.SMCLKDivider)
	}
	if s.divider, ok = core.DividerFor(c.Clock.TimerDivider); !ok {
		return s, fmt.Errorf("%w: timer divider %d", ErrInvalidClock, c.Clock.TimerDivider)
	}
	return s, nil
}

// Core converts the configuration into what core.Init takes
func (c *Config) Core() (core.Config, error) {
	if err := c.Validate(); err != nil {
		return core.Config{}, err
	}
	clk, _ := c.clockConfig()

	out := core.Config{
		Wrap:          c.Wrap,
		Clock:         clk.clock,
		TimerClock:    clk.source,
		TimerDivider:  clk.divider,
		WrapInterrupt: c.WrapInterrupt,
	}
	for i, ch := range c.Channels {
		out.Channels[i] = core.ChannelConfig{
			Threshold:   ch.Threshold,
			Bit:         core.PortBit(ch.Bit),
			InitialHigh: ch.InitialHigh,
			Pin:         core.GPIOPin(ch.Pin),
		}
	}
	if c.Dispatch == DispatchRange {
		out.Classifier = c.rangeClassifier()
	} else {
		out.Classifier = core.FlagClassifier{}
	}
	return out, nil
}
