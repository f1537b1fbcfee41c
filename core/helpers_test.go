package core

import "testing"

// resetForTest puts the device in power-on state for one test
func resetForTest(t *testing.T) {
	t.Helper()
	ResetDevice()
	SetGPIODriver(nil)
	t.Cleanup(func() {
		ResetDevice()
		SetGPIODriver(nil)
	})
}

// stockConfig is the configuration the shipped firmware uses
func stockConfig(c Classifier) Config {
	return Config{
		Wrap:         5000,
		Clock:        ClockConfig{LFXT1: LFXT1VLO, ACLKDivider: Div2},
		TimerClock:   ClockACLK,
		TimerDivider: Div1,
		Channels: [NumCompareChannels]ChannelConfig{
			{Threshold: 1000, Bit: 0, InitialHigh: true},
			{Threshold: 4000, Bit: 6},
		},
		Classifier: c,
	}
}

// MockGPIODriver records what the port mirrors onto pins
type MockGPIODriver struct {
	outputs map[GPIOPin]bool
	pins    map[GPIOPin]bool
	writes  int
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		outputs: make(map[GPIOPin]bool),
		pins:    make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.pins[pin] = value
	m.writes++
	return nil
}
