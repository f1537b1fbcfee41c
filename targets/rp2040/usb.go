//go:build rp2040

package main

import (
	"errors"
	"machine"
)

var errPinNotConfigured = errors.New("pin not configured as output")

// InitUSB configures machine.Serial, which is USB CDC on the RP2040
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
