//go:build rp2040

package main

import (
	"machine"

	"ccrblink/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART0 on GPIO0 (TX) and
// GPIO1 (RX) at 115200 baud, keeping USB for telemetry only.
func InitDebugUART() {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}
	debugUART = uart

	core.SetDebugWriter(debugPrintln)
	core.SetDebugEnabled(true)
	debugPrintln("=== ccrblink debug UART ===")
}

func debugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
