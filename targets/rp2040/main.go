//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"ccrblink/config"
	"ccrblink/core"
	"ccrblink/protocol"
	"ccrblink/sim"
)

//go:embed config.json
var configJSON []byte

// identifyInterval is how often the configuration is re-announced so a
// monitor can attach at any time
const identifyInterval = 2 * time.Second

var (
	outputBuffer *protocol.ScratchOutput
	encoder      *protocol.StreamEncoder
	identify     core.Identify

	// Debug counters
	framesSent               uint32
	msgerrors                uint32
	consecutiveWriteFailures uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()

	cfg, err := config.Load(configJSON)
	if err != nil {
		cfg = config.Default()
	}
	// The monitor places events in time by cycle number
	cfg.WrapInterrupt = true
	coreCfg, err := cfg.Core()
	if err != nil {
		return
	}

	core.SetGPIODriver(NewRPGPIODriver())
	core.ResetDevice()
	core.Init(coreCfg)

	identify = core.Identify{Wrap: coreCfg.Wrap, TickHz: core.TickHz()}
	for i, ch := range coreCfg.Channels {
		identify.Thresholds[i] = ch.Threshold
	}

	outputBuffer = protocol.NewScratchOutput()
	encoder = protocol.NewStreamEncoder(outputBuffer)

	tb := StartTimebase(sim.New(), identify.TickHz)

	lastIdentify := time.Now().Add(-identifyInterval)
	var reportedFaults uint32
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					outputBuffer.Reset()
				}
			}()

			if time.Since(lastIdentify) >= identifyInterval {
				sendFrame(func(o protocol.OutputBuffer) { core.EncodeIdentify(o, identify) })
				lastIdentify = time.Now()
			}

			if faults := tb.Faults; faults != reportedFaults {
				reportedFaults = faults
				core.DebugPrintln("[FAULT] " + tb.LastFault.Error())
				core.DumpEvents()
			}

			drainEvents()
		}()

		time.Sleep(time.Millisecond)
	}
}

// drainEvents sends each buffered handler event as its own block
func drainEvents() {
	for {
		var ev core.MatchEvent
		var ok bool
		core.Free(func(cs core.CriticalSection) {
			ev, ok = core.PopEvent(cs)
		})
		if !ok {
			return
		}
		sendFrame(func(o protocol.OutputBuffer) { core.EncodeEvent(o, ev) })
	}
}

func sendFrame(frame func(o protocol.OutputBuffer)) {
	encoder.EncodeFrame(frame)
	writeUSB()
}

// writeUSB flushes the output buffer. A host that is not listening must
// not stall the blinker, so failed data is dropped.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			break
		}
		written += n
	}
	if written == len(result) {
		consecutiveWriteFailures = 0
		framesSent++
	}
	outputBuffer.Reset()
}
