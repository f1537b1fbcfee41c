package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call it from a handler; writers may block.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// FormatEvent renders ev without fmt, for firmware debug output
func FormatEvent(ev MatchEvent) string {
	s := "[EVT] " + ev.Kind.String() +
		" cycle=" + utoa(ev.Cycle) +
		" count=" + utoa(uint32(ev.Count))
	if ev.Kind == EventMatch {
		s += " ch=" + utoa(uint32(ev.Channel))
		if ev.Level {
			s += " level=1"
		} else {
			s += " level=0"
		}
	}
	return s
}

// DumpEvents writes the buffered events, oldest first, without consuming
// them. Call it from the idle loop or after a fault.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	var snapshot [EventRingSize]MatchEvent
	var n, dropped uint32
	Free(func(cs CriticalSection) {
		start := (eventHead + EventRingSize - eventLen) % EventRingSize
		for i := uint8(0); i < eventLen; i++ {
			snapshot[i] = eventRing[(start+i)%EventRingSize]
		}
		n = uint32(eventLen)
		dropped = eventDropped
	})

	debugPrintln("[EVT] === Event Ring Dump ===")
	for i := uint32(0); i < n; i++ {
		debugPrintln(FormatEvent(snapshot[i]))
	}
	debugPrintln("[EVT] dropped=" + utoa(dropped))
	debugPrintln("[EVT] === End Dump ===")
}
