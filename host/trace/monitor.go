package trace

import (
	"ccrblink/core"
	"ccrblink/protocol"
)

const monitorBufferSize = 4 * protocol.MessageMax

// Monitor decodes a telemetry byte stream. The first identify message
// starts a trace; events before it are counted but not traced.
type Monitor struct {
	fifo    *protocol.FifoBuffer
	decoder *protocol.StreamDecoder
	nextSeq uint8
	started bool

	Trace    *Trace
	Identify *core.Identify

	// OnEvent, if set, sees every decoded event
	OnEvent func(ev core.MatchEvent)

	Errors int // undecodable payloads
	Gaps   int // blocks missing by sequence number
}

// NewMonitor creates a monitor
func NewMonitor() *Monitor {
	m := &Monitor{fifo: protocol.NewFifoBuffer(monitorBufferSize)}
	m.decoder = protocol.NewStreamDecoder(m.handleFrame)
	return m
}

// Write feeds raw bytes. It never fails, so a Monitor can sit at the end
// of io.Copy.
func (m *Monitor) Write(p []byte) (int, error) {
	for off := 0; off < len(p); {
		off += m.fifo.Write(p[off:])
		m.decoder.Receive(m.fifo)
	}
	return len(p), nil
}

// Frames returns the number of valid blocks seen
func (m *Monitor) Frames() uint32 {
	return m.decoder.Frames
}

func (m *Monitor) handleFrame(seq uint8, payload []byte) {
	if m.started && seq != m.nextSeq {
		m.Gaps += int((seq - m.nextSeq) & protocol.MessageSeqMask)
	}
	m.started = true
	m.nextSeq = (seq + 1) & protocol.MessageSeqMask

	data := payload
	for len(data) > 0 {
		id, ev, err := core.DecodeMessage(&data)
		if err != nil {
			m.Errors++
			return
		}
		if id != nil {
			m.Identify = id
			m.Trace = New(id.Wrap, id.TickHz, [core.NumCompareChannels]bool{})
			continue
		}
		if m.Trace != nil {
			m.Trace.Add(*ev)
		}
		if m.OnEvent != nil {
			m.OnEvent(*ev)
		}
	}
}
