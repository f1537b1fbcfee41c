package protocol

import "sync/atomic"

// FrameHandler receives the payload of each valid block, in order
type FrameHandler func(seq uint8, payload []byte)

// StreamEncoder writes message blocks for a one-way telemetry stream.
// Every block carries the next sequence number so a reader can spot gaps.
type StreamEncoder struct {
	output OutputBuffer
	seq    uint32 // low 4 bits used
}

// NewStreamEncoder creates an encoder writing to output
func NewStreamEncoder(output OutputBuffer) *StreamEncoder {
	return &StreamEncoder{output: output}
}

// EncodeFrame wraps whatever frameData writes in a message block
func (e *StreamEncoder) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := e.output.CurPosition()

	seq := uint8(atomic.AddUint32(&e.seq, 1)-1)&MessageSeqMask | MessageDest
	e.output.Output([]byte{0, seq})

	frameData(e.output)

	// Update length field
	changed := len(e.output.DataSince(cursor))
	e.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(e.output.DataSince(cursor))
	e.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// Reset restarts the sequence
func (e *StreamEncoder) Reset() {
	atomic.StoreUint32(&e.seq, 0)
}

// StreamDecoder splits a byte stream into validated blocks. Corrupt or
// truncated blocks drop it out of sync until the next sync byte.
type StreamDecoder struct {
	isSynchronized uint32 // atomic bool (0 = false, 1 = true)
	handler        FrameHandler

	// Statistics
	Frames  uint32
	Resyncs uint32
}

// NewStreamDecoder creates a decoder delivering frames to handler
func NewStreamDecoder(handler FrameHandler) *StreamDecoder {
	return &StreamDecoder{
		isSynchronized: 1, // Start synchronized
		handler:        handler,
	}
}

// Receive consumes complete blocks from input and leaves any partial
// block in place for the next call.
func (d *StreamDecoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !d.getSynchronized() {
			// Look for sync byte to resynchronize
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				data = data[syncPos+1:]
				d.setSynchronized(true)
				d.Resyncs++
			} else {
				// No sync byte found - discard all data
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		// Need at least minimum message length
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.setSynchronized(false)
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.setSynchronized(false)
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.setSynchronized(false)
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.setSynchronized(false)
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]
		d.Frames++
		if d.handler != nil {
			d.handler(seq&MessageSeqMask, frame)
		}
	}

	// Remove consumed bytes from input
	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// Helper methods for atomic operations
func (d *StreamDecoder) getSynchronized() bool {
	return atomic.LoadUint32(&d.isSynchronized) != 0
}

func (d *StreamDecoder) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&d.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&d.isSynchronized, 0)
	}
}
