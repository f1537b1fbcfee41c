// Package protocol implements the telemetry framing the firmware uses to
// report events: VLQ-encoded integers inside length/sequence/CRC16/sync
// message blocks, the same block format Klipper uses on its serial link.
package protocol

// Version represents the telemetry format version
const Version = "0.1.0"

// Message block layout
const (
	MessageMax         = 512 // Scratch output capacity
	MessageHeaderSize  = 2   // length, sequence
	MessageTrailerSize = 3   // crc16 high, crc16 low, sync
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)
