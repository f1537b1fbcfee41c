package core

import (
	"errors"

	"ccrblink/protocol"
)

// EventKind classifies entries in the event ring
type EventKind uint8

const (
	EventMatch    EventKind = 1 // a channel matched and its bit toggled
	EventWrap     EventKind = 2 // the counter wrapped (CCR0 vector)
	EventSpurious EventKind = 3 // the shared vector ran but nothing matched
)

func (k EventKind) String() string {
	switch k {
	case EventMatch:
		return "match"
	case EventWrap:
		return "wrap"
	case EventSpurious:
		return "spurious"
	}
	return "unknown"
}

// MatchEvent is what the handlers record for the idle loop to report
type MatchEvent struct {
	Kind    EventKind
	Channel Channel
	Count   uint16 // counter value the handler observed
	Level   bool   // new output level, for matches
	Cycle   uint32 // wraps counted so far
}

// EventRingSize is the number of events kept between drains
const EventRingSize = 32

var (
	eventRing    [EventRingSize]MatchEvent
	eventHead    uint8 // next write position
	eventLen     uint8
	eventDropped uint32
)

// recordEvent appends ev, overwriting the oldest entry when full. Callers
// hold a critical section.
func recordEvent(ev MatchEvent) {
	eventRing[eventHead] = ev
	eventHead = (eventHead + 1) % EventRingSize
	if eventLen < EventRingSize {
		eventLen++
	} else {
		eventDropped++
	}
}

// PopEvent removes the oldest event
func PopEvent(cs CriticalSection) (MatchEvent, bool) {
	cs.mustBeActive()
	if eventLen == 0 {
		return MatchEvent{}, false
	}
	idx := (eventHead + EventRingSize - eventLen) % EventRingSize
	eventLen--
	return eventRing[idx], true
}

// DroppedEvents returns how many events were overwritten before a drain
func DroppedEvents(cs CriticalSection) uint32 {
	cs.mustBeActive()
	return eventDropped
}

func resetEvents() {
	eventRing = [EventRingSize]MatchEvent{}
	eventHead = 0
	eventLen = 0
	eventDropped = 0
}

// Telemetry message IDs
const (
	MsgIdentify = 0
	MsgEvent    = 1
)

var ErrUnknownMessage = errors.New("unknown telemetry message")

// Identify describes the running configuration so a monitor can convert
// counts into time.
type Identify struct {
	Wrap       uint16
	TickHz     uint32
	Thresholds [NumCompareChannels]uint16
}

// EncodeIdentify writes an identify message
func EncodeIdentify(out protocol.OutputBuffer, id Identify) {
	protocol.EncodeVLQUint(out, MsgIdentify)
	protocol.EncodeVLQUint(out, uint32(id.Wrap))
	protocol.EncodeVLQUint(out, id.TickHz)
	for _, th := range id.Thresholds {
		protocol.EncodeVLQUint(out, uint32(th))
	}
}

// EncodeEvent writes an event message
func EncodeEvent(out protocol.OutputBuffer, ev MatchEvent) {
	var level uint32
	if ev.Level {
		level = 1
	}
	protocol.EncodeVLQUint(out, MsgEvent)
	protocol.EncodeVLQUint(out, uint32(ev.Kind))
	protocol.EncodeVLQUint(out, uint32(ev.Channel))
	protocol.EncodeVLQUint(out, uint32(ev.Count))
	protocol.EncodeVLQUint(out, level)
	protocol.EncodeVLQUint(out, ev.Cycle)
}

// DecodeMessage decodes one message from data, advancing it. Exactly one
// of the returned pointers is non-nil on success.
func DecodeMessage(data *[]byte) (*Identify, *MatchEvent, error) {
	msgID, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return nil, nil, err
	}

	var fields [5]uint32
	switch msgID {
	case MsgIdentify:
		for i := 0; i < 2+NumCompareChannels; i++ {
			if fields[i], err = protocol.DecodeVLQUint(data); err != nil {
				return nil, nil, err
			}
		}
		id := &Identify{Wrap: uint16(fields[0]), TickHz: fields[1]}
		for i := range id.Thresholds {
			id.Thresholds[i] = uint16(fields[2+i])
		}
		return id, nil, nil

	case MsgEvent:
		for i := range fields {
			if fields[i], err = protocol.DecodeVLQUint(data); err != nil {
				return nil, nil, err
			}
		}
		return nil, &MatchEvent{
			Kind:    EventKind(fields[0]),
			Channel: Channel(fields[1]),
			Count:   uint16(fields[2]),
			Level:   fields[3] != 0,
			Cycle:   fields[4],
		}, nil
	}
	return nil, nil, ErrUnknownMessage
}
