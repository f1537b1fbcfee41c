package core

// Match is the outcome of classifying a shared-vector interrupt
type Match uint8

const (
	MatchNone Match = iota
	MatchChannel1
	MatchChannel2
)

// Channel returns the compare channel behind m
func (m Match) Channel() (Channel, bool) {
	switch m {
	case MatchChannel1:
		return CCR1, true
	case MatchChannel2:
		return CCR2, true
	}
	return CCR0, false
}

func (m Match) String() string {
	switch m {
	case MatchChannel1:
		return "ccr1"
	case MatchChannel2:
		return "ccr2"
	}
	return "none"
}

func matchFor(ch Channel) Match {
	switch ch {
	case CCR1:
		return MatchChannel1
	case CCR2:
		return MatchChannel2
	}
	return MatchNone
}

// Classifier decides which channel raised the shared vector. It runs
// inside the handler's critical section and must not allocate.
type Classifier interface {
	Classify(t *TimerA, count uint16) Match
}

// FlagClassifier picks the first channel whose interrupt is enabled and
// whose match flag is set, CCR1 before CCR2. A second pending channel is
// picked up when the vector is re-entered.
type FlagClassifier struct{}

func (FlagClassifier) Classify(t *TimerA, _ uint16) Match {
	for ch := CCR1; ch <= CCR2; ch++ {
		cc := t.CompareControl(ch)
		if cc.InterruptEnabled() && cc.MatchPending() {
			return matchFor(ch)
		}
	}
	return MatchNone
}

// Window is a half-open counter range [Lo, Hi). Hi == 0 leaves it open
// to the top of the count.
type Window struct {
	Lo, Hi uint16
}

func (w Window) Contains(count uint16) bool {
	return count >= w.Lo && (w.Hi == 0 || count < w.Hi)
}

// RangeClassifier infers the channel from where the counter sits when the
// handler runs. It matches the behaviour of existing field firmware but
// misclassifies as soon as thresholds move out of their windows or the
// windows overlap; an unclassified match is never cleared.
type RangeClassifier struct {
	Windows [NumCompareChannels]Window
}

// DefaultRangeClassifier returns the windows for thresholds 1000 and 4000
func DefaultRangeClassifier() RangeClassifier {
	return RangeClassifier{Windows: [NumCompareChannels]Window{
		{Lo: 1000, Hi: 2000},
		{Lo: 4000},
	}}
}

func (r RangeClassifier) Classify(_ *TimerA, count uint16) Match {
	for i, w := range r.Windows {
		if w.Contains(count) {
			return matchFor(Channel(i + 1))
		}
	}
	return MatchNone
}

// Handler state, set by Init
var (
	classifier  Classifier = FlagClassifier{}
	channelBits [NumCompareChannels]PortBit
	cycles      uint32
)

func resetHandlers() {
	classifier = FlagClassifier{}
	channelBits = [NumCompareChannels]PortBit{}
	cycles = 0
}

// handleCompare services CCR1 and CCR2 from the shared vector. The flag is
// cleared before the pin is toggled so a late re-match is not lost.
func handleCompare() {
	Free(func(cs CriticalSection) {
		t := Timer0.Borrow(cs)
		count := t.Count()
		ch, ok := classifier.Classify(t, count).Channel()
		if !ok {
			recordEvent(MatchEvent{Kind: EventSpurious, Count: count, Cycle: cycles})
			return
		}
		t.CompareControl(ch).ClearMatch()
		level := Port1.Borrow(cs).Toggle(channelBits[ch-1])
		recordEvent(MatchEvent{Kind: EventMatch, Channel: ch, Count: count, Level: level, Cycle: cycles})
	})
}

// handleWrap services the dedicated CCR0 vector. Hardware clears CCR0's
// flag when the vector is taken.
func handleWrap() {
	Free(func(cs CriticalSection) {
		count := Timer0.Borrow(cs).Count()
		cycles++
		recordEvent(MatchEvent{Kind: EventWrap, Channel: CCR0, Count: count, Cycle: cycles})
	})
}

// Cycles returns how many wraps the CCR0 vector has counted
func Cycles(cs CriticalSection) uint32 {
	cs.mustBeActive()
	return cycles
}
