// Package trace rebuilds the output waveforms from handler events and
// summarizes their timing.
package trace

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"ccrblink/core"
)

// Edge is one output transition at an absolute counter tick
type Edge struct {
	Tick    uint64
	Channel core.Channel
	Level   bool
}

// Trace accumulates events from one run. Counts are turned into absolute
// ticks using the wrap value, so events must carry cycle numbers (the wrap
// interrupt has to be enabled).
type Trace struct {
	Wrap    uint16
	TickHz  uint32
	Initial [core.NumCompareChannels]bool

	Edges    []Edge
	Wraps    int
	Spurious int
}

// New creates an empty trace for a timer wrapping at wrap
func New(wrap uint16, tickHz uint32, initial [core.NumCompareChannels]bool) *Trace {
	return &Trace{Wrap: wrap, TickHz: tickHz, Initial: initial}
}

// Tick returns the absolute tick at which ev happened
func (t *Trace) Tick(ev core.MatchEvent) uint64 {
	return uint64(ev.Cycle)*uint64(t.Wrap) + uint64(ev.Count)
}

// Add records ev
func (t *Trace) Add(ev core.MatchEvent) {
	switch ev.Kind {
	case core.EventMatch:
		t.Edges = append(t.Edges, Edge{Tick: t.Tick(ev), Channel: ev.Channel, Level: ev.Level})
	case core.EventWrap:
		t.Wraps++
	case core.EventSpurious:
		t.Spurious++
	}
}

// End returns the last tick covered by the trace
func (t *Trace) End() uint64 {
	end := uint64(t.Wraps) * uint64(t.Wrap)
	if n := len(t.Edges); n > 0 && t.Edges[n-1].Tick > end {
		end = t.Edges[n-1].Tick
	}
	return end
}

// Toggles returns the edges of ch in order
func (t *Trace) Toggles(ch core.Channel) []Edge {
	var edges []Edge
	for _, e := range t.Edges {
		if e.Channel == ch {
			edges = append(edges, e)
		}
	}
	return edges
}

// InitialLevel returns the level of ch before its first recorded toggle
func (t *Trace) InitialLevel(ch core.Channel) bool {
	for _, e := range t.Edges {
		if e.Channel == ch {
			return !e.Level
		}
	}
	return t.Initial[ch-1]
}

// Intervals returns the ticks between successive toggles of ch
func (t *Trace) Intervals(ch core.Channel) []float64 {
	edges := t.Toggles(ch)
	if len(edges) < 2 {
		return nil
	}
	out := make([]float64, 0, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		out = append(out, float64(edges[i].Tick-edges[i-1].Tick))
	}
	return out
}

// Stats summarizes one channel
type Stats struct {
	Channel core.Channel
	Toggles int

	// MeanTicks and StdDevTicks describe the interval between toggles,
	// which is half the output period.
	MeanTicks   float64
	StdDevTicks float64

	// PeriodSeconds is the full output period, 0 when the tick rate is
	// unknown.
	PeriodSeconds float64
}

// Stats computes timing statistics for ch
func (t *Trace) Stats(ch core.Channel) Stats {
	s := Stats{Channel: ch, Toggles: len(t.Toggles(ch))}
	intervals := t.Intervals(ch)
	switch len(intervals) {
	case 0:
		return s
	case 1:
		s.MeanTicks = intervals[0]
	default:
		s.MeanTicks, s.StdDevTicks = stat.MeanStdDev(intervals, nil)
	}
	if t.TickHz != 0 {
		s.PeriodSeconds = 2 * s.MeanTicks / float64(t.TickHz)
	}
	return s
}

// Phase returns the mean distance in ticks from each toggle of a to the
// next toggle of b. NaN means b never followed a.
func (t *Trace) Phase(a, b core.Channel) float64 {
	var gaps []float64
	var last uint64
	var seen bool
	for _, e := range t.Edges {
		switch e.Channel {
		case a:
			last, seen = e.Tick, true
		case b:
			if seen {
				gaps = append(gaps, float64(e.Tick-last))
				seen = false
			}
		}
	}
	if len(gaps) == 0 {
		return math.NaN()
	}
	return stat.Mean(gaps, nil)
}
