package trace

import (
	"image"

	"github.com/fogleman/gg"

	"ccrblink/core"
)

const (
	plotMargin = 40.0
	laneHeight = 30.0
)

// Layout maps ticks and levels onto image coordinates
type Layout struct {
	Width, Height int
	End           uint64
}

// X returns the horizontal position of tick
func (l Layout) X(tick uint64) float64 {
	span := float64(l.Width) - 2*plotMargin
	if l.End == 0 {
		return plotMargin
	}
	return plotMargin + span*float64(tick)/float64(l.End)
}

// Y returns the vertical position of a lane at level
func (l Layout) Y(lane int, level bool) float64 {
	laneSpace := (float64(l.Height) - 2*plotMargin) / core.NumCompareChannels
	base := plotMargin + laneSpace*float64(lane) + laneSpace/2 + laneHeight/2
	if level {
		return base - laneHeight
	}
	return base
}

// Layout returns the geometry Render uses for a width x height image
func (t *Trace) Layout(width, height int) Layout {
	return Layout{Width: width, Height: height, End: t.End()}
}

// Render draws a timing diagram of both outputs with wrap markers
func (t *Trace) Render(width, height int) image.Image {
	l := t.Layout(width, height)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Wrap markers
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(1)
	for w := 0; w <= t.Wraps; w++ {
		x := l.X(uint64(w) * uint64(t.Wrap))
		dc.DrawLine(x, plotMargin/2, x, float64(height)-plotMargin/2)
		dc.Stroke()
	}

	colors := [core.NumCompareChannels][3]float64{
		{0.8, 0.1, 0.1},
		{0.1, 0.5, 0.1},
	}
	for lane := 0; lane < core.NumCompareChannels; lane++ {
		ch := core.Channel(lane + 1)
		level := t.InitialLevel(ch)
		x := l.X(0)

		c := colors[lane]
		dc.SetRGB(c[0], c[1], c[2])
		dc.SetLineWidth(2)
		dc.MoveTo(x, l.Y(lane, level))
		for _, e := range t.Toggles(ch) {
			x = l.X(e.Tick)
			dc.LineTo(x, l.Y(lane, level))
			level = e.Level
			dc.LineTo(x, l.Y(lane, level))
		}
		dc.LineTo(l.X(l.End), l.Y(lane, level))
		dc.Stroke()

		dc.DrawString("CCR"+string(rune('0'+lane+1)), 4, l.Y(lane, false))
	}
	return dc.Image()
}

// SavePNG renders the diagram to path
func (t *Trace) SavePNG(path string, width, height int) error {
	return gg.SavePNG(path, t.Render(width, height))
}
