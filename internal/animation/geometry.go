package animation

import (
	"time"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/surface"
)

// Geometry maps squares to rover offsets. The rover sits in the controls
// strip under the board, so tops are negative.
type Geometry struct {
	Stride   int
	TopBase  int
	LeftBase int
}

func DefaultGeometry() Geometry {
	return Geometry{Stride: 36, TopBase: 45, LeftBase: -73}
}

// Point is the rover offset that covers square c.
func (g Geometry) Point(c notation.Coord) surface.Point {
	return surface.Point{
		Top:  -(g.TopBase + g.Stride*c.Rank),
		Left: g.LeftBase + g.Stride*c.File,
	}
}

// Coord is the inverse of Point for offsets that land on a square.
func (g Geometry) Coord(p surface.Point) (notation.Coord, bool) {
	if g.Stride <= 0 {
		return notation.Coord{}, false
	}
	top := -p.Top - g.TopBase
	left := p.Left - g.LeftBase
	if top%g.Stride != 0 || left%g.Stride != 0 {
		return notation.Coord{}, false
	}
	c := notation.Coord{File: left / g.Stride, Rank: top / g.Stride}
	return c, c.Valid()
}

// Squares converts a rover offset to fractional file and rank, so offsets
// between squares stay meaningful.
func (g Geometry) Squares(p surface.Point) (file, rank float64) {
	stride := float64(max(g.Stride, 1))
	file = float64(p.Left-g.LeftBase) / stride
	rank = float64(-p.Top-g.TopBase) / stride
	return file, rank
}

// Along is where the rover stands after fraction t of path, in squares.
// t is clamped to [0, 1].
func (g Geometry) Along(path Path, t float64) (file, rank float64) {
	t = min(max(t, 0), 1)
	f0, r0 := g.Squares(path.From)
	f1, r1 := g.Squares(path.To)
	return f0 + (f1-f0)*t, r0 + (r1-r0)*t
}

// Axis is the direction of a slide.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
	AxisBoth
)

func (a Axis) String() string {
	switch a {
	case AxisVertical:
		return "vertical"
	case AxisHorizontal:
		return "horizontal"
	default:
		return "both"
	}
}

// Path is a planned rover slide.
type Path struct {
	Move  notation.Move
	From  surface.Point
	To    surface.Point
	Axis  Axis
	Speed surface.Speed
}

// Plan lays out the slide for a decoded move. Autoplay uses the slow speed.
func (g Geometry) Plan(mv notation.Move, playing bool) Path {
	p := Path{
		Move:  mv,
		From:  g.Point(mv.From),
		To:    g.Point(mv.To),
		Speed: surface.SpeedFast,
	}
	switch {
	case mv.SameFile():
		p.Axis = AxisVertical
		p.To.Left = p.From.Left
	case mv.SameRank():
		p.Axis = AxisHorizontal
		p.To.Top = p.From.Top
	default:
		p.Axis = AxisBoth
	}
	if playing {
		p.Speed = surface.SpeedSlow
	}
	return p
}

// Timing holds every delay of a playback sequence.
type Timing struct {
	Settle        time.Duration // after a scroll, before the slide
	AutoplayPause time.Duration // between autoplay steps
	Fast          time.Duration
	Slow          time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Settle:        time.Second,
		AutoplayPause: 500 * time.Millisecond,
		Fast:          200 * time.Millisecond,
		Slow:          600 * time.Millisecond,
	}
}

// SlideDuration resolves a speed class.
func (t Timing) SlideDuration(s surface.Speed) time.Duration {
	if s == surface.SpeedSlow {
		return t.Slow
	}
	return t.Fast
}
