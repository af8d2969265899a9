// Package surface defines the presentation primitives the navigator drives
// and a recording implementation used by headless playback and tests.
package surface

import (
	"context"

	"github.com/park285/cheese-diagram-player/internal/notation"
)

// Glyph is the icon on the play/pause button.
type Glyph int

const (
	GlyphNone Glyph = iota
	GlyphPlay
	GlyphPause
)

func (g Glyph) String() string {
	switch g {
	case GlyphPlay:
		return "play"
	case GlyphPause:
		return "pause"
	default:
		return "none"
	}
}

// Speed is the duration class of a rover slide.
type Speed int

const (
	SpeedFast Speed = iota
	SpeedSlow
)

func (s Speed) String() string {
	if s == SpeedSlow {
		return "slow"
	}
	return "fast"
}

// Point is a rover offset in pixels relative to the controls strip.
type Point struct {
	Top  int
	Left int
}

// Controls is the visible state of the framed diagram's buttons. Exit is
// always present.
type Controls struct {
	Back    bool
	Forward bool
	Play    Glyph
}

// Surface is the presentation layer. Only SlideRover and Scroll block; they
// return when the motion finishes or ctx ends.
type Surface interface {
	RenderBoard(ctx context.Context, diagram int, board notation.Board, label string, framed bool)
	SetSquare(ctx context.Context, diagram, cell int, asset notation.AssetKey)
	PlaceRover(ctx context.Context, diagram int, piece notation.Piece, at Point)
	SlideRover(ctx context.Context, diagram int, to Point, speed Speed) error
	ClearRover(ctx context.Context, diagram int)
	Highlight(ctx context.Context, moveID int, on bool)
	ShowControls(ctx context.Context, diagram int, c Controls)
	HideControls(ctx context.Context, diagram int)
	// ControlsOffset is the vertical page offset of a diagram's controls.
	ControlsOffset(diagram int) int
	Scroll(ctx context.Context, delta int) error
}
