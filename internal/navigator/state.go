package navigator

import (
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/surface"
)

// TimerKind says which delay, if any, is pending.
type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerSettle
	TimerAutoplay
)

func (k TimerKind) String() string {
	switch k {
	case TimerSettle:
		return "settle"
	case TimerAutoplay:
		return "autoplay"
	default:
		return "none"
	}
}

// State is the navigation state owned by one Controller.
type State struct {
	FramedDiagram     int
	Current           *domain.MoveNode
	Playing           bool
	ReplayingBackward bool
	BackwardToken     string
	PendingTimer      TimerKind
}

// InitialState is nothing framed, no cursor, paused.
func InitialState() State {
	return State{FramedDiagram: domain.NoDiagram}
}

// Framed reports whether any diagram is framed.
func (s State) Framed() bool { return s.FramedDiagram != domain.NoDiagram }

// Controls derives the button state of the framed diagram from the cursor.
func (s State) Controls() surface.Controls {
	if s.Current == nil {
		return surface.Controls{}
	}
	c := surface.Controls{
		Back:    !s.Current.IsInitial(),
		Forward: !s.Current.IsTerminal(),
	}
	switch {
	case s.Current.IsTerminal():
		c.Play = surface.GlyphNone
	case s.Playing:
		c.Play = surface.GlyphPause
	default:
		c.Play = surface.GlyphPlay
	}
	return c
}

// Key is a keyboard event the controller understands.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
)
