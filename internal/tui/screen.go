package tui

import (
	"context"
	"sync"
	"time"

	"github.com/park285/cheese-diagram-player/internal/animation"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/surface"
)

const frameInterval = 40 * time.Millisecond

// pane is what one diagram currently shows.
type pane struct {
	board    notation.Board
	label    string
	framed   bool
	overlays map[int]notation.AssetKey
	controls *surface.Controls
}

// rover is the moving piece, positioned in fractional squares so a slide can
// be drawn between cells.
type rover struct {
	diagram int
	piece   notation.Piece
	file    float64
	rank    float64
}

// Screen is the terminal surface. The navigator writes to it from its own
// goroutines; the bubbletea model reads a snapshot when it redraws.
type Screen struct {
	geo     animation.Geometry
	timing  animation.Timing
	spacing int

	mu          sync.Mutex
	panes       map[int]*pane
	rover       *rover
	highlighted map[int]bool
	offset      int

	dirty chan struct{}
}

func NewScreen(geo animation.Geometry, timing animation.Timing, spacing int) *Screen {
	if spacing <= 0 {
		spacing = 400
	}
	return &Screen{
		geo:         geo,
		timing:      timing,
		spacing:     spacing,
		panes:       make(map[int]*pane),
		highlighted: make(map[int]bool),
		dirty:       make(chan struct{}, 1),
	}
}

// Dirty fires after any change. Bursts collapse into one signal.
func (s *Screen) Dirty() <-chan struct{} { return s.dirty }

func (s *Screen) touch() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Screen) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.touch()
}

func (s *Screen) pane(diagram int) *pane {
	p, ok := s.panes[diagram]
	if !ok {
		p = &pane{overlays: make(map[int]notation.AssetKey)}
		s.panes[diagram] = p
	}
	return p
}

func (s *Screen) RenderBoard(_ context.Context, diagram int, board notation.Board, label string, framed bool) {
	s.update(func() {
		p := s.pane(diagram)
		p.board = board
		p.label = label
		p.framed = framed
		p.overlays = make(map[int]notation.AssetKey)
	})
}

func (s *Screen) SetSquare(_ context.Context, diagram, cell int, asset notation.AssetKey) {
	s.update(func() { s.pane(diagram).overlays[cell] = asset })
}

func (s *Screen) PlaceRover(_ context.Context, diagram int, piece notation.Piece, at surface.Point) {
	file, rank := s.geo.Squares(at)
	s.update(func() { s.rover = &rover{diagram: diagram, piece: piece, file: file, rank: rank} })
}

// SlideRover moves the rover in frame steps and returns once it arrives.
func (s *Screen) SlideRover(ctx context.Context, _ int, to surface.Point, speed surface.Speed) error {
	s.mu.Lock()
	if s.rover == nil {
		s.mu.Unlock()
		return nil
	}
	startFile, startRank := s.rover.file, s.rover.rank
	s.mu.Unlock()

	endFile, endRank := s.geo.Squares(to)
	steps := max(int(s.timing.SlideDuration(speed)/frameInterval), 1)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		t := float64(i) / float64(steps)
		s.update(func() {
			if s.rover == nil {
				return
			}
			s.rover.file = startFile + (endFile-startFile)*t
			s.rover.rank = startRank + (endRank-startRank)*t
		})
	}
	return nil
}

func (s *Screen) ClearRover(context.Context, int) {
	s.update(func() { s.rover = nil })
}

func (s *Screen) Highlight(_ context.Context, moveID int, on bool) {
	s.update(func() {
		if on {
			s.highlighted[moveID] = true
		} else {
			delete(s.highlighted, moveID)
		}
	})
}

func (s *Screen) ShowControls(_ context.Context, diagram int, c surface.Controls) {
	s.update(func() { s.pane(diagram).controls = &c })
}

func (s *Screen) HideControls(_ context.Context, diagram int) {
	s.update(func() { s.pane(diagram).controls = nil })
}

func (s *Screen) ControlsOffset(diagram int) int { return diagram * s.spacing }

// Scroll jumps; the viewer has no smooth scrolling.
func (s *Screen) Scroll(ctx context.Context, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.update(func() { s.offset += delta })
	return nil
}

// view is a consistent copy of the screen for one redraw.
type view struct {
	panes       map[int]pane
	rover       *rover
	highlighted map[int]bool
	offset      int
}

func (s *Screen) snapshot() view {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := view{
		panes:       make(map[int]pane, len(s.panes)),
		highlighted: make(map[int]bool, len(s.highlighted)),
		offset:      s.offset,
	}
	for k, p := range s.panes {
		cp := *p
		cp.overlays = make(map[int]notation.AssetKey, len(p.overlays))
		for c, a := range p.overlays {
			cp.overlays[c] = a
		}
		if p.controls != nil {
			c := *p.controls
			cp.controls = &c
		}
		v.panes[k] = cp
	}
	for k := range s.highlighted {
		v.highlighted[k] = true
	}
	if s.rover != nil {
		r := *s.rover
		v.rover = &r
	}
	return v
}

// Framed returns the diagram drawn in framed tone, or -1.
func (s *Screen) Framed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.panes {
		if p.framed {
			return k
		}
	}
	return -1
}

var _ surface.Surface = (*Screen)(nil)
