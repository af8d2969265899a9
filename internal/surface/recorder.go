package surface

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-diagram-player/internal/notation"
)

// Call is one recorded surface operation.
type Call struct {
	Op       string
	Diagram  int
	Cell     int
	Asset    string
	Label    string
	Board    string
	Framed   bool
	Piece    notation.Piece
	Point    Point
	Speed    Speed
	MoveID   int
	On       bool
	Controls Controls
	Delta    int
}

func (c Call) String() string {
	switch c.Op {
	case "render":
		return fmt.Sprintf("render d%d framed=%t %q", c.Diagram, c.Framed, c.Label)
	case "square":
		return fmt.Sprintf("square d%d #%d %s", c.Diagram, c.Cell, c.Asset)
	case "rover":
		return fmt.Sprintf("rover d%d %s at %d,%d", c.Diagram, c.Piece, c.Point.Top, c.Point.Left)
	case "slide":
		return fmt.Sprintf("slide d%d to %d,%d %s", c.Diagram, c.Point.Top, c.Point.Left, c.Speed)
	case "clear":
		return fmt.Sprintf("clear d%d", c.Diagram)
	case "highlight":
		return fmt.Sprintf("highlight mv%d %t", c.MoveID, c.On)
	case "controls":
		return fmt.Sprintf("controls d%d back=%t forward=%t play=%s", c.Diagram, c.Controls.Back, c.Controls.Forward, c.Controls.Play)
	case "hide":
		return fmt.Sprintf("hide d%d", c.Diagram)
	case "scroll":
		return fmt.Sprintf("scroll %+d", c.Delta)
	default:
		return c.Op
	}
}

type diagramView struct {
	board    notation.Board
	label    string
	framed   bool
	squares  map[int]string
	controls *Controls
}

// Recorder is an in-memory Surface. It keeps a call log plus the resulting
// view state so callers can assert what a user would see.
type Recorder struct {
	mu          sync.Mutex
	calls       []Call
	views       map[int]*diagramView
	highlighted map[int]bool
	rover       *Call

	// Spacing is the page distance between consecutive diagrams' controls.
	Spacing int
	// SlideGate, when set, holds every slide until a value is received.
	SlideGate chan struct{}
	// OnCall is invoked after each recorded call, outside the lock.
	OnCall func(Call)
}

func NewRecorder() *Recorder {
	return &Recorder{
		views:       make(map[int]*diagramView),
		highlighted: make(map[int]bool),
		Spacing:     400,
	}
}

func (r *Recorder) view(diagram int) *diagramView {
	v, ok := r.views[diagram]
	if !ok {
		v = &diagramView{squares: make(map[int]string)}
		r.views[diagram] = v
	}
	return v
}

func (r *Recorder) record(c Call, apply func()) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	if apply != nil {
		apply()
	}
	hook := r.OnCall
	r.mu.Unlock()
	if hook != nil {
		hook(c)
	}
}

func (r *Recorder) RenderBoard(_ context.Context, diagram int, board notation.Board, label string, framed bool) {
	r.record(Call{Op: "render", Diagram: diagram, Board: board.String(), Label: label, Framed: framed}, func() {
		v := r.view(diagram)
		v.board = board
		v.label = label
		v.framed = framed
		v.squares = make(map[int]string)
	})
}

func (r *Recorder) SetSquare(_ context.Context, diagram, cell int, asset notation.AssetKey) {
	r.record(Call{Op: "square", Diagram: diagram, Cell: cell, Asset: asset.String()}, func() {
		r.view(diagram).squares[cell] = asset.String()
	})
}

func (r *Recorder) PlaceRover(_ context.Context, diagram int, piece notation.Piece, at Point) {
	c := Call{Op: "rover", Diagram: diagram, Piece: piece, Point: at}
	r.record(c, func() { r.rover = &c })
}

func (r *Recorder) SlideRover(ctx context.Context, diagram int, to Point, speed Speed) error {
	r.record(Call{Op: "slide", Diagram: diagram, Point: to, Speed: speed}, nil)
	if r.SlideGate != nil {
		select {
		case <-r.SlideGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	if r.rover != nil {
		r.rover.Point = to
	}
	r.mu.Unlock()
	return nil
}

func (r *Recorder) ClearRover(_ context.Context, diagram int) {
	r.record(Call{Op: "clear", Diagram: diagram}, func() { r.rover = nil })
}

func (r *Recorder) Highlight(_ context.Context, moveID int, on bool) {
	r.record(Call{Op: "highlight", MoveID: moveID, On: on}, func() {
		if on {
			r.highlighted[moveID] = true
		} else {
			delete(r.highlighted, moveID)
		}
	})
}

func (r *Recorder) ShowControls(_ context.Context, diagram int, c Controls) {
	r.record(Call{Op: "controls", Diagram: diagram, Controls: c}, func() {
		cc := c
		r.view(diagram).controls = &cc
	})
}

func (r *Recorder) HideControls(_ context.Context, diagram int) {
	r.record(Call{Op: "hide", Diagram: diagram}, func() {
		r.view(diagram).controls = nil
	})
}

func (r *Recorder) ControlsOffset(diagram int) int { return diagram * r.Spacing }

func (r *Recorder) Scroll(ctx context.Context, delta int) error {
	r.record(Call{Op: "scroll", Delta: delta}, nil)
	return ctx.Err()
}

// Calls returns a copy of the log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset drops the call log but keeps the view state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Framed lists diagrams whose controls are showing.
func (r *Recorder) Framed() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for d, v := range r.views {
		if v.controls != nil {
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

// Highlighted lists highlighted move ids.
func (r *Recorder) Highlighted() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.highlighted))
	for id := range r.highlighted {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Board returns the last rendered board and label of a diagram.
func (r *Recorder) Board(diagram int) (notation.Board, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[diagram]
	if !ok {
		return notation.Board{}, "", false
	}
	return v.board, v.label, true
}

// Controls returns the visible controls of a diagram, if framed.
func (r *Recorder) Controls(diagram int) (Controls, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[diagram]
	if !ok || v.controls == nil {
		return Controls{}, false
	}
	return *v.controls, true
}

// Overlays returns squares changed since the last render of a diagram.
func (r *Recorder) Overlays(diagram int) map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]string)
	if v, ok := r.views[diagram]; ok {
		for k, s := range v.squares {
			out[k] = s
		}
	}
	return out
}

// RoverVisible reports whether a rover is placed.
func (r *Recorder) RoverVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rover != nil
}

// Transcript is the call log, one call per line.
func (r *Recorder) Transcript() string {
	calls := r.Calls()
	var b strings.Builder
	for _, c := range calls {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
