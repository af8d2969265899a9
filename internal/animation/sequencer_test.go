package animation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/surface"
	"go.uber.org/zap/zaptest"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestGeometryPoint(t *testing.T) {
	g := DefaultGeometry()
	e2 := notation.Coord{File: 4, Rank: 1}
	if p := g.Point(e2); p.Top != -81 || p.Left != 71 {
		t.Fatalf("e2 point: %+v", p)
	}
	a1 := notation.Coord{}
	if p := g.Point(a1); p.Top != -45 || p.Left != -73 {
		t.Fatalf("a1 point: %+v", p)
	}
	for i := 0; i < notation.Squares; i++ {
		c := notation.CoordOfCell(i)
		back, ok := g.Coord(g.Point(c))
		if !ok || back != c {
			t.Fatalf("cell %d: %v -> %v (ok=%v)", i, c, back, ok)
		}
	}
	if _, ok := g.Coord(surface.Point{Top: -50, Left: 0}); ok {
		t.Fatalf("off-grid point should not map to a square")
	}
}

func TestAlongInterpolatesInSquares(t *testing.T) {
	g := DefaultGeometry()
	mv, err := notation.DecodeMoveToken("Ng1f3", false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := g.Plan(mv, false)
	if f, r := g.Along(path, 0); f != 6 || r != 0 {
		t.Fatalf("start: %v,%v", f, r)
	}
	if f, r := g.Along(path, 0.5); f != 5.5 || r != 1 {
		t.Fatalf("halfway: %v,%v", f, r)
	}
	if f, r := g.Along(path, 3); f != 5 || r != 2 {
		t.Fatalf("clamped end: %v,%v", f, r)
	}
}

func TestPlanAxes(t *testing.T) {
	g := DefaultGeometry()
	cases := []struct {
		token   string
		axis    Axis
		playing bool
		speed   surface.Speed
	}{
		{"Pe2e4", AxisVertical, false, surface.SpeedFast},
		{"Ra1h1", AxisHorizontal, true, surface.SpeedSlow},
		{"Ng1f3", AxisBoth, false, surface.SpeedFast},
	}
	for _, tc := range cases {
		mv, err := notation.DecodeMoveToken(tc.token, false)
		if err != nil {
			t.Fatalf("decode %s: %v", tc.token, err)
		}
		p := g.Plan(mv, tc.playing)
		if p.Axis != tc.axis || p.Speed != tc.speed {
			t.Fatalf("%s: axis=%v speed=%v", tc.token, p.Axis, p.Speed)
		}
	}
}

func TestAnimateForward(t *testing.T) {
	rec := surface.NewRecorder()
	seq := New(rec, WithSleep(noSleep), WithLogger(zaptest.NewLogger(t)))
	p, err := seq.Animate(context.Background(), 2, "Pe2e4", false, false)
	if err != nil {
		t.Fatalf("Animate: %v", err)
	}
	calls := rec.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected square, rover, slide; got\n%s", rec.Transcript())
	}
	// e2 is cell 52 and a light square
	if calls[0].Op != "square" || calls[0].Cell != 52 || calls[0].Asset != "w" {
		t.Fatalf("unexpected vacate call %v", calls[0])
	}
	if calls[1].Op != "rover" || calls[1].Point != p.From || calls[1].Piece != (notation.Piece{Kind: notation.Pawn, Color: notation.White}) {
		t.Fatalf("unexpected rover call %v", calls[1])
	}
	if calls[2].Op != "slide" || calls[2].Point != (surface.Point{Top: -153, Left: 71}) || calls[2].Speed != surface.SpeedFast {
		t.Fatalf("unexpected slide call %v", calls[2])
	}
}

func TestAnimateBackwardUsesReversedSquares(t *testing.T) {
	rec := surface.NewRecorder()
	seq := New(rec, WithSleep(noSleep))
	p, err := seq.Animate(context.Background(), 0, "ng8f6", true, true)
	if err != nil {
		t.Fatalf("Animate: %v", err)
	}
	f6 := notation.Coord{File: 5, Rank: 5}
	g8 := notation.Coord{File: 6, Rank: 7}
	if p.Move.From != f6 || p.Move.To != g8 || p.Speed != surface.SpeedSlow {
		t.Fatalf("unexpected path %+v", p)
	}
	if calls := rec.Calls(); calls[0].Cell != f6.Cell() || calls[0].Asset != "y" {
		t.Fatalf("expected dark framed blank on f6, got %v", calls[0])
	}
}

func TestAnimateDecodeErrorTouchesNothing(t *testing.T) {
	rec := surface.NewRecorder()
	seq := New(rec, WithSleep(noSleep))
	_, err := seq.Animate(context.Background(), 0, "Pz9e4", false, false)
	if !errors.Is(err, notation.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if n := len(rec.Calls()); n != 0 {
		t.Fatalf("surface touched on decode error:\n%s", rec.Transcript())
	}
}

func TestFinalizeAndPacing(t *testing.T) {
	rec := surface.NewRecorder()
	var slept []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	seq := New(rec, WithSleep(sleep))
	if err := seq.Settle(context.Background()); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if err := seq.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 500*time.Millisecond {
		t.Fatalf("unexpected delays %v", slept)
	}

	seq.Finalize(context.Background(), 1, notation.StartPosition, "Initial position", surface.Controls{Forward: true, Play: surface.GlyphPlay})
	bd, label, ok := rec.Board(1)
	if !ok || label != "Initial position" || bd.String() != notation.ExpandPosition(notation.StartPosition) {
		t.Fatalf("finalize did not render the position")
	}
	if c, ok := rec.Controls(1); !ok || !c.Forward || c.Back || c.Play != surface.GlyphPlay {
		t.Fatalf("unexpected controls %+v", c)
	}
	if rec.RoverVisible() {
		t.Fatalf("rover left on screen")
	}
}

func TestSleepWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
