package navigator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-diagram-player/internal/animation"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Two diagrams of one line (0..4) plus two short lines whose only move
// carries a token that cannot be decoded: 11 stays in diagram 1, 21 would
// continue in diagram 2.
const navYAML = `
title: nav
diagrams:
  - {index: 0, position: ahff32FFAH}
  - {index: 1, position: ahf1t12p7P11F1TAH}
  - {index: 2, position: ahff32FFAH}
moves:
  - {id: 0, diagram: 0, position: ahff32FFAH, text: "0.NoMove", prev: -1, next: 1, token: Pe2e4}
  - {id: 1, diagram: 0, position: ahff20P11F1TAH, text: "1.e4", prev: 0, next: 2, token: Pe2e4}
  - {id: 2, diagram: 0, position: ahf1t12p7P11F1TAH, text: "1...e5", prev: 1, next: 3, token: pe7e5}
  - {id: 3, diagram: 1, position: ahf1t12p7P8F2P1TAH, text: "2.Nf3", prev: 2, next: 4, token: Ng1f3}
  - {id: 4, diagram: 1, position: ahf1t12p7P8F2P1TAH, text: "2...Nc6", prev: 3, next: -1, token: nb8c6}
  - {id: 10, diagram: 1, position: ahff32FFAH, text: "0.NoMove", prev: -1, next: 11, token: Pe2e4}
  - {id: 11, diagram: 1, position: ahff32FFAH, text: "1.??", prev: 10, next: -1, token: Xz9z9}
  - {id: 20, diagram: 1, position: ahff32FFAH, text: "0.NoMove", prev: -1, next: 21, token: Pe2e4}
  - {id: 21, diagram: 2, position: ahff20P11F1TAH, text: "1.e4", prev: 20, next: -1, token: Pz2e4}
`

type sleepLog struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, x := range s.slept {
		if x == d {
			n++
		}
	}
	return n
}

type fixture struct {
	ctl   *Controller
	rec   *surface.Recorder
	sleep *sleepLog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	doc, err := domain.Decode(strings.NewReader(navYAML))
	require.NoError(t, err)
	rec := surface.NewRecorder()
	sl := &sleepLog{}
	logger := zaptest.NewLogger(t)
	seq := animation.New(rec, animation.WithSleep(sl.sleep), animation.WithLogger(logger))
	ctl := New(doc, rec, WithSequencer(seq), WithLogger(logger))
	t.Cleanup(ctl.Close)
	return fixture{ctl: ctl, rec: rec, sleep: sl}
}

func slides(rec *surface.Recorder) []surface.Call {
	var out []surface.Call
	for _, c := range rec.Calls() {
		if c.Op == "slide" {
			out = append(out, c)
		}
	}
	return out
}

func TestSelectMoveFramesAndRenders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctl.SelectMove(ctx, 1))
	st := f.ctl.Snapshot()
	assert.Equal(t, 0, st.FramedDiagram)
	assert.Equal(t, 1, st.Current.ID)
	assert.False(t, st.Playing)
	assert.Equal(t, []int{0}, f.rec.Framed())
	assert.Equal(t, []int{1}, f.rec.Highlighted())

	_, label, ok := f.rec.Board(0)
	require.True(t, ok)
	assert.Equal(t, "Position after 1.e4", label)

	c, ok := f.rec.Controls(0)
	require.True(t, ok)
	assert.Equal(t, surface.Controls{Back: true, Forward: true, Play: surface.GlyphPlay}, c)

	require.NoError(t, f.ctl.SelectMove(ctx, 0))
	_, label, _ = f.rec.Board(0)
	assert.Equal(t, "Initial position", label)

	assert.ErrorIs(t, f.ctl.SelectMove(ctx, 99), domain.ErrUnknownMove)
}

func TestAdvanceWithinDiagram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 0))
	f.rec.Reset()

	f.ctl.Advance(ctx, false)
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.Equal(t, 1, st.Current.ID)
	assert.False(t, st.Playing)
	assert.Equal(t, TimerNone, st.PendingTimer)
	assert.Zero(t, f.rec.Count("scroll"))
	assert.Zero(t, f.sleep.count(time.Second), "no settle inside the framed diagram")

	sl := slides(f.rec)
	require.Len(t, sl, 1)
	assert.Equal(t, surface.Point{Top: -153, Left: 71}, sl[0].Point)
	assert.Equal(t, surface.SpeedFast, sl[0].Speed)

	_, label, _ := f.rec.Board(0)
	assert.Equal(t, "Position after 1.e4", label)
	assert.False(t, f.rec.RoverVisible())
	assert.Equal(t, []int{1}, f.rec.Highlighted())
}

func TestAdvanceAcrossDiagramsScrollsThenSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 2))
	f.rec.Reset()

	f.ctl.Advance(ctx, false)
	f.ctl.Wait()

	calls := f.rec.Calls()
	var order []string
	for _, c := range calls {
		switch c.Op {
		case "hide", "scroll", "slide":
			order = append(order, c.String())
		case "render":
			if c.Diagram == 1 && c.Label == "Position after 1...e5" {
				order = append(order, "from-render")
			}
		}
	}
	assert.Equal(t, []string{"hide d0", "from-render", "scroll +400", "slide d1 to -117,107 fast"}, order, f.rec.Transcript())
	assert.Equal(t, 1, f.sleep.count(time.Second))
	assert.Equal(t, []int{1}, f.rec.Framed())

	_, label, _ := f.rec.Board(0)
	assert.Equal(t, "Moves are clickable", label)
	_, label, _ = f.rec.Board(1)
	assert.Equal(t, "Position after 2.Nf3", label)
	assert.Equal(t, 1, f.ctl.Snapshot().FramedDiagram)
}

func TestRetreatReplaysUndoneMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 1))
	f.rec.Reset()

	f.ctl.Retreat(ctx)
	f.ctl.Wait()

	calls := f.rec.Calls()
	var square, slide surface.Call
	for _, c := range calls {
		switch c.Op {
		case "square":
			square = c
		case "slide":
			slide = c
		}
	}
	// e4 is vacated, the pawn goes back to e2
	assert.Equal(t, 36, square.Cell)
	assert.Equal(t, "w", square.Asset)
	assert.Equal(t, surface.Point{Top: -81, Left: 71}, slide.Point)

	st := f.ctl.Snapshot()
	assert.Equal(t, 0, st.Current.ID)
	assert.False(t, st.ReplayingBackward)
	assert.Empty(t, st.BackwardToken)
	_, label, _ := f.rec.Board(0)
	assert.Equal(t, "Initial position", label)

	c, _ := f.rec.Controls(0)
	assert.False(t, c.Back)
	assert.True(t, c.Forward)
}

func TestRetreatAtChainStartIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 0))
	f.rec.Reset()

	f.ctl.Retreat(ctx)
	f.ctl.Wait()

	assert.Zero(t, f.rec.Count("slide"))
	assert.Zero(t, f.rec.Count("render"))
	assert.Equal(t, 0, f.ctl.Snapshot().Current.ID)
}

func TestAdvanceAtEndOnlyStopsPlaying(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 4))
	f.rec.Reset()

	f.ctl.Advance(ctx, true)
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.False(t, st.Playing)
	assert.Equal(t, 4, st.Current.ID)
	assert.Zero(t, f.rec.Count("slide"))

	c, ok := f.rec.Controls(1)
	require.True(t, ok)
	assert.Equal(t, surface.Controls{Back: true, Forward: false, Play: surface.GlyphNone}, c)
}

func TestAutoplayRunsToEndOfLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 0))

	f.ctl.TogglePlayPause(ctx)
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.Equal(t, 4, st.Current.ID)
	assert.False(t, st.Playing)
	assert.Equal(t, TimerNone, st.PendingTimer)

	sl := slides(f.rec)
	require.Len(t, sl, 4)
	for _, s := range sl {
		assert.Equal(t, surface.SpeedSlow, s.Speed)
	}
	assert.Equal(t, 4, f.sleep.count(500*time.Millisecond))
	assert.Equal(t, 1, f.sleep.count(time.Second))
	assert.Equal(t, []int{1}, f.rec.Framed())
	assert.Equal(t, []int{4}, f.rec.Highlighted())
}

func TestPauseInterruptsSlide(t *testing.T) {
	f := newFixture(t)
	f.rec.SlideGate = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 0))

	f.ctl.TogglePlayPause(ctx)
	f.ctl.TogglePlayPause(ctx)
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.False(t, st.Playing)
	assert.Equal(t, TimerNone, st.PendingTimer)
	assert.Equal(t, 1, st.Current.ID)
	assert.False(t, f.rec.RoverVisible())

	_, label, _ := f.rec.Board(0)
	assert.Equal(t, "Position after 1.e4", label)
	c, _ := f.rec.Controls(0)
	assert.Equal(t, surface.GlyphPlay, c.Play)
}

func TestNewStepCancelsRunningOne(t *testing.T) {
	f := newFixture(t)
	f.rec.SlideGate = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 0))

	f.ctl.Advance(ctx, false)
	f.ctl.Retreat(ctx)
	go func() { f.rec.SlideGate <- struct{}{} }()
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.Equal(t, 0, st.Current.ID)
	assert.False(t, st.ReplayingBackward)
	assert.False(t, f.rec.RoverVisible())
}

func TestBadTokenLeavesBoardAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 10))
	f.rec.Reset()

	f.ctl.TogglePlayPause(ctx)
	f.ctl.Wait()

	st := f.ctl.Snapshot()
	assert.Equal(t, 10, st.Current.ID)
	assert.False(t, st.Playing)
	assert.Zero(t, f.rec.Count("slide"))
	assert.Zero(t, f.rec.Count("square"))
	assert.Zero(t, f.rec.Count("render"))
	assert.Equal(t, []int{10}, f.rec.Highlighted())
}

func TestBadTokenInNextDiagramKeepsFrame(t *testing.T) {
	for name, autoplay := range map[string]bool{"step": false, "autoplay": true} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.ctl.SelectMove(ctx, 20))
			f.rec.Reset()

			if autoplay {
				f.ctl.TogglePlayPause(ctx)
			} else {
				f.ctl.Advance(ctx, false)
			}
			f.ctl.Wait()

			st := f.ctl.Snapshot()
			require.NotNil(t, st.Current)
			assert.Equal(t, 20, st.Current.ID)
			assert.Equal(t, 1, st.FramedDiagram)
			assert.Equal(t, st.Current.Diagram, st.FramedDiagram)
			assert.False(t, st.Playing)
			assert.Equal(t, TimerNone, st.PendingTimer)

			assert.Equal(t, []int{1}, f.rec.Framed())
			assert.Equal(t, []int{20}, f.rec.Highlighted())
			for _, op := range []string{"hide", "render", "scroll", "highlight", "square", "slide"} {
				assert.Zero(t, f.rec.Count(op), "%s\n%s", op, f.rec.Transcript())
			}
			_, label, _ := f.rec.Board(1)
			assert.Equal(t, "Initial position", label)
			c, ok := f.rec.Controls(1)
			require.True(t, ok)
			assert.Equal(t, surface.GlyphPlay, c.Play)
		})
	}
}

// gatedSleep parks every delay until the test releases it, so the pending
// timer can be observed.
type gatedSleep struct {
	entered chan time.Duration
	release chan struct{}
}

func newGatedSleep() *gatedSleep {
	return &gatedSleep{entered: make(chan time.Duration), release: make(chan struct{})}
}

func (g *gatedSleep) sleep(ctx context.Context, d time.Duration) error {
	select {
	case g.entered <- d:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedSleep) await(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-g.entered:
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("no delay started")
		return 0
	}
}

func TestPendingTimerTracksDelays(t *testing.T) {
	doc, err := domain.Decode(strings.NewReader(navYAML))
	require.NoError(t, err)
	rec := surface.NewRecorder()
	gate := newGatedSleep()
	logger := zaptest.NewLogger(t)
	seq := animation.New(rec, animation.WithSleep(gate.sleep), animation.WithLogger(logger))
	ctl := New(doc, rec, WithSequencer(seq), WithLogger(logger))
	t.Cleanup(ctl.Close)
	ctx := context.Background()

	require.NoError(t, ctl.SelectMove(ctx, 2))
	ctl.TogglePlayPause(ctx)

	// 2 -> 3 crosses into diagram 1, so the settle comes first
	require.Equal(t, time.Second, gate.await(t))
	st := ctl.Snapshot()
	assert.True(t, st.Playing)
	assert.Equal(t, TimerSettle, st.PendingTimer)
	assert.Equal(t, 3, st.Current.ID)
	gate.release <- struct{}{}

	require.Equal(t, 500*time.Millisecond, gate.await(t))
	st = ctl.Snapshot()
	assert.True(t, st.Playing)
	assert.Equal(t, TimerAutoplay, st.PendingTimer)
	assert.Equal(t, 3, st.Current.ID)

	ctl.TogglePlayPause(ctx)
	ctl.Wait()
	st = ctl.Snapshot()
	assert.False(t, st.Playing)
	assert.Equal(t, TimerNone, st.PendingTimer)
	assert.Equal(t, 3, st.Current.ID)
	c, ok := rec.Controls(1)
	require.True(t, ok)
	assert.Equal(t, surface.GlyphPlay, c.Play)
}

func TestAtMostOneDiagramFramed(t *testing.T) {
	f := newFixture(t)
	var violated atomic.Bool
	f.rec.OnCall = func(surface.Call) {
		if len(f.rec.Framed()) > 1 {
			violated.Store(true)
		}
	}
	ctx := context.Background()

	require.NoError(t, f.ctl.SelectMove(ctx, 0))
	require.NoError(t, f.ctl.EnterFrame(ctx, 1))
	require.NoError(t, f.ctl.SelectMove(ctx, 2))
	f.ctl.TogglePlayPause(ctx)
	f.ctl.Wait()
	f.ctl.Retreat(ctx)
	f.ctl.Wait()
	f.ctl.ExitFrame(ctx)

	assert.False(t, violated.Load())
	assert.Empty(t, f.rec.Framed())
}

func TestEnterFrameWithoutCursorInDiagram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 1))

	require.NoError(t, f.ctl.EnterFrame(ctx, 1))
	assert.Equal(t, []int{1}, f.rec.Framed())
	c, ok := f.rec.Controls(1)
	require.True(t, ok)
	assert.Equal(t, surface.Controls{}, c)
	_, label, _ := f.rec.Board(1)
	assert.Equal(t, "Moves are clickable", label)
	_, label, _ = f.rec.Board(0)
	assert.Equal(t, "Moves are clickable", label)

	assert.ErrorIs(t, f.ctl.EnterFrame(ctx, 7), domain.ErrUnknownDiagram)
}

func TestExitFrameKeepsCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctl.SelectMove(ctx, 1))

	f.ctl.ExitFrame(ctx)

	st := f.ctl.Snapshot()
	assert.False(t, st.Framed())
	assert.Equal(t, 1, st.Current.ID)
	assert.Empty(t, f.rec.Framed())
	assert.Empty(t, f.rec.Highlighted())
	bd, label, _ := f.rec.Board(0)
	assert.Equal(t, "Moves are clickable", label)
	assert.Equal(t, "ahff32FFAH", bd.Compressed())
}

func TestHandleKeyOnlyWhileFramed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.False(t, f.ctl.HandleKey(ctx, KeyRight))

	require.NoError(t, f.ctl.SelectMove(ctx, 0))
	assert.True(t, f.ctl.HandleKey(ctx, KeyRight))
	f.ctl.Wait()
	assert.Equal(t, 1, f.ctl.Snapshot().Current.ID)

	assert.True(t, f.ctl.HandleKey(ctx, KeyLeft))
	f.ctl.Wait()
	assert.Equal(t, 0, f.ctl.Snapshot().Current.ID)

	f.ctl.ExitFrame(ctx)
	assert.False(t, f.ctl.HandleKey(ctx, KeyLeft))
}
