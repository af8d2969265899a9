package navigator

import (
	"context"
	"sync"

	"github.com/park285/cheese-diagram-player/internal/animation"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/obslog"
	"github.com/park285/cheese-diagram-player/internal/surface"
	"go.uber.org/zap"
)

// Controller owns the move cursor and the framed diagram and drives
// playback. Entry points are serialised; each one first stops whatever
// sequence is in flight, so at most one rover slide runs at a time.
type Controller struct {
	doc    *domain.Document
	surf   surface.Surface
	seq    *animation.Sequencer
	labels msgcat.Labels
	logger *zap.Logger

	ops sync.Mutex // held for the whole of an entry point

	mu     sync.Mutex // guards the fields below
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	base     context.Context
	shutdown context.CancelFunc
}

type Option func(*Controller)

func WithSequencer(s *animation.Sequencer) Option { return func(c *Controller) { c.seq = s } }
func WithLabels(l msgcat.Labels) Option           { return func(c *Controller) { c.labels = l } }

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(doc *domain.Document, s surface.Surface, opts ...Option) *Controller {
	base, shutdown := context.WithCancel(context.Background())
	c := &Controller{
		doc:      doc,
		surf:     s,
		labels:   msgcat.NewLabels(nil),
		logger:   obslog.L(),
		state:    InitialState(),
		base:     base,
		shutdown: shutdown,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.seq == nil {
		c.seq = animation.New(s, animation.WithLogger(c.logger))
	}
	return c
}

// Snapshot returns a copy of the navigation state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Document is the move data the controller navigates.
func (c *Controller) Document() *domain.Document { return c.doc }

// SelectMove jumps to a move: it becomes the cursor, its diagram is framed
// and its position drawn without animation.
func (c *Controller) SelectMove(ctx context.Context, id int) error {
	node, err := c.doc.Move(id)
	if err != nil {
		return err
	}
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(ctx)

	c.logger.Info("nav_select", zap.Int("move_id", id), zap.Int("diagram", node.Diagram), zap.String("move", node.Text))
	c.moveHighlight(ctx, node)
	c.changeFrame(ctx, node.Diagram)
	c.surf.RenderBoard(ctx, node.Diagram, notation.ParseBoard(node.Position), c.labels.For(node.Text, node.IsInitial()), true)
	return nil
}

// EnterFrame makes diagram the framed one, unframing any other first.
func (c *Controller) EnterFrame(ctx context.Context, diagram int) error {
	dg, err := c.doc.Diagram(diagram)
	if err != nil {
		return err
	}
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(ctx)

	c.logger.Info("nav_enter_frame", zap.Int("diagram", diagram))
	c.changeFrame(ctx, diagram)

	st := c.Snapshot()
	if st.Current != nil && st.Current.Diagram == diagram {
		c.surf.RenderBoard(ctx, diagram, notation.ParseBoard(st.Current.Position), c.labels.For(st.Current.Text, st.Current.IsInitial()), true)
		return nil
	}
	c.surf.RenderBoard(ctx, diagram, notation.ParseBoard(dg.Position), c.labels.Clickable(), true)
	return nil
}

// ExitFrame stops playback, clears the highlight and returns the framed
// diagram to its resting position. The cursor is kept.
func (c *Controller) ExitFrame(ctx context.Context) {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(ctx)

	c.mu.Lock()
	cur := c.state.Current
	framed := c.state.FramedDiagram
	c.state.FramedDiagram = domain.NoDiagram
	c.mu.Unlock()

	if cur != nil {
		c.surf.Highlight(ctx, cur.ID, false)
	}
	if framed != domain.NoDiagram {
		c.logger.Info("nav_exit_frame", zap.Int("diagram", framed))
		c.unframe(ctx, framed)
	}
}

// Advance steps forward one move. With autoRepeat it keeps going until the
// end of the line or until interrupted. At the end of a line it only stops
// playback.
func (c *Controller) Advance(ctx context.Context, autoRepeat bool) {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(ctx)
	c.advance(ctx, autoRepeat)
}

// Retreat steps back one move, replaying the undone move in reverse. It is a
// no-op on the first node of a line.
func (c *Controller) Retreat(ctx context.Context) {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(ctx)

	c.mu.Lock()
	cur := c.state.Current
	if cur == nil || cur.IsInitial() {
		c.mu.Unlock()
		return
	}
	prev, err := c.doc.Move(cur.Prev)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("nav_retreat_broken_link", zap.Int("move_id", cur.ID), zap.Error(err))
		return
	}
	c.state.ReplayingBackward = true
	c.state.BackwardToken = cur.Token
	c.mu.Unlock()

	c.logger.Info("nav_retreat", zap.Int("from", cur.ID), zap.Int("to", prev.ID))
	c.start(ctx, step{from: cur, to: prev, token: cur.Token, backward: true})
}

// TogglePlayPause pauses autoplay, or starts it from the cursor.
func (c *Controller) TogglePlayPause(ctx context.Context) {
	c.ops.Lock()
	defer c.ops.Unlock()
	playing := c.Snapshot().Playing
	c.stop(ctx)
	if playing {
		c.logger.Info("nav_pause")
		return
	}
	c.logger.Info("nav_play")
	c.advance(ctx, true)
}

// HandleKey maps arrow keys to Retreat/Advance while a diagram is framed.
// It reports whether the key was consumed.
func (c *Controller) HandleKey(ctx context.Context, k Key) bool {
	if !c.Snapshot().Framed() {
		return false
	}
	switch k {
	case KeyLeft:
		c.Retreat(ctx)
	case KeyRight:
		c.Advance(ctx, false)
	default:
		return false
	}
	return true
}

// Wait blocks until the running sequence, if any, has finished.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops playback and releases the sequence goroutine.
func (c *Controller) Close() {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stop(context.Background())
	c.shutdown()
}

// advance starts a forward step. Callers hold ops.
func (c *Controller) advance(ctx context.Context, autoRepeat bool) {
	c.mu.Lock()
	cur := c.state.Current
	if cur == nil {
		c.mu.Unlock()
		return
	}
	c.state.ReplayingBackward = false
	c.state.BackwardToken = ""
	c.state.Playing = autoRepeat
	c.mu.Unlock()

	if cur.IsTerminal() {
		c.stopPlaying(ctx)
		return
	}
	next, err := c.doc.Move(cur.Next)
	if err != nil {
		c.logger.Error("nav_advance_broken_link", zap.Int("move_id", cur.ID), zap.Error(err))
		c.stopPlaying(ctx)
		return
	}
	c.logger.Info("nav_advance", zap.Int("from", cur.ID), zap.Int("to", next.ID), zap.Bool("auto", autoRepeat))
	c.start(ctx, step{from: cur, to: next, token: next.Token})
}

// stop cancels the in-flight sequence, waits for it to put the display back
// in line with the cursor and then clears playback. Callers hold ops.
func (c *Controller) stop(ctx context.Context) {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	c.stopPlaying(ctx)
}

// stopPlaying clears playback flags and the pending timer and refreshes the
// play glyph.
func (c *Controller) stopPlaying(ctx context.Context) {
	c.mu.Lock()
	c.state.Playing = false
	c.state.ReplayingBackward = false
	c.state.BackwardToken = ""
	c.state.PendingTimer = TimerNone
	st := c.state
	c.mu.Unlock()
	if st.Framed() && st.Current != nil {
		c.surf.ShowControls(ctx, st.FramedDiagram, st.Controls())
	}
}

func (c *Controller) moveHighlight(ctx context.Context, node *domain.MoveNode) {
	c.mu.Lock()
	old := c.state.Current
	c.state.Current = node
	c.mu.Unlock()
	if old != nil {
		c.surf.Highlight(ctx, old.ID, false)
	}
	c.surf.Highlight(ctx, node.ID, true)
}

// changeFrame unframes the current diagram if it differs and frames
// diagram with controls derived from the cursor. A diagram the cursor is not
// in only gets its exit control.
func (c *Controller) changeFrame(ctx context.Context, diagram int) {
	c.mu.Lock()
	old := c.state.FramedDiagram
	c.state.FramedDiagram = diagram
	ctl := c.state.Controls()
	if cur := c.state.Current; cur == nil || cur.Diagram != diagram {
		ctl = surface.Controls{}
	}
	c.mu.Unlock()

	if old != domain.NoDiagram && old != diagram {
		c.unframe(ctx, old)
	}
	c.surf.ShowControls(ctx, diagram, ctl)
}

func (c *Controller) unframe(ctx context.Context, diagram int) {
	c.surf.HideControls(ctx, diagram)
	dg, err := c.doc.Diagram(diagram)
	if err != nil {
		c.logger.Warn("nav_unframe_unknown_diagram", zap.Int("diagram", diagram), zap.Error(err))
		return
	}
	c.surf.RenderBoard(ctx, diagram, notation.ParseBoard(dg.Position), c.labels.Clickable(), false)
}

func (c *Controller) setTimer(k TimerKind) {
	c.mu.Lock()
	c.state.PendingTimer = k
	c.mu.Unlock()
}
