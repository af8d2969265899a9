package navigator

import (
	"context"

	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"go.uber.org/zap"
)

// step is one cursor move: from is the node being left, to the new cursor,
// token the move to slide.
type step struct {
	from     *domain.MoveNode
	to       *domain.MoveNode
	token    string
	backward bool
}

type plan struct {
	step
	reframed bool
	scroll   int
}

// start runs the synchronous head of a step and leaves the rest to a
// sequence goroutine. Callers hold ops and have stopped any previous
// sequence. A token that does not decode stops playback before anything is
// drawn.
func (c *Controller) start(ctx context.Context, st step) {
	if !c.decodable(ctx, st) {
		return
	}
	p := c.enter(ctx, st)
	seqCtx, cancel := context.WithCancel(c.base)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel, c.done = cancel, done
	c.mu.Unlock()
	go c.run(seqCtx, p, done)
}

// enter moves the highlight and, when the target lives in another diagram,
// reframes and draws the position being left in the new frame.
func (c *Controller) enter(ctx context.Context, st step) plan {
	c.moveHighlight(ctx, st.to)
	p := plan{step: st}

	framed := c.Snapshot().FramedDiagram
	if st.to.Diagram == framed {
		return p
	}
	oldOffset := 0
	if framed != domain.NoDiagram {
		oldOffset = c.surf.ControlsOffset(framed)
	}
	c.changeFrame(ctx, st.to.Diagram)
	label := c.labels.For(st.from.Text, st.from.IsInitial() && !st.backward)
	c.surf.RenderBoard(ctx, st.to.Diagram, notation.ParseBoard(st.from.Position), label, true)
	p.reframed = true
	p.scroll = c.surf.ControlsOffset(st.to.Diagram) - oldOffset
	return p
}

// run is the sequence goroutine: scroll, settle, slide, finalize and, while
// autoplay lasts, pause and step again. On cancellation the display is
// brought back in line with the cursor before done closes.
func (c *Controller) run(ctx context.Context, p plan, done chan struct{}) {
	defer close(done)
	for {
		if err := c.play(ctx, p); err != nil {
			c.logger.Debug("nav_sequence_interrupted", zap.Int("move_id", p.to.ID), zap.Error(err))
			c.finalize(context.WithoutCancel(ctx))
			return
		}
		if !c.Snapshot().Playing {
			return
		}
		c.setTimer(TimerAutoplay)
		err := c.seq.Pause(ctx)
		c.setTimer(TimerNone)
		if err != nil {
			return
		}
		next, ok := c.nextAutoplay(ctx)
		if !ok {
			return
		}
		p = next
	}
}

func (c *Controller) play(ctx context.Context, p plan) error {
	if p.reframed {
		if err := c.surf.Scroll(ctx, p.scroll); err != nil {
			return err
		}
		c.setTimer(TimerSettle)
		err := c.seq.Settle(ctx)
		c.setTimer(TimerNone)
		if err != nil {
			return err
		}
	}
	playing := c.Snapshot().Playing
	if _, err := c.seq.Animate(ctx, p.to.Diagram, p.token, p.backward, playing); err != nil {
		return err
	}
	c.finalize(ctx)
	return nil
}

// nextAutoplay is the timer continuation of autoplay.
func (c *Controller) nextAutoplay(ctx context.Context) (plan, bool) {
	cur := c.Snapshot().Current
	if cur == nil || cur.IsTerminal() {
		c.stopPlaying(ctx)
		return plan{}, false
	}
	next, err := c.doc.Move(cur.Next)
	if err != nil {
		c.logger.Error("nav_advance_broken_link", zap.Int("move_id", cur.ID), zap.Error(err))
		c.stopPlaying(ctx)
		return plan{}, false
	}
	st := step{from: cur, to: next, token: next.Token}
	if !c.decodable(ctx, st) {
		return plan{}, false
	}
	c.logger.Debug("nav_autoplay_step", zap.Int("from", cur.ID), zap.Int("to", next.ID))
	return c.enter(ctx, st), true
}

// finalize draws the cursor's position at rest and refreshes the controls.
func (c *Controller) finalize(ctx context.Context) {
	c.mu.Lock()
	c.state.ReplayingBackward = false
	c.state.BackwardToken = ""
	st := c.state
	c.mu.Unlock()
	cur := st.Current
	if cur == nil {
		return
	}
	c.seq.Finalize(ctx, cur.Diagram, cur.Position, c.labels.For(cur.Text, cur.IsInitial()), st.Controls())
}

// decodable checks the step's token before the cursor or the frame moves.
// On failure playback stops and the display keeps the position being left.
func (c *Controller) decodable(ctx context.Context, st step) bool {
	if _, err := notation.DecodeMoveToken(st.token, st.backward); err != nil {
		c.logger.Warn("nav_bad_move_token",
			zap.Int("move_id", st.to.ID),
			zap.String("token", st.token),
			zap.Bool("backward", st.backward),
			zap.Error(err),
		)
		c.stopPlaying(ctx)
		return false
	}
	return true
}
