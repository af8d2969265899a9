package animation

import (
	"context"
	"time"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/surface"
	"go.uber.org/zap"
)

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sequencer runs the steps of one move animation against a surface. It holds
// no navigation state; the caller orders the steps.
type Sequencer struct {
	surface surface.Surface
	geo     Geometry
	timing  Timing
	sleep   SleepFunc
	logger  *zap.Logger
}

type Option func(*Sequencer)

func WithGeometry(g Geometry) Option { return func(s *Sequencer) { s.geo = g } }
func WithTiming(t Timing) Option     { return func(s *Sequencer) { s.timing = t } }
func WithSleep(f SleepFunc) Option   { return func(s *Sequencer) { s.sleep = f } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(s surface.Surface, opts ...Option) *Sequencer {
	seq := &Sequencer{
		surface: s,
		geo:     DefaultGeometry(),
		timing:  DefaultTiming(),
		sleep:   sleepWithContext,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(seq)
	}
	return seq
}

func (s *Sequencer) Timing() Timing     { return s.timing }
func (s *Sequencer) Geometry() Geometry { return s.geo }

// Settle waits for the viewport to come to rest after a frame change.
func (s *Sequencer) Settle(ctx context.Context) error {
	return s.sleep(ctx, s.timing.Settle)
}

// Pause waits between two autoplay steps.
func (s *Sequencer) Pause(ctx context.Context) error {
	return s.sleep(ctx, s.timing.AutoplayPause)
}

// Animate slides the piece of token across diagram. The token is decoded
// before anything is drawn, so a *notation.DecodeError leaves the surface
// untouched. Otherwise the origin square is blanked, the rover placed on it
// and slid to the target; the call returns when the slide ends.
func (s *Sequencer) Animate(ctx context.Context, diagram int, token string, backward, playing bool) (Path, error) {
	mv, err := notation.DecodeMoveToken(token, backward)
	if err != nil {
		s.logger.Warn("animation_decode_failed", zap.Int("diagram", diagram), zap.String("token", token), zap.Error(err))
		return Path{}, err
	}
	p := s.geo.Plan(mv, playing)
	cell := mv.From.Cell()
	s.surface.SetSquare(ctx, diagram, cell, notation.BlankAsset(cell, true))
	s.surface.PlaceRover(ctx, diagram, mv.Piece, p.From)
	s.logger.Debug("animation_slide",
		zap.Int("diagram", diagram),
		zap.Stringer("move", mv),
		zap.Bool("backward", backward),
		zap.Stringer("axis", p.Axis),
		zap.Stringer("speed", p.Speed),
	)
	if err := s.surface.SlideRover(ctx, diagram, p.To, p.Speed); err != nil {
		return p, err
	}
	return p, nil
}

// Finalize draws the resting position after a slide and refreshes the
// controls.
func (s *Sequencer) Finalize(ctx context.Context, diagram int, position, label string, c surface.Controls) {
	s.surface.RenderBoard(ctx, diagram, notation.ParseBoard(position), label, true)
	s.surface.ClearRover(ctx, diagram)
	s.surface.ShowControls(ctx, diagram, c)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
