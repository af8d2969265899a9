package surface

import (
	"context"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"go.uber.org/zap"
)

// Logged wraps a Surface and writes every call at debug level.
type Logged struct {
	next   Surface
	logger *zap.Logger
}

func WithLogging(next Surface, logger *zap.Logger) *Logged {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logged{next: next, logger: logger}
}

func (l *Logged) RenderBoard(ctx context.Context, diagram int, board notation.Board, label string, framed bool) {
	l.logger.Debug("surface_render",
		zap.Int("diagram", diagram),
		zap.String("position", board.Compressed()),
		zap.String("label", label),
		zap.Bool("framed", framed),
	)
	l.next.RenderBoard(ctx, diagram, board, label, framed)
}

func (l *Logged) SetSquare(ctx context.Context, diagram, cell int, asset notation.AssetKey) {
	l.logger.Debug("surface_square", zap.Int("diagram", diagram), zap.Int("cell", cell), zap.Stringer("asset", asset))
	l.next.SetSquare(ctx, diagram, cell, asset)
}

func (l *Logged) PlaceRover(ctx context.Context, diagram int, piece notation.Piece, at Point) {
	l.logger.Debug("surface_rover", zap.Int("diagram", diagram), zap.Stringer("piece", piece), zap.Int("top", at.Top), zap.Int("left", at.Left))
	l.next.PlaceRover(ctx, diagram, piece, at)
}

func (l *Logged) SlideRover(ctx context.Context, diagram int, to Point, speed Speed) error {
	l.logger.Debug("surface_slide", zap.Int("diagram", diagram), zap.Int("top", to.Top), zap.Int("left", to.Left), zap.Stringer("speed", speed))
	err := l.next.SlideRover(ctx, diagram, to, speed)
	if err != nil {
		l.logger.Debug("surface_slide_interrupted", zap.Int("diagram", diagram), zap.Error(err))
	}
	return err
}

func (l *Logged) ClearRover(ctx context.Context, diagram int) {
	l.next.ClearRover(ctx, diagram)
}

func (l *Logged) Highlight(ctx context.Context, moveID int, on bool) {
	l.logger.Debug("surface_highlight", zap.Int("move_id", moveID), zap.Bool("on", on))
	l.next.Highlight(ctx, moveID, on)
}

func (l *Logged) ShowControls(ctx context.Context, diagram int, c Controls) {
	l.logger.Debug("surface_controls",
		zap.Int("diagram", diagram),
		zap.Bool("back", c.Back),
		zap.Bool("forward", c.Forward),
		zap.Stringer("play", c.Play),
	)
	l.next.ShowControls(ctx, diagram, c)
}

func (l *Logged) HideControls(ctx context.Context, diagram int) {
	l.logger.Debug("surface_unframe", zap.Int("diagram", diagram))
	l.next.HideControls(ctx, diagram)
}

func (l *Logged) ControlsOffset(diagram int) int { return l.next.ControlsOffset(diagram) }

func (l *Logged) Scroll(ctx context.Context, delta int) error {
	l.logger.Debug("surface_scroll", zap.Int("delta", delta))
	return l.next.Scroll(ctx, delta)
}
