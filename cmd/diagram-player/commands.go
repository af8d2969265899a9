package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-diagram-player/internal/animation"
	"github.com/park285/cheese-diagram-player/internal/config"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/httpapi"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/park285/cheese-diagram-player/internal/navigator"
	"github.com/park285/cheese-diagram-player/internal/publish"
	"github.com/park285/cheese-diagram-player/internal/service/imagecache"
	"github.com/park285/cheese-diagram-player/internal/service/render"
	"github.com/park285/cheese-diagram-player/internal/surface"
	"github.com/park285/cheese-diagram-player/internal/tui"
	"go.uber.org/zap"
)

// env is what every subcommand shares.
type env struct {
	cfg    *config.AppConfig
	labels msgcat.Labels
	logger *zap.Logger
	stdout io.Writer
}

func (e *env) timing() animation.Timing {
	return animation.Timing{
		Settle:        e.cfg.Settle,
		AutoplayPause: e.cfg.AutoplayPause,
		Fast:          e.cfg.SlideFast,
		Slow:          e.cfg.SlideSlow,
	}
}

func (e *env) geometry() animation.Geometry {
	g := animation.DefaultGeometry()
	g.Stride = e.cfg.Stride
	return g
}

// loadDocument reads the positional argument, else the configured document.
func (e *env) loadDocument(fs *flag.FlagSet) (*domain.Document, error) {
	path := e.cfg.DocumentPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("no document: pass a path or set PLAYER_DOCUMENT")
	}
	return domain.LoadFile(path)
}

func (e *env) build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	in := fs.String("in", "", "PGN file to publish (default stdin)")
	out := fs.String("out", "", "YAML output file (default stdout)")
	title := fs.String("title", "", "document title (default from PGN tags)")
	spacing := fs.Int("spacing", e.cfg.DiagramSpacing, "plies per diagram")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var r io.Reader = os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("open pgn: %w", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := publish.FromPGN(r, publish.Options{Title: *title, Spacing: *spacing, Logger: e.logger})
	if err != nil {
		return err
	}

	w := e.stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := doc.WriteYAML(w); err != nil {
		return err
	}
	e.logger.Info("build_done", zap.Int("diagrams", len(doc.Diagrams)), zap.Int("moves", len(doc.Moves)))
	return nil
}

func (e *env) view(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	doc, err := e.loadDocument(fs)
	if err != nil {
		return err
	}
	screen := tui.NewScreen(e.geometry(), e.timing(), 0)
	seq := animation.New(screen,
		animation.WithTiming(e.timing()),
		animation.WithGeometry(e.geometry()),
		animation.WithLogger(e.logger),
	)
	ctrl := navigator.New(doc, screen,
		navigator.WithSequencer(seq),
		navigator.WithLabels(e.labels),
		navigator.WithLogger(e.logger),
	)
	return tui.Run(ctx, ctrl, screen, e.labels)
}

func (e *env) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", e.cfg.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	doc, err := e.loadDocument(fs)
	if err != nil {
		return err
	}

	opts := []httpapi.Option{httpapi.WithLabels(e.labels), httpapi.WithLogger(e.logger)}
	if e.cfg.RedisURL != "" {
		octx, cancel := context.WithTimeout(ctx, 5*time.Second)
		cache, err := imagecache.Open(octx, e.cfg.RedisURL, e.cfg.CacheTTL)
		cancel()
		if err != nil {
			return fmt.Errorf("image cache: %w", err)
		}
		defer cache.Close()
		opts = append(opts, httpapi.WithCache(cache))
	} else {
		e.logger.Warn("image_cache_disabled", zap.String("reason", "REDIS_URL not set"))
	}

	opts = append(opts, httpapi.WithGeometry(e.geometry()))
	srv := httpapi.New(doc, render.NewSVGRenderer(e.cfg.SquareSize), opts...)
	return srv.ListenAndServe(ctx, *addr)
}

// play selects a move, then steps or autoplays from it against an in-memory
// surface and prints the resulting call transcript.
func (e *env) play(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	start := fs.Int("start", domain.NoMove, "move id to select first (default: first line)")
	steps := fs.Int("steps", 0, "forward steps to take; 0 autoplays to the end of the line")
	back := fs.Int("back", 0, "backward steps to take afterwards")
	realtime := fs.Bool("realtime", false, "honour the configured delays")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	doc, err := e.loadDocument(fs)
	if err != nil {
		return err
	}
	return playScript(ctx, doc, script{start: *start, steps: *steps, back: *back, realtime: *realtime}, e, e.stdout)
}

type script struct {
	start    int
	steps    int
	back     int
	realtime bool
}

func playScript(ctx context.Context, doc *domain.Document, sc script, e *env, w io.Writer) error {
	if sc.start == domain.NoMove {
		starts := doc.Starts()
		if len(starts) == 0 {
			return errors.New("document has no moves")
		}
		sc.start = starts[0].ID
	}

	rec := surface.NewRecorder()
	surf := surface.WithLogging(rec, e.logger)
	seqOpts := []animation.Option{
		animation.WithTiming(e.timing()),
		animation.WithGeometry(e.geometry()),
		animation.WithLogger(e.logger),
	}
	if !sc.realtime {
		seqOpts = append(seqOpts, animation.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	}
	ctrl := navigator.New(doc, surf,
		navigator.WithSequencer(animation.New(surf, seqOpts...)),
		navigator.WithLabels(e.labels),
		navigator.WithLogger(e.logger),
	)
	defer ctrl.Close()

	if err := ctrl.SelectMove(ctx, sc.start); err != nil {
		return err
	}
	if sc.steps > 0 {
		for range sc.steps {
			ctrl.Advance(ctx, false)
			ctrl.Wait()
		}
	} else {
		ctrl.TogglePlayPause(ctx)
		ctrl.Wait()
	}
	for range sc.back {
		ctrl.Retreat(ctx)
		ctrl.Wait()
	}

	_, err := io.WriteString(w, rec.Transcript())
	return err
}
