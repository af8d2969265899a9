package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-diagram-player/internal/animation"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/obslog"
	"github.com/park285/cheese-diagram-player/internal/service/imagecache"
	"github.com/park285/cheese-diagram-player/internal/service/render"
	"github.com/park285/cheese-diagram-player/pkg/diagramdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const renderTimeout = 5 * time.Second

// Server serves a published document as JSON and its diagrams as PNGs.
type Server struct {
	doc      *domain.Document
	renderer render.Renderer
	cache    *imagecache.Store
	labels   msgcat.Labels
	geo      animation.Geometry
	logger   *zap.Logger
}

type Option func(*Server)

func WithCache(c *imagecache.Store) Option { return func(s *Server) { s.cache = c } }
func WithLabels(l msgcat.Labels) Option    { return func(s *Server) { s.labels = l } }
func WithGeometry(g animation.Geometry) Option {
	return func(s *Server) { s.geo = g }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(doc *domain.Document, r render.Renderer, opts ...Option) *Server {
	s := &Server{
		doc:      doc,
		renderer: r,
		labels:   msgcat.NewLabels(nil),
		geo:      animation.DefaultGeometry(),
		logger:   obslog.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler is the routed handler wrapped in request-id and access logging.
func (s *Server) Handler() fasthttp.RequestHandler {
	return RequestID(AccessLog(s.logger, s.route))
}

// Serve accepts on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "diagram-player",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("http_listen", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	case path == "/document":
		writeJSON(ctx, fasthttp.StatusOK, diagramdto.FromDocument(s.doc))
	case path == "/position.png":
		s.handlePosition(ctx)
	case strings.HasPrefix(path, "/diagrams/"):
		if n, ok := pngIndex(path, "/diagrams/"); ok {
			s.handleDiagram(ctx, n)
			return
		}
		writeError(ctx, fasthttp.StatusNotFound, "not_found", path)
	case strings.HasPrefix(path, "/moves/"):
		if n, ok := pngIndex(path, "/moves/"); ok {
			s.handleMove(ctx, n)
			return
		}
		writeError(ctx, fasthttp.StatusNotFound, "not_found", path)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", path)
	}
}

func (s *Server) handleDiagram(ctx *fasthttp.RequestCtx, index int) {
	dg, err := s.doc.Diagram(index)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "unknown_diagram", err.Error())
		return
	}
	label := s.labels.Clickable()
	s.servePNG(ctx, imagecache.Key("diagram", dg.Position, label), render.Frame{
		Board: notation.ParseBoard(dg.Position),
		Label: label,
	})
}

// handleMove draws the position after a move in framed tone with an arrow for
// the move itself. With ?t= in [0, 1) it draws the move in transit instead.
func (s *Server) handleMove(ctx *fasthttp.RequestCtx, id int) {
	n, err := s.doc.Move(id)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "unknown_move", err.Error())
		return
	}
	if raw := ctx.QueryArgs().Peek("t"); len(raw) > 0 {
		t, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || t < 0 || t > 1 {
			writeError(ctx, fasthttp.StatusBadRequest, "bad_progress", "t must be a number between 0 and 1")
			return
		}
		if t < 1 && !n.IsInitial() {
			s.handleTransit(ctx, n, t)
			return
		}
	}
	f := render.Frame{
		Board:  notation.ParseBoard(n.Position),
		Label:  s.labels.For(n.Text, n.IsInitial()),
		Framed: true,
	}
	if !n.IsInitial() {
		mv, err := notation.DecodeMoveToken(n.Token, false)
		if err != nil {
			s.logger.Warn("http_bad_move_token", zap.Int("move_id", id), zap.String("token", n.Token), zap.Error(err))
		} else {
			f.Highlight = &mv
		}
	}
	s.servePNG(ctx, imagecache.Key("move", n.Position, n.Token, f.Label, strconv.FormatBool(f.Highlight != nil)), f)
}

// handleTransit draws the board before n with the source square vacated and
// the moving piece fraction t of the way along its slide.
func (s *Server) handleTransit(ctx *fasthttp.RequestCtx, n *domain.MoveNode, t float64) {
	mv, err := notation.DecodeMoveToken(n.Token, false)
	if err != nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, "bad_move_token", err.Error())
		return
	}
	prev, err := s.doc.Move(n.Prev)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "unknown_move", err.Error())
		return
	}
	file, rank := s.geo.Along(s.geo.Plan(mv, false), t)
	f := render.Frame{
		Board:   notation.ParseBoard(prev.Position),
		Label:   s.labels.For(prev.Text, prev.IsInitial()),
		Framed:  true,
		Vacated: []int{mv.From.Cell()},
		Rover:   &render.Rover{Piece: mv.Piece, File: file, Rank: rank},
	}
	progress := strconv.FormatFloat(t, 'f', 3, 64)
	s.servePNG(ctx, imagecache.Key("transit", prev.Position, n.Token, f.Label, progress), f)
}

// handlePosition renders an arbitrary compressed position: ?posn=&label=&framed=1.
func (s *Server) handlePosition(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	posn := string(args.Peek("posn"))
	if posn == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "missing_position", "posn is required")
		return
	}
	label := string(args.Peek("label"))
	framed := args.GetBool("framed")
	s.servePNG(ctx, imagecache.Key("position", posn, label, strconv.FormatBool(framed)), render.Frame{
		Board:  notation.ParseBoard(posn),
		Label:  label,
		Framed: framed,
	})
}

func (s *Server) servePNG(ctx *fasthttp.RequestCtx, key string, f render.Frame) {
	rctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()
	data, hit, err := s.cache.GetOrRender(rctx, key, func(c context.Context) ([]byte, error) {
		return s.renderer.RenderPNG(c, f)
	})
	if err != nil {
		s.logger.Error("http_render_failed", zap.String("rid", GetRequestID(ctx)), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "render_failed", "could not render image")
		return
	}
	if hit {
		ctx.Response.Header.Set("X-Cache", "hit")
	} else {
		ctx.Response.Header.Set("X-Cache", "miss")
	}
	ctx.SetContentType("image/png")
	ctx.SetBody(data)
}

func pngIndex(path, prefix string) (int, bool) {
	rest, ok := strings.CutSuffix(strings.TrimPrefix(path, prefix), ".png")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, diagramdto.DomainError{Code: code, Message: msg, Retryable: status >= 500})
}
