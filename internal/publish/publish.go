package publish

import (
	"fmt"
	"io"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/obslog"
	"go.uber.org/zap"
)

// DefaultSpacing is how many plies one diagram covers before a new one is
// started.
const DefaultSpacing = 20

const errNoMoves = staticErr("game has no moves")

type staticErr string

func (e staticErr) Error() string { return string(e) }

// Options tune publishing.
type Options struct {
	Title   string
	Spacing int
	Logger  *zap.Logger
}

func (o Options) spacing() int {
	if o.Spacing <= 0 {
		return DefaultSpacing
	}
	return o.Spacing
}

// FromPGN parses one PGN game and publishes it.
func FromPGN(r io.Reader, opts Options) (*domain.Document, error) {
	pgn, err := nchess.PGN(r)
	if err != nil {
		return nil, fmt.Errorf("parse pgn: %w", err)
	}
	return FromGame(nchess.NewGame(pgn), opts)
}

// FromGame turns a game with variations into a Document. The main line is
// published first; every variation becomes its own chain starting at the
// position where it leaves its parent line. Each chain opens a new diagram
// and long chains are cut into further diagrams.
func FromGame(g *nchess.Game, opts Options) (*domain.Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = obslog.L()
	}
	b := &builder{spacing: opts.spacing()}
	b.doc.Title = opts.Title
	if b.doc.Title == "" {
		b.doc.Title = titleOf(g)
	}

	lines := g.Split()
	if len(lines) == 0 {
		return nil, errNoMoves
	}

	var published [][]string
	for i, line := range lines {
		moves := line.Moves()
		positions := line.Positions()
		if len(positions) != len(moves)+1 {
			return nil, fmt.Errorf("line %d: %d positions for %d moves", i, len(positions), len(moves))
		}
		ucis := make([]string, len(moves))
		for j, mv := range moves {
			ucis[j] = mv.String()
		}
		fork := 0
		for _, prev := range published {
			if n := commonPrefix(prev, ucis); n > fork {
				fork = n
			}
		}
		published = append(published, ucis)
		if fork >= len(moves) {
			continue
		}
		blackFirst := positions[0].Turn() == nchess.Black
		if err := b.chain(moves, positions, fork, blackFirst, i > 0); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}

	doc := &b.doc
	if err := doc.Index(); err != nil {
		return nil, err
	}
	logger.Info("publish_done",
		zap.String("title", doc.Title),
		zap.Int("lines", len(lines)),
		zap.Int("diagrams", len(doc.Diagrams)),
		zap.Int("moves", len(doc.Moves)),
	)
	return doc, nil
}

type builder struct {
	doc     domain.Document
	spacing int
	nextID  int
}

// chain publishes moves[fork:] as one chain: an initial node holding the
// fork position, then one node per move.
func (b *builder) chain(moves []*nchess.Move, positions []*nchess.Position, fork int, blackFirst, variation bool) error {
	tokens := make([]string, len(moves)-fork)
	for j := fork; j < len(moves); j++ {
		tok, err := moveToken(positions[j], moves[j])
		if err != nil {
			return fmt.Errorf("ply %d: %w", j+1, err)
		}
		tokens[j-fork] = tok
	}

	start := CompressPosition(positions[fork])
	diagram := b.openDiagram(start)
	head := b.add(domain.MoveNode{
		Diagram:   diagram,
		Position:  start,
		Prev:      domain.NoMove,
		Next:      domain.NoMove,
		Token:     tokens[0],
		Variation: variation,
	})

	prev := head
	sinceBreak := 0
	for j := fork; j < len(moves); j++ {
		if sinceBreak >= b.spacing || (j > fork && hasDiagramTag(moves[j-1])) {
			diagram = b.openDiagram(b.doc.Moves[prev].Position)
			sinceBreak = 0
		}
		ply := j
		if blackFirst {
			ply++
		}
		cur := b.add(domain.MoveNode{
			Diagram:   diagram,
			Position:  CompressPosition(positions[j+1]),
			Text:      moveText(ply, nchess.AlgebraicNotation{}.Encode(positions[j], moves[j])),
			Prev:      b.doc.Moves[prev].ID,
			Next:      domain.NoMove,
			Token:     tokens[j-fork],
			Variation: variation,
		})
		b.doc.Moves[prev].Next = b.doc.Moves[cur].ID
		prev = cur
		sinceBreak++
	}
	return nil
}

func (b *builder) openDiagram(position string) int {
	idx := len(b.doc.Diagrams)
	b.doc.Diagrams = append(b.doc.Diagrams, domain.Diagram{Index: idx, Position: position})
	return idx
}

// add appends a node with the next id and returns its slice index.
func (b *builder) add(n domain.MoveNode) int {
	n.ID = b.nextID
	b.nextID++
	b.doc.Moves = append(b.doc.Moves, n)
	return len(b.doc.Moves) - 1
}

// moveText numbers a SAN move by ply: "12.Nf3" for white, "12...Nc6" for
// black.
func moveText(ply int, san string) string {
	n := ply/2 + 1
	if ply%2 == 0 {
		return fmt.Sprintf("%d.%s", n, san)
	}
	return fmt.Sprintf("%d...%s", n, san)
}

func moveToken(pos *nchess.Position, mv *nchess.Move) (string, error) {
	from, to := coordOf(mv.S1()), coordOf(mv.S2())
	p, ok := pieceOf(pos.Board().Piece(mv.S1()))
	if !ok {
		return "", fmt.Errorf("no piece on %s for %s", mv.S1(), mv)
	}
	return notation.EncodeMoveToken(p, from, to)
}

// CompressPosition encodes a library position in the diagram wire format.
func CompressPosition(pos *nchess.Position) string {
	var bd notation.Board
	board := pos.Board()
	for cell := range notation.Squares {
		c := notation.CoordOfCell(cell)
		sq := nchess.NewSquare(nchess.File(c.File), nchess.Rank(c.Rank))
		if p, ok := pieceOf(board.Piece(sq)); ok {
			bd[cell] = p
		}
	}
	return bd.Compressed()
}

func coordOf(sq nchess.Square) notation.Coord {
	return notation.Coord{File: int(sq) % 8, Rank: int(sq) / 8}
}

func pieceOf(p nchess.Piece) (notation.Piece, bool) {
	if p == nchess.NoPiece {
		return notation.NoPiece, false
	}
	var k notation.Kind
	switch p.Type() {
	case nchess.Pawn:
		k = notation.Pawn
	case nchess.Knight:
		k = notation.Knight
	case nchess.Bishop:
		k = notation.Bishop
	case nchess.Rook:
		k = notation.Rook
	case nchess.Queen:
		k = notation.Queen
	case nchess.King:
		k = notation.King
	default:
		return notation.NoPiece, false
	}
	c := notation.White
	if p.Color() == nchess.Black {
		c = notation.Black
	}
	return notation.Piece{Kind: k, Color: c}, true
}

// hasDiagramTag reports whether the comment after a move asks for a new
// diagram.
func hasDiagramTag(mv *nchess.Move) bool {
	c, ok := any(mv).(interface{ Comments() string })
	if !ok {
		return false
	}
	text := c.Comments()
	return strings.Contains(text, "#Diagram") || strings.Contains(text, "Diagram #")
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func titleOf(g *nchess.Game) string {
	white := strings.TrimSpace(g.GetTagPair("White"))
	black := strings.TrimSpace(g.GetTagPair("Black"))
	switch {
	case white != "" && black != "":
		return white + " - " + black
	case g.GetTagPair("Event") != "":
		return g.GetTagPair("Event")
	default:
		return "Untitled"
	}
}
