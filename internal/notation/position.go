package notation

import (
	"strconv"
	"strings"
)

type groupTemplate struct {
	letter    byte
	expansion string
}

// groups is ordered: compression tries the entries in this order.
var groups = []groupTemplate{
	{'c', " rk "},
	{'C', " RK "},
	{'a', "rnbq"},
	{'u', "r bq"},
	{'s', "rn q"},
	{'e', "r  q"},
	{'h', "kbnr"},
	{'g', "kb r"},
	{'m', "k nr"},
	{'v', "k  r"},
	{'f', "pppp"},
	{'t', "ppp"},
	{'d', "pp"},
	{'A', "RNBQ"},
	{'U', "R BQ"},
	{'S', "RN Q"},
	{'E', "R  Q"},
	{'H', "KBNR"},
	{'G', "KB R"},
	{'M', "K NR"},
	{'V', "K  R"},
	{'F', "PPPP"},
	{'T', "PPP"},
	{'D', "PP"},
}

var groupByLetter = func() map[byte]string {
	m := make(map[byte]string, len(groups))
	for _, g := range groups {
		m[g.letter] = g.expansion
	}
	return m
}()

// StartPosition is the compressed initial position.
const StartPosition = "ahff32FFAH"

// ExpandPosition turns a compressed position into exactly 64 cells in a8..h1
// order. Digit runs are blank counts, group letters expand to their
// templates and anything else is copied through. The result is padded with
// blanks and never longer than 64.
func ExpandPosition(compressed string) string {
	var b strings.Builder
	b.Grow(Squares)
	run := 0
	flush := func() {
		if run > 0 {
			b.WriteString(strings.Repeat(" ", run))
			run = 0
		}
	}
	for i := 0; i < len(compressed) && b.Len() < Squares; i++ {
		c := compressed[i]
		if c >= '0' && c <= '9' {
			run = run*10 + int(c-'0')
			if run > Squares {
				run = Squares
			}
			continue
		}
		flush()
		if tpl, ok := groupByLetter[c]; ok {
			b.WriteString(tpl)
			continue
		}
		b.WriteByte(c)
	}
	flush()
	out := b.String()
	if len(out) < Squares {
		return out + strings.Repeat(" ", Squares-len(out))
	}
	return out[:Squares]
}

// CompressPosition is the inverse of ExpandPosition for boards made of piece
// letters and blanks. Trailing blanks are dropped.
func CompressPosition(board string) string {
	pos := board
	if len(pos) < Squares {
		pos += strings.Repeat(" ", Squares-len(pos))
	}
	pos = pos[:Squares]

	var b strings.Builder
	spaces := 0
	for i := 0; i < Squares; {
		c := pos[i]
		abbrev := -1
		switch {
		case c == ' ':
			switch rest := pos[i+1:]; {
			case strings.HasPrefix(rest, "rk "):
				abbrev = 0
			case strings.HasPrefix(rest, "RK "):
				abbrev = 1
			default:
				spaces++
				i++
				continue
			}
		case strings.IndexByte("pPrkRK", c) >= 0:
			for j := 2; j < len(groups) && abbrev == -1; j++ {
				if strings.HasPrefix(pos[i:], groups[j].expansion) {
					abbrev = j
				}
			}
		}
		if spaces > 0 {
			b.WriteString(strconv.Itoa(spaces))
			spaces = 0
		}
		if abbrev == -1 {
			b.WriteByte(c)
			i++
			continue
		}
		b.WriteByte(groups[abbrev].letter)
		i += len(groups[abbrev].expansion)
	}
	return b.String()
}

// Board is an expanded position in a8..h1 order.
type Board [Squares]Piece

// ParseBoard expands a compressed position. Characters that are not piece
// letters become empty cells.
func ParseBoard(compressed string) Board {
	var bd Board
	cells := ExpandPosition(compressed)
	for i := 0; i < Squares; i++ {
		if p, ok := PieceFromLetter(cells[i]); ok {
			bd[i] = p
		}
	}
	return bd
}

// At returns the piece on a coordinate.
func (bd *Board) At(c Coord) Piece {
	if !c.Valid() {
		return NoPiece
	}
	return bd[c.Cell()]
}

// String renders the board as 64 piece letters and blanks.
func (bd Board) String() string {
	var b strings.Builder
	b.Grow(Squares)
	for _, p := range bd {
		b.WriteByte(p.Letter())
	}
	return b.String()
}

// Compressed returns the board in compressed form.
func (bd Board) Compressed() string { return CompressPosition(bd.String()) }

// Rows splits the board into eight rank strings, rank 8 first.
func (bd Board) Rows() [8]string {
	var rows [8]string
	s := bd.String()
	for r := 0; r < 8; r++ {
		rows[r] = s[r*8 : r*8+8]
	}
	return rows
}
