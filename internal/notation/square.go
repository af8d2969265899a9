package notation

import "fmt"

// Squares is the number of cells on a board.
const Squares = 64

// Coord is a board square by zero based file (a=0) and rank (1=0).
type Coord struct {
	File int
	Rank int
}

// ParseCoord reads an algebraic square such as "e4".
func ParseCoord(file, rank byte) (Coord, bool) {
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Coord{}, false
	}
	return Coord{File: int(file - 'a'), Rank: int(rank - '1')}, true
}

// CoordOfCell converts an a8-first board cell (the order ExpandPosition
// produces) into a coordinate.
func CoordOfCell(cell int) Coord {
	return Coord{File: cell % 8, Rank: 7 - cell/8}
}

func (c Coord) Valid() bool {
	return c.File >= 0 && c.File < 8 && c.Rank >= 0 && c.Rank < 8
}

// Cell is the a8-first index of the square inside an expanded board.
func (c Coord) Cell() int { return (7-c.Rank)*8 + c.File }

// Index is the a1-first rank-major index of the square.
func (c Coord) Index() int { return c.Rank*8 + c.File }

func (c Coord) IsLight() bool { return SquareIsLight(c.Index()) }

func (c Coord) String() string {
	if !c.Valid() {
		return fmt.Sprintf("(%d,%d)", c.File, c.Rank)
	}
	return string([]byte{byte('a' + c.File), byte('1' + c.Rank)})
}

// SquareIsLight reports the tone of the square at a1-first rank-major index
// i. a1 (index 0) is dark.
func SquareIsLight(i int) bool {
	row, col := i/8, i%8
	return (row+col)%2 == 1
}

// CellIsLight reports the tone of an a8-first board cell.
func CellIsLight(cell int) bool { return CoordOfCell(cell).IsLight() }
