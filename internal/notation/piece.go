package notation

// Kind is the type of a chess piece. NoKind marks an empty cell.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{
	NoKind: "none",
	Pawn:   "pawn",
	Knight: "knight",
	Bishop: "bishop",
	Rook:   "rook",
	Queen:  "queen",
	King:   "king",
}

var kindLetters = [...]byte{
	NoKind: ' ',
	Pawn:   'P',
	Knight: 'N',
	Bishop: 'B',
	Rook:   'R',
	Queen:  'Q',
	King:   'K',
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Letter returns the upper case letter of the kind, or a blank for NoKind.
func (k Kind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return '?'
}

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Prefix is the single letter used in asset names ("w" or "b").
func (c Color) Prefix() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// Piece is one board cell's content.
type Piece struct {
	Kind  Kind
	Color Color
}

// NoPiece is the empty cell.
var NoPiece = Piece{}

func (p Piece) IsEmpty() bool { return p.Kind == NoKind }

// Letter returns the FEN style letter, lower case for black, blank when empty.
func (p Piece) Letter() byte {
	if p.IsEmpty() {
		return ' '
	}
	l := p.Kind.Letter()
	if p.Color == Black {
		l += 'a' - 'A'
	}
	return l
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

var pieceByLetter = map[byte]Piece{
	'P': {Pawn, White},
	'N': {Knight, White},
	'B': {Bishop, White},
	'R': {Rook, White},
	'Q': {Queen, White},
	'K': {King, White},
	'p': {Pawn, Black},
	'n': {Knight, Black},
	'b': {Bishop, Black},
	'r': {Rook, Black},
	'q': {Queen, Black},
	'k': {King, Black},
}

// PieceFromLetter maps a piece letter to a Piece. Blanks and unknown letters
// report ok=false.
func PieceFromLetter(c byte) (Piece, bool) {
	p, ok := pieceByLetter[c]
	return p, ok
}
