package notation

// Tone is the background of a square as drawn.
type Tone byte

const (
	ToneLight  Tone = 'w'
	ToneDark   Tone = 'b'
	ToneFramed Tone = 'y' // dark squares of the framed diagram
)

// ToneOf picks the background for a cell.
func ToneOf(cell int, framed bool) Tone {
	switch {
	case CellIsLight(cell):
		return ToneLight
	case framed:
		return ToneFramed
	default:
		return ToneDark
	}
}

// AssetKey names the sprite for one square: the piece (possibly empty) on a
// given background.
type AssetKey struct {
	Piece Piece
	Tone  Tone
}

// String is the asset base name, e.g. "wpw" for a white pawn on a light
// square or "y" for an empty framed dark square.
func (k AssetKey) String() string {
	if k.Piece.IsEmpty() {
		return string([]byte{byte(k.Tone)})
	}
	l := k.Piece.Kind.Letter() + ('a' - 'A')
	return k.Piece.Color.Prefix() + string([]byte{l, byte(k.Tone)})
}

// Asset returns the sprite key for a board cell.
func Asset(bd *Board, cell int, framed bool) AssetKey {
	return AssetKey{Piece: bd[cell], Tone: ToneOf(cell, framed)}
}

// BlankAsset is the sprite for a vacated cell.
func BlankAsset(cell int, framed bool) AssetKey {
	return AssetKey{Tone: ToneOf(cell, framed)}
}

// Assets returns the sprite key of every cell.
func Assets(bd *Board, framed bool) [Squares]AssetKey {
	var out [Squares]AssetKey
	for i := range out {
		out[i] = Asset(bd, i, framed)
	}
	return out
}
