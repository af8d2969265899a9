package notation

import (
	"fmt"
	"strings"
)

// TokenLen is the length of a move token: piece letter plus two squares.
const TokenLen = 5

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errf("malformed move token")

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

// DecodeError describes a move token that cannot be animated.
type DecodeError struct {
	Token  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode move token %q: %s", e.Token, e.Reason)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Move is a decoded token oriented in the direction it will be animated.
type Move struct {
	Piece Piece
	From  Coord
	To    Coord
}

// SameFile reports a purely vertical slide.
func (m Move) SameFile() bool { return m.From.File == m.To.File }

// SameRank reports a purely horizontal slide.
func (m Move) SameRank() bool { return m.From.Rank == m.To.Rank }

func (m Move) String() string {
	return fmt.Sprintf("%c%s%s", m.Piece.Letter(), m.From, m.To)
}

// DecodeMoveToken reads a token such as "Pe2e4". Characters 1-2 are the
// origin and 3-4 the target; backward swaps the roles so the result slides
// the piece home again.
func DecodeMoveToken(token string, backward bool) (Move, error) {
	if len(token) < TokenLen {
		return Move{}, &DecodeError{Token: token, Reason: "too short"}
	}
	piece, ok := PieceFromLetter(token[0])
	if !ok {
		return Move{}, &DecodeError{Token: token, Reason: fmt.Sprintf("unknown piece %q", token[0])}
	}
	si, di := 1, 3
	if backward {
		si, di = 3, 1
	}
	from, ok := ParseCoord(token[si], token[si+1])
	if !ok {
		return Move{}, &DecodeError{Token: token, Reason: "source square out of range"}
	}
	to, ok := ParseCoord(token[di], token[di+1])
	if !ok {
		return Move{}, &DecodeError{Token: token, Reason: "destination square out of range"}
	}
	return Move{Piece: piece, From: from, To: to}, nil
}

// EncodeMoveToken is the inverse of a forward DecodeMoveToken.
func EncodeMoveToken(p Piece, from, to Coord) (string, error) {
	if p.IsEmpty() {
		return "", fmt.Errorf("encode move token: %w", errf("empty piece"))
	}
	if !from.Valid() || !to.Valid() {
		return "", fmt.Errorf("encode move token %s-%s: %w", from, to, errf("square out of range"))
	}
	var b strings.Builder
	b.Grow(TokenLen)
	b.WriteByte(p.Letter())
	b.WriteString(from.String())
	b.WriteString(to.String())
	return b.String(), nil
}
