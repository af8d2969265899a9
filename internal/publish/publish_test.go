package publish

import (
	"strings"
	"testing"

	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const ruyPGN = `[Event "Casual"]
[White "Alice"]
[Black "Bob"]

1. e4 e5 2. Nf3 (2. f4 exf4) 2... Nc6 3. Bb5 *
`

func TestFromPGNMainLineAndVariation(t *testing.T) {
	doc, err := FromPGN(strings.NewReader(ruyPGN), Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, "Alice - Bob", doc.Title)
	require.Len(t, doc.Diagrams, 2)
	require.Len(t, doc.Moves, 9)

	head, err := doc.Move(0)
	require.NoError(t, err)
	assert.True(t, head.IsInitial())
	assert.Equal(t, notation.StartPosition, head.Position)
	assert.Equal(t, "Pe2e4", head.Token)

	main, err := doc.Chain(0)
	require.NoError(t, err)
	var texts []string
	for _, n := range main[1:] {
		texts = append(texts, n.Text)
		assert.Equal(t, 0, n.Diagram)
		assert.False(t, n.Variation)
	}
	assert.Equal(t, []string{"1.e4", "1...e5", "2.Nf3", "2...Nc6", "3.Bb5"}, texts)
	assert.True(t, main[len(main)-1].IsTerminal())

	starts := doc.Starts()
	require.Len(t, starts, 2)
	vhead := starts[1]
	e5, _ := doc.Move(2)
	assert.Equal(t, e5.Position, vhead.Position, "variation starts where it leaves the main line")
	assert.Equal(t, 1, vhead.Diagram)
	assert.True(t, vhead.Variation)
	assert.Equal(t, "Pf2f4", vhead.Token)

	line, err := doc.Chain(vhead.ID)
	require.NoError(t, err)
	require.Len(t, line, 3)
	assert.Equal(t, "2.f4", line[1].Text)
	assert.Equal(t, "2...exf4", line[2].Text)
	assert.Equal(t, "pe5f4", line[2].Token)
}

func TestTokensReplayPositions(t *testing.T) {
	doc, err := FromPGN(strings.NewReader(ruyPGN), Options{})
	require.NoError(t, err)
	for _, n := range doc.Moves {
		if n.IsInitial() {
			continue
		}
		mv, err := notation.DecodeMoveToken(n.Token, false)
		require.NoError(t, err, n.Text)
		after := notation.ParseBoard(n.Position)
		assert.Equal(t, mv.Piece, after.At(mv.To), "%s lands its piece", n.Text)
		assert.True(t, after.At(mv.From).IsEmpty(), "%s vacates its origin", n.Text)
	}
}

func TestSpacingSplitsLongChains(t *testing.T) {
	doc, err := FromPGN(strings.NewReader(ruyPGN), Options{Spacing: 2, Title: "short"})
	require.NoError(t, err)
	assert.Equal(t, "short", doc.Title)

	main, err := doc.Chain(0)
	require.NoError(t, err)
	got := make([]int, len(main))
	for i, n := range main {
		got[i] = n.Diagram
	}
	assert.Equal(t, []int{0, 0, 0, 1, 1, 2}, got)

	// a new diagram rests on the position before its first move
	d1, err := doc.Diagram(1)
	require.NoError(t, err)
	assert.Equal(t, main[2].Position, d1.Position)
}

func TestFromPGNWithoutMoves(t *testing.T) {
	_, err := FromPGN(strings.NewReader("*"), Options{})
	assert.ErrorIs(t, err, errNoMoves)
}

func TestMoveText(t *testing.T) {
	assert.Equal(t, "1.e4", moveText(0, "e4"))
	assert.Equal(t, "1...e5", moveText(1, "e5"))
	assert.Equal(t, "12.O-O", moveText(22, "O-O"))
}

func TestRoundTripThroughYAML(t *testing.T) {
	doc, err := FromPGN(strings.NewReader(ruyPGN), Options{})
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, doc.WriteYAML(&b))
	again, err := domain.Decode(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, len(doc.Moves), len(again.Moves))
}
