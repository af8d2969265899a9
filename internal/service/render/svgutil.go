package render

import (
	"bytes"

	"github.com/park285/cheese-diagram-player/internal/notation"
)

func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: 000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: 000000"), []byte("stroke:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	return fixed
}

// colorize fills the PIECE_FILL and PIECE_STROKE placeholders for a side.
func colorize(svg []byte, c notation.Color) []byte {
	fill := "#ffffff"
	if c == notation.Black {
		fill = "#1a1a1a"
	}
	out := bytes.ReplaceAll(svg, []byte("PIECE_FILL"), []byte(fill))
	return bytes.ReplaceAll(out, []byte("PIECE_STROKE"), []byte("#000000"))
}
