package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type spriteKey struct {
	piece notation.Piece
	size  int
}

// sprites caches rasterised pieces per colour and size for the process.
var sprites sync.Map // spriteKey -> *image.RGBA

func renderPieceImage(piece notation.Piece, size int) (image.Image, error) {
	key := spriteKey{piece: piece, size: size}
	if img, ok := sprites.Load(key); ok {
		return img.(*image.RGBA), nil
	}

	name := pieceAssetName(piece)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}
	img, err := rasterize(colorize(sanitizeSVG(data), piece.Color), size)
	if err != nil {
		return nil, fmt.Errorf("piece %s: %w", name, err)
	}
	actual, _ := sprites.LoadOrStore(key, img)
	return actual.(*image.RGBA), nil
}

// rasterize draws an SVG document into a transparent size x size image.
func rasterize(svg []byte, size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = float64(size), float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

// One outline per kind; colour is filled in per side.
func pieceAssetName(piece notation.Piece) string {
	return fmt.Sprintf("assets/pieces/%c.svg", piece.Kind.Letter()|0x20)
}
