package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/park285/cheese-diagram-player/internal/notation"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Frame is one still of a diagram: the resting board plus whatever a move
// animation has layered on top of it.
type Frame struct {
	Board  notation.Board
	Label  string
	Framed bool

	// Highlight draws an arrow for the move that led here.
	Highlight *notation.Move
	// Vacated cells are drawn as empty squares.
	Vacated []int
	// Rover is a piece drawn between squares.
	Rover *Rover
}

// Rover places a piece at a fractional board coordinate, file and rank
// counted from a1.
type Rover struct {
	Piece notation.Piece
	File  float64
	Rank  float64
}

type Renderer interface {
	RenderPNG(ctx context.Context, f Frame) ([]byte, error)
}

type svgRenderer struct {
	squareSize int
}

const DefaultSquareSize = 48

func NewSVGRenderer(squareSize int) Renderer {
	if squareSize < 8 {
		squareSize = DefaultSquareSize
	}
	return &svgRenderer{squareSize: squareSize}
}

func (r *svgRenderer) RenderPNG(ctx context.Context, f Frame) ([]byte, error) {
	squareSize := r.squareSize
	const (
		boardSquares = 8
		panelHeight  = 28
		panelGap     = 10
		panelRadius  = 8
	)
	sideMargin := squareSize / 2
	boardSize := squareSize * boardSquares
	totalWidth := boardSize + sideMargin*2
	totalHeight := sideMargin + boardSize + sideMargin + panelGap + panelHeight + sideMargin/2
	origin := image.Point{X: sideMargin, Y: sideMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawBoardShadow(img, image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize))
	drawSquares(img, squareSize, origin, f.Framed)
	vacated := make(map[int]bool, len(f.Vacated))
	for _, cell := range f.Vacated {
		vacated[cell] = true
	}
	if err := drawPieces(img, &f.Board, vacated, squareSize, origin); err != nil {
		return nil, err
	}
	if f.Highlight != nil {
		drawArrow(img, f.Highlight.From, f.Highlight.To, squareSize, origin, arrowColor(f.Highlight.Piece))
	}
	if f.Rover != nil {
		if err := drawRover(img, *f.Rover, squareSize, origin); err != nil {
			return nil, err
		}
	}
	drawCoordinates(img, squareSize, origin, sideMargin)

	panelTop := origin.Y + boardSize + sideMargin + panelGap
	panel := image.Rect(origin.X, panelTop, origin.X+boardSize, panelTop+panelHeight)
	drawLabel(img, panel, panelRadius, f.Label, f.Framed)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

var (
	backgroundColor   = color.RGBA{250, 248, 242, 255}
	lightSquare       = color.RGBA{233, 207, 163, 255}
	darkSquare        = color.RGBA{187, 136, 96, 255}
	framedDarkSquare  = color.RGBA{204, 170, 72, 255}
	whiteMoveArrow    = color.NRGBA{R: 255, G: 228, B: 120, A: 170}
	blackMoveArrow    = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	boardShadowColor  = color.NRGBA{0, 0, 0, 60}
	panelColor        = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	framedPanelColor  = color.NRGBA{R: 120, G: 90, B: 20, A: 250}
	panelTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextClr = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
)

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadowRect := image.Rect(
		boardRect.Min.X+4,
		boardRect.Min.Y+6,
		boardRect.Max.X+6,
		boardRect.Max.Y+8,
	)
	imagedraw.Draw(img, shadowRect, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point, framed bool) {
	for cell := range notation.Squares {
		rect := cellRect(cell, squareSize, origin)
		imagedraw.Draw(dst, rect, image.NewUniform(squareColor(cell, framed)), image.Point{}, imagedraw.Src)
	}
}

func drawPieces(dst imagedraw.Image, bd *notation.Board, vacated map[int]bool, squareSize int, origin image.Point) error {
	for cell := range notation.Squares {
		piece := bd[cell]
		if piece.IsEmpty() || vacated[cell] {
			continue
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, cellRect(cell, squareSize, origin), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawRover(dst imagedraw.Image, rv Rover, squareSize int, origin image.Point) error {
	if rv.Piece.IsEmpty() {
		return nil
	}
	img, err := renderPieceImage(rv.Piece, squareSize)
	if err != nil {
		return err
	}
	x := origin.X + int(math.Round(rv.File*float64(squareSize)))
	y := origin.Y + int(math.Round((7-rv.Rank)*float64(squareSize)))
	imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
	return nil
}

func drawArrow(img *image.RGBA, from, to notation.Coord, squareSize int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	startRect := cellRect(from.Cell(), squareSize, origin)
	endRect := cellRect(to.Cell(), squareSize, origin)
	sx := float64(startRect.Min.X + squareSize/2)
	sy := float64(startRect.Min.Y + squareSize/2)
	ex := float64(endRect.Min.X + squareSize/2)
	ey := float64(endRect.Min.Y + squareSize/2)

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.14
	headWidth := float64(squareSize) * 0.4

	baseX := sx + dirX*baseLength
	baseY := sy + dirY*baseLength

	fillQuad(img,
		pointF{X: sx - perpX*halfWidth, Y: sy - perpY*halfWidth},
		pointF{X: sx + perpX*halfWidth, Y: sy + perpY*halfWidth},
		pointF{X: baseX + perpX*halfWidth, Y: baseY + perpY*halfWidth},
		pointF{X: baseX - perpX*halfWidth, Y: baseY - perpY*halfWidth},
		clr,
	)
	fillTriangleF(img,
		pointF{X: ex, Y: ey},
		pointF{X: baseX - perpX*headWidth/2, Y: baseY - perpY*headWidth/2},
		pointF{X: baseX + perpX*headWidth/2, Y: baseY + perpY*headWidth/2},
		clr,
	)
}

func drawLabel(img *image.RGBA, rect image.Rectangle, radius int, label string, framed bool) {
	bg := panelColor
	if framed {
		bg = framedPanelColor
	}
	drawRoundedPanel(img, rect, radius, bg)
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}
	text := truncateWithEllipsis(face, label, rect.Dx()-16)
	drawCenteredString(drawer, rect, text, panelTextColor)
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextClr)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + 8*squareSize
	for i := range 8 {
		rankCenter := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('8'-i)), origin.X-margin/2, rankCenter+ascent/2)
		fileCenter := origin.X + i*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('a'+i)), fileCenter, boardEnd+ascent)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	maxRadius := min(rect.Dx()/2, rect.Dy()/2)
	radius = max(0, min(radius, maxRadius))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		drawQuarterDisc(img, center, radius, rect, clr)
	}
}

// drawQuarterDisc fills the part of a disc that lies outside the panel's
// straight sections but inside rect.
func drawQuarterDisc(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	rSquared := radius * radius
	inner := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	sides := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			p := image.Pt(center.X+x, center.Y+y)
			if x*x+y*y > rSquared || !p.In(rect) || p.In(inner) || p.In(sides) {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X, rect.Min.X+(rect.Dx()-width)/2)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	srcA := float64(sa) / 65535.0
	if srcA <= 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	dstA := float64(dst.A) / 255.0
	inv := 1 - srcA

	// both sides are premultiplied
	img.SetRGBA(x, y, color.RGBA{
		R: floatToUint8(float64(sr)/257.0 + float64(dst.R)*inv),
		G: floatToUint8(float64(sg)/257.0 + float64(dst.G)*inv),
		B: floatToUint8(float64(sb)/257.0 + float64(dst.B)*inv),
		A: floatToUint8((srcA + dstA*inv) * 255.0),
	})
}

func floatToUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func cellRect(cell, squareSize int, origin image.Point) image.Rectangle {
	x := origin.X + (cell%8)*squareSize
	y := origin.Y + (cell/8)*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(cell int, framed bool) color.Color {
	switch {
	case notation.CellIsLight(cell):
		return lightSquare
	case framed:
		return framedDarkSquare
	default:
		return darkSquare
	}
}

func arrowColor(p notation.Piece) color.Color {
	if p.Color == notation.Black {
		return blackMoveArrow
	}
	return whiteMoveArrow
}

func pointInTriangleFloat(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(min(a.X, b.X, c.X)))
	maxX := int(math.Ceil(max(a.X, b.X, c.X)))
	minY := int(math.Floor(min(a.Y, b.Y, c.Y)))
	maxY := int(math.Ceil(max(a.Y, b.Y, c.Y)))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangleFloat(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

type pointF struct {
	X float64
	Y float64
}
