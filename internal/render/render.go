// Package render draws a board.Board as a PNG with the selection state of a session.
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

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/chessfront/internal/board"
)

const (
	SquareSize = 64
	Margin     = 28
	captionH   = 34
	captionGap = 10
	panelR     = 10
)

type Move struct {
	From board.Square
	To   board.Square
}

type Options struct {
	// Selected gets a solid overlay and Targets a dot each.
	Selected *board.Square
	Targets  []board.Square
	LastMove *Move
	// Flip draws rank 1 at the top.
	Flip    bool
	Caption string
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	selectedFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	targetDot      = color.NRGBA{R: 40, G: 40, B: 40, A: 110}
	lastMoveArrow  = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	captionPanel   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	captionText    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateText = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	background     = color.RGBA{245, 243, 238, 255}
)

// Size returns the image dimensions for opts.
func Size(opts Options) image.Point {
	h := SquareSize*8 + Margin*2
	if strings.TrimSpace(opts.Caption) != "" {
		h += captionH + captionGap
	}
	return image.Pt(SquareSize*8+Margin*2, h)
}

// PNG encodes Image(b, opts).
func PNG(ctx context.Context, b board.Board, opts Options) ([]byte, error) {
	img, err := Image(ctx, b, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func Image(ctx context.Context, b board.Board, opts Options) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := Size(opts)
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, imagedraw.Src)

	origin := image.Pt(Margin, Margin)
	drawSquares(img, origin)
	if opts.Selected != nil && opts.Selected.Valid() {
		imagedraw.Draw(img, squareRect(*opts.Selected, origin, opts.Flip), image.NewUniform(selectedFill), image.Point{}, imagedraw.Over)
	}
	if err := drawPieces(img, b, origin, opts.Flip); err != nil {
		return nil, err
	}
	for _, sq := range opts.Targets {
		if !sq.Valid() {
			continue
		}
		r := squareRect(sq, origin, opts.Flip)
		center := image.Pt(r.Min.X+SquareSize/2, r.Min.Y+SquareSize/2)
		drawDisc(img, center, SquareSize/7, targetDot)
	}
	if m := opts.LastMove; m != nil && m.From.Valid() && m.To.Valid() {
		drawArrow(img, squareRect(m.From, origin, opts.Flip), squareRect(m.To, origin, opts.Flip), lastMoveArrow)
	}
	drawCoordinates(img, origin, opts.Flip)

	if caption := strings.TrimSpace(opts.Caption); caption != "" {
		boardBottom := origin.Y + SquareSize*8 + Margin
		panel := image.Rect(origin.X, boardBottom, origin.X+SquareSize*8, boardBottom+captionH)
		drawRoundedPanel(img, panel, panelR, captionPanel)
		drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
		caption = truncateWithEllipsis(drawer.Face, caption, panel.Dx()-24)
		drawCenteredString(drawer, panel, caption, captionText)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			sq := board.Square{File: f, Rank: r}
			imagedraw.Draw(dst, squareRect(sq, origin, false), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, b board.Board, origin image.Point, flip bool) error {
	for _, sq := range b.Occupied() {
		img, err := pieceImage(b.Piece(sq), SquareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(sq, origin, flip), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, origin image.Point, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateText)}
	ascent := face.Metrics().Ascent.Ceil()

	for i := 0; i < 8; i++ {
		fileSq := board.Square{File: i, Rank: 0}
		col := squareRect(fileSq, origin, flip)
		fileLabel := string(rune('a' + i))
		drawCenteredText(drawer, fileLabel, col.Min.X+SquareSize/2, origin.Y+SquareSize*8+ascent+4)

		rankSq := board.Square{File: 0, Rank: i}
		row := squareRect(rankSq, origin, flip)
		rankLabel := string(rune('1' + i))
		drawCenteredText(drawer, rankLabel, origin.X-Margin/2, row.Min.Y+SquareSize/2+ascent/2)
	}
}

// squareRect maps sq to pixels; rank 8 is the top row unless flipped.
func squareRect(sq board.Square, origin image.Point, flip bool) image.Rectangle {
	row, col := 7-sq.Rank, sq.File
	if flip {
		row, col = sq.Rank, 7-sq.File
	}
	x := origin.X + col*SquareSize
	y := origin.Y + row*SquareSize
	return image.Rect(x, y, x+SquareSize, y+SquareSize)
}

func squareColor(sq board.Square) color.Color {
	if (sq.File+sq.Rank)%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawArrow(img *image.RGBA, from, to image.Rectangle, clr color.Color) {
	start := pointF{X: float64(from.Min.X + SquareSize/2), Y: float64(from.Min.Y + SquareSize/2)}
	end := pointF{X: float64(to.Min.X + SquareSize/2), Y: float64(to.Min.Y + SquareSize/2)}

	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - SquareSize*0.45
	if baseLength < SquareSize*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := SquareSize * 0.14
	headWidth := SquareSize * 0.32

	base := pointF{X: start.X + dirX*baseLength, Y: start.Y + dirY*baseLength}
	at := func(p pointF, w float64) pointF { return pointF{X: p.X + perpX*w, Y: p.Y + perpY*w} }

	fillTriangle(img, at(start, -halfWidth), at(start, halfWidth), at(base, halfWidth), clr)
	fillTriangle(img, at(start, -halfWidth), at(base, halfWidth), at(base, -halfWidth), clr)
	fillTriangle(img, end, at(base, -headWidth/2), at(base, headWidth/2), clr)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	radius = max(0, min(radius, rect.Dx()/2, rect.Dy()/2))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	// quarter discs fill the corners only
	corners := []struct {
		center image.Point
		clip   image.Rectangle
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+radius, rect.Min.Y+radius)},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), image.Rect(rect.Max.X-radius, rect.Min.Y, rect.Max.X, rect.Min.Y+radius)},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), image.Rect(rect.Min.X, rect.Max.Y-radius, rect.Min.X+radius, rect.Max.Y)},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), image.Rect(rect.Max.X-radius, rect.Max.Y-radius, rect.Max.X, rect.Max.Y)},
	}
	for _, c := range corners {
		sub, ok := img.SubImage(c.clip).(*image.RGBA)
		if ok {
			drawDisc(sub, c.center, radius, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X+(rect.Dx()-width)/2, rect.Min.X)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= rSquared {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// blendPixel composites clr over the pixel at (x, y) when it is inside img.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	blend := func(s uint32, d uint8) uint8 {
		return uint8((s + uint32(d)*0x101*inv/65535) >> 8)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: blend(sr, dst.R),
		G: blend(sg, dst.G),
		B: blend(sb, dst.B),
		A: blend(sa, dst.A),
	})
}

type pointF struct {
	X float64
	Y float64
}

func fillTriangle(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(min(a.X, b.X, c.X)))
	maxX := int(math.Ceil(max(a.X, b.X, c.X)))
	minY := int(math.Floor(min(a.Y, b.Y, c.Y)))
	maxY := int(math.Ceil(max(a.Y, b.Y, c.Y)))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if inTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func inTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}
