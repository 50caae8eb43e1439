package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/chessfront/internal/board"
)

// Piece silhouettes on a 45x45 canvas. '@' marks where paint attributes go.
var pieceShapes = map[board.Kind]string{
	board.Pawn: `<circle cx="22.5" cy="13" r="6" @/>
<path d="M16 21h13l4 13H12z" @/>
<rect x="10" y="33" width="25" height="6" rx="2" @/>`,
	board.Knight: `<path d="M13 39h22v-5c0-10-3-19-10-25l-3-4-2 5-7 6-5 8 2 4 6-3 3 1-7 9z" @/>
<circle cx="19" cy="14" r="1.4" @/>`,
	board.Bishop: `<circle cx="22.5" cy="8" r="3" @/>
<ellipse cx="22.5" cy="21" rx="7.5" ry="10" @/>
<rect x="15" y="30" width="15" height="4" rx="1" @/>
<rect x="10" y="34" width="25" height="5" rx="2" @/>`,
	board.Rook: `<path d="M11 8h5v4h4V8h5v4h4V8h5v8l-3 3v12l3 3v5H11v-5l3-3V19l-3-3z" @/>`,
	board.Queen: `<path d="M9 13l5 18h17l5-18-7 9-4-13-4 13z" @/>
<circle cx="9" cy="12" r="2.5" @/>
<circle cx="22.5" cy="8" r="2.5" @/>
<circle cx="36" cy="12" r="2.5" @/>
<rect x="12" y="31" width="21" height="8" rx="2" @/>`,
	board.King: `<path d="M21 4h3v4h4v3h-4v5h-3v-5h-4V8h4z" @/>
<path d="M12 34c-3-10 2-18 10.5-18S36 24 33 34z" @/>
<rect x="11" y="33" width="23" height="6" rx="2" @/>`,
}

var (
	whiteFill   = "#f7f3e8"
	whiteStroke = "#1e1e1e"
	blackFill   = "#2a2a2a"
	blackStroke = "#f0f0f0"
)

func pieceSVG(p board.Piece) (string, error) {
	shape, ok := pieceShapes[p.Kind]
	if !ok {
		return "", fmt.Errorf("no shape for piece kind %v", p.Kind)
	}
	fill, stroke := whiteFill, whiteStroke
	if p.Color == board.Black {
		fill, stroke = blackFill, blackStroke
	}
	attrs := fmt.Sprintf(`fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round"`, fill, stroke)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45">` +
		strings.ReplaceAll(shape, "@", attrs) + `</svg>`, nil
}

type pieceCacheKey struct {
	piece board.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceImage(p board.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
